// Package repository implements the relational store access used by the
// service and handler layers. Sentinel errors defined here let callers
// distinguish failure scenarios without inspecting driver-specific errors:
// handlers translate ErrEmailExists into HTTP 409 and ErrUnknownRole into a
// validation failure.
package repository

import "errors"

// ErrEmailExists is returned when an insert or update would violate the
// unique email constraint (MySQL error 1062).
var ErrEmailExists = errors.New("email already exists")

// ErrUnknownRole is returned when a role name does not resolve to a row in
// the roles reference table.
var ErrUnknownRole = errors.New("unknown role")
