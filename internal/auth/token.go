package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by both token kinds. Access tokens embed the
// user id and email; refresh tokens carry only the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint64 `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Codec signs and verifies the two token kinds with independent HS256
// secrets and expiries. Access tokens are short-lived and stateless; refresh
// tokens are longer-lived and only valid while their database row exists.
type Codec struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// NewCodec builds a Codec from the configured TTL units (minutes for access,
// days for refresh).
func NewCodec(accessSecret, refreshSecret string, accessTTLMin, refreshTTLDays int) *Codec {
	return &Codec{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     time.Duration(accessTTLMin) * time.Minute,
		RefreshTTL:    time.Duration(refreshTTLDays) * 24 * time.Hour,
	}
}

// SignAccess mints a short-lived access token for the user.
func (c *Codec) SignAccess(userID uint64, email string) (string, time.Time, error) {
	return sign(c.AccessSecret, c.AccessTTL, userID, email)
}

// SignRefresh mints a refresh token for the user. The returned expiry is also
// what gets persisted alongside the token row.
func (c *Codec) SignRefresh(userID uint64) (string, time.Time, error) {
	return sign(c.RefreshSecret, c.RefreshTTL, userID, "")
}

func sign(secret string, ttl time.Duration, userID uint64, email string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAccess verifies an access token and returns its claims.
func (c *Codec) ParseAccess(token string) (*Claims, *Error) {
	return parse(token, c.AccessSecret)
}

// ParseRefresh verifies a refresh token against the refresh secret.
func (c *Codec) ParseRefresh(token string) (*Claims, *Error) {
	return parse(token, c.RefreshSecret)
}

// parse maps every jwt library failure onto the two-value taxonomy: expiry is
// reported as its own code, everything else (bad signature, malformed input,
// wrong algorithm) collapses into ErrTokenInvalid.
func parse(token, secret string) (*Claims, *Error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
