package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/config"
	"github.com/iliyamo/crm-backend/internal/database"
	"github.com/iliyamo/crm-backend/internal/handler"
	"github.com/iliyamo/crm-backend/internal/queue"
	"github.com/iliyamo/crm-backend/internal/repository"
	"github.com/iliyamo/crm-backend/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName,
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.Fatalf("database: open failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db, cfg.SeedAdminEmail, cfg.SeedAdminPassword, cfg.BcryptCost); err != nil {
		cancel()
		log.Fatalf("database: schema provisioning failed: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	contacts := repository.NewContactRepo(db)

	codec := auth.NewCodec(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)
	svc := auth.NewService(users, tokens, codec, cfg.AllowedLoginRoles)

	rdb := config.NewRedisClient() // nil disables rate limiting
	rlCfg := config.LoadRateLimit()

	// Audit trail consumer; reconnects forever in the background.
	go queue.StartAuditConsumer()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.Register(e,
		svc,
		handler.NewAuthHandler(svc),
		handler.NewUserHandler(users, tokens, cfg.BcryptCost),
		handler.NewContactHandler(contacts),
		rlCfg,
		rdb,
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
