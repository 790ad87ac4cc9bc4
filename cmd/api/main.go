package main

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sudo-init-do/lancepay/internal/alerts"
	"github.com/sudo-init-do/lancepay/internal/auth"
	"github.com/sudo-init-do/lancepay/internal/config"
	"github.com/sudo-init-do/lancepay/internal/db"
	"github.com/sudo-init-do/lancepay/internal/escrow"
	"github.com/sudo-init-do/lancepay/internal/middleware"
	"github.com/sudo-init-do/lancepay/internal/milestone"
	"github.com/sudo-init-do/lancepay/internal/storage/postgres"
	"github.com/sudo-init-do/lancepay/internal/wallet"
)

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal("schema bootstrap failed", zap.Error(err))
	}

	// Stores
	walletStore := postgres.NewWalletStore(pool)
	escrowStore := postgres.NewEscrowStore(pool, walletStore)
	milestoneStore := postgres.NewMilestoneStore(pool)
	directory := postgres.NewDirectory(pool)
	paymentMethods := postgres.NewPaymentMethods(pool)

	// Background notifications
	notifier := alerts.New(cfg.RedisAddr, pool, log)
	notifier.Start()
	defer notifier.Close()

	// Services
	walletSvc := wallet.NewService(walletStore, paymentMethods, log)
	releaseSvc := escrow.NewService(escrowStore, log)
	milestoneSvc := milestone.NewService(milestoneStore, directory, releaseSvc, notifier, log)

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authHandler := auth.NewHandler(pool, []byte(cfg.JWTSecret), cfg.TokenTTL, log)
	authGroup := e.Group("/auth")
	authGroup.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)

	g := e.Group("")
	g.Use(middleware.JWT([]byte(cfg.JWTSecret)))
	g.GET("/me", authHandler.Me)
	wallet.NewHandler(walletSvc).Register(g)
	milestone.NewHandler(milestoneSvc).Register(g)

	log.Info("api listening", zap.String("port", cfg.Port))
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
