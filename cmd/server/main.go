package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/openshop/storefront/internal/config"
	"github.com/openshop/storefront/internal/db"
	"github.com/openshop/storefront/internal/es"
	"github.com/openshop/storefront/internal/events"
	"github.com/openshop/storefront/internal/httpserver"
	"github.com/openshop/storefront/internal/logging"
	"github.com/openshop/storefront/internal/mailer"
	"github.com/openshop/storefront/internal/middleware/auth"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/search"
	"github.com/openshop/storefront/internal/service"
	"github.com/openshop/storefront/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)

	gdb, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	prod := events.NewProducer(cfg.KafkaBrokers)

	esClient, err := es.NewClient(cfg)
	if err != nil {
		log.Fatalf("elasticsearch: %v", err)
	}

	images, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicURL)
	if err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	r := repo.New(gdb)
	authSvc := &service.AuthService{Repo: r, JWTSecret: cfg.JWTSecret, RefreshSecret: cfg.RefreshSecret, Mailer: mailer.LogMailer{}}
	catalogSvc := &service.CatalogService{Repo: r, Files: images}
	cartSvc := &service.CartService{Repo: r}
	orderSvc := &service.OrderService{Repo: r}
	searchSvc := &search.Service{ES: esClient, Index: cfg.ESIndex}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), logger)))
			return next(c)
		}
	})
	e.Static(cfg.PublicURL, cfg.UploadDir)

	deps := httpserver.Deps{
		DB:           gdb,
		Auth:         auth.New(cfg.JWTSecret),
		AuthHandler:  &httpserver.AuthHandler{Auth: authSvc},
		Catalog:      &httpserver.CatalogHandler{Catalog: catalogSvc, Search: searchSvc},
		Cart:         &httpserver.CartHandler{Cart: cartSvc},
		Orders:       &httpserver.OrderHandler{Orders: orderSvc, Events: prod},
		AdminCatalog: &httpserver.AdminCatalogHandler{Catalog: catalogSvc, Search: searchSvc, Events: prod, Images: images},
		AdminOrders:  &httpserver.AdminOrderHandler{Orders: orderSvc, Events: prod},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown_error", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
