package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"decom/internal/cache"
	"decom/internal/config"
	"decom/internal/handler"
	applog "decom/internal/logger"
	"decom/internal/middleware"
	"decom/internal/model"
	"decom/internal/schedule"
	"decom/internal/service"
	"decom/internal/validation"

	"github.com/gin-gonic/gin"
	sdk "github.com/matrixorigin/moi-go-sdk"
)

//go:embed dist/*
var staticFS embed.FS

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	closer := applog.Init(cfg.Log)
	defer closer.Close()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	db, err := cfg.OpenGormDB()
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(model.Tables()...); err != nil {
			slog.Error("db migrate failed", "err", err)
			os.Exit(1)
		}
	}

	clock := schedule.NewClock(cfg.Location())
	validation.Install(validation.New(clock))
	gin.SetMode(gin.ReleaseMode)

	authSvc := service.NewAuthService(db)
	userSvc := service.NewUserService(db)
	committeeSvc := service.NewCommitteeService(db)
	requestSvc := service.NewRequestService(db, clock, authSvc)

	ctx := context.Background()
	b := cfg.Bootstrap
	if err := userSvc.EnsureBootstrapAdmin(ctx, b.AdminEmail, b.AdminPassword, b.AdminName); err != nil {
		slog.Error("bootstrap admin failed", "err", err)
		os.Exit(1)
	}

	var statsCache service.Cache
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "decom:")
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			slog.Warn("redis unavailable, stats cache disabled", "addr", cfg.Redis.Addr, "err", err)
			rc.Close()
		} else {
			statsCache = rc
			defer rc.Close()
			slog.Info("stats cache enabled", "addr", cfg.Redis.Addr)
		}
		cancel()
	}
	statsSvc := service.NewStatsService(db, clock, statsCache, cfg.Redis.StatsTTL)
	requestSvc.OnChange(statsSvc.Invalidate)
	committeeSvc.OnChange(statsSvc.Invalidate)

	raw, err := cfg.NewRawClient()
	if err != nil {
		slog.Warn("sdk client init failed", "err", err)
	}
	if raw != nil {
		catalogSync := service.NewCatalogSync(raw, service.CatalogTables{
			Database: sdk.DatabaseID(cfg.MOI.DatabaseID),
			Requests: sdk.TableID(cfg.MOI.RequestsTable),
			History:  sdk.TableID(cfg.MOI.HistoryTable),
		})
		if catalogSync.Ready() {
			requestSvc.SetSyncer(catalogSync)
			slog.Info("catalog sync enabled")
		} else {
			slog.Warn("catalog sync disabled: run catalog_init and set moi.database_id")
		}
	}

	distFS, _ := fs.Sub(staticFS, "dist")
	r := handler.NewRouter(handler.Deps{
		Config:     cfg,
		DB:         db,
		Clock:      clock,
		Tokens:     middleware.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Auth:       authSvc,
		Users:      userSvc,
		Committees: committeeSvc,
		Requests:   requestSvc,
		Stats:      statsSvc,
		Static:     distFS,
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "err", err)
	}
}
