package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"estate-crm/internal/core/auth"
	"estate-crm/internal/core/cache"
	"estate-crm/internal/core/config"
	"estate-crm/internal/core/database"
	"estate-crm/internal/core/logger"
	"estate-crm/internal/core/server"
	"estate-crm/internal/repo"
	"estate-crm/internal/service"
	"estate-crm/internal/transport/http/handler"
	"estate-crm/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File,
		cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress)
	defer cleanup()

	// 数据库（重试耗尽直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	store := repo.NewStore(db, cfg.DB.QueryTimeout())
	if cfg.DB.AutoMigrate {
		if err := store.AutoMigrate(context.Background()); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// 缓存可选；不可用时统计直接查库
	rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if rc.Enabled() {
		if err := rc.Ping(context.Background()); err != nil {
			log.Warn("redis unavailable, stats cache disabled", zap.Error(err))
			_ = rc.Close()
			rc = nil
		}
	}
	defer rc.Close()

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
		Leeway: cfg.JWT.Leeway(),
	}

	authSvc := service.NewAuthService(store, jwter, log)
	leadSvc := service.NewLeadService(store, service.NewActivityRecorder(log), rc, cfg.Redis.StatsTTL(), log)
	userSvc := service.NewUserService(store, log)
	propertySvc := service.NewPropertyService(store, log)
	projectSvc := service.NewProjectService(store, log)

	mode := "release"
	if cfg.App.Env == "local" {
		mode = "debug"
	}
	r := router.NewAPIEngine(router.Deps{
		Log: log,
		JWT: jwter,
		Modules: []any{
			handler.NewAuthHandler(authSvc),
			handler.NewLeadHandler(leadSvc),
			handler.NewUserHandler(userSvc),
			handler.NewPropertyHandler(propertySvc),
			handler.NewProjectHandler(projectSvc),
		},
		Ready:          readiness(db),
		Mode:           mode,
		MaxInFlight:    int64(cfg.App.HTTP.MaxInFlight),
		AcquireTimeout: cfg.App.HTTP.AcquireTimeout(),
		RequestTimeout: cfg.App.HTTP.RequestTimeout(),
		MaxBodyBytes:   cfg.App.HTTP.MaxBodyBytes,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
		func(s *http.Server) {
			if std, err := logger.ToStdLogger(log.Named("http"), zapcore.WarnLevel); err == nil {
				s.ErrorLog = std
			}
		},
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("crm api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
		zap.Int("max_in_flight", cfg.App.HTTP.MaxInFlight),
	)

	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("crm api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("crm api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(context.Background(), database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		ConnMaxIdleMin:     cfg.DB.ConnMaxIdleMin,
		ConnectRetries:     cfg.DB.ConnectRetries,
		ConnectBackoff:     time.Duration(cfg.DB.ConnectBackoffMs) * time.Millisecond,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             l,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

// readiness 供 /health 探活
func readiness(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return sqlDB.PingContext(ctx)
	}
}
