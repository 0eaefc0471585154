// Command admin bootstraps (or re-activates) an administrator account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"estate-crm/internal/core/config"
	"estate-crm/internal/core/database"
	"estate-crm/internal/core/logger"
	"estate-crm/internal/repo"
	"estate-crm/internal/service"
)

func main() {
	var (
		email    = flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email (required)")
		name     = flag.String("name", "Administrator", "display name")
		password = flag.String("password", "", "password; a random one is printed when empty")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()
	undo := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer undo()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: admin -email you@example.com [-name ...] [-password ...]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewGorm(ctx, database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       2,
		MaxIdleConns:       1,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		ConnectRetries:     cfg.DB.ConnectRetries,
		ConnectBackoff:     time.Duration(cfg.DB.ConnectBackoffMs) * time.Millisecond,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             log,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	store := repo.NewStore(db, cfg.DB.QueryTimeout())
	if cfg.DB.AutoMigrate {
		if err := store.AutoMigrate(ctx); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
	}

	p, issued, err := service.NewUserService(store, log).BootstrapAdmin(ctx, *email, *name, *password)
	if err != nil {
		log.Fatal("bootstrap admin failed", zap.Error(err))
	}
	fmt.Printf("admin ready: %s (%s)\n", p.Email, p.ID)
	if issued != "" {
		// 仅此一次输出
		fmt.Printf("password: %s\n", issued)
	}
}
