package main // Entry point package

import (
	"fmt"
	"log" // Logging library for failures before the structured logger exists
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/samber/do/v2"

	"github.com/iliyamo/stores-rest-api/internal/config" // Internal config loader
	"github.com/iliyamo/stores-rest-api/internal/di"
	"github.com/iliyamo/stores-rest-api/internal/logger"
)

func main() {
	// A missing .env is fine; the real environment wins either way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfg := config.Load() // Load environment config
	injector := di.NewContainer(cfg)
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	appLog := do.MustInvoke[*logger.Logger](injector)
	srv := do.MustInvoke[*di.HTTPServerHandle](injector)

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("listening", "addr", srv.Addr, "env", cfg.Env)
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		appLog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			appLog.Error("server failed", "error", err)
		}
	}

	// The container shuts services down in reverse dependency order: the
	// HTTP server first, the database last.
	if err := injector.Shutdown(); err != nil {
		appLog.Error("shutdown error", "error", err)
	}
}
