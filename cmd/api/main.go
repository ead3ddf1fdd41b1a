package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"clinical-backend/internal/bootstrap"
	"clinical-backend/internal/host"
	"clinical-backend/internal/shared/config"
	"clinical-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(cfg.LogLevel)
	gin.SetMode(ginMode(cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg)
	stop()
	telemetry.Sync()
	os.Exit(code)
}

// ginMode keeps gin's debug output for local development only.
func ginMode(env string) string {
	if config.IsDevLike(env) {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// run builds the application and serves the configured handler until ctx ends.
// It returns the process exit code.
func run(ctx context.Context, cfg config.Config) int {
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"error": err})
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			telemetry.Warn("bootstrap.close_failed", map[string]any{"error": err})
		}
	}()

	h := host.New(host.OptionsFromConfig(cfg), app.Registry)
	if err := h.Run(ctx); err != nil {
		if host.IsStartupFailure(err) {
			telemetry.Error("host.startup_failure", map[string]any{"handler": cfg.AppHandler, "error": err})
		} else {
			telemetry.Error("host.failed", map[string]any{"error": err})
		}
		return 1
	}
	return 0
}
