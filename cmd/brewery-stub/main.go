// Command brewery-stub serves an in-memory brewery API, payment, shipping and
// notification service for running the order service locally.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/jcmexdev/brewery-order-service/internal/brewerystub"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/telemetry"
)

func main() {
	v := viper.New()
	v.SetDefault("STUB_PORT", "5089")
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	logger := telemetry.InitLogger(v.GetString("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	brewery := brewerystub.New(logger)
	brewery.Seed()

	srv := &http.Server{
		Addr:              ":" + v.GetString("STUB_PORT"),
		Handler:           brewerystub.NewRouter(brewery),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("brewery stub running", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("brewery stub failed", "error", err)
		os.Exit(1)
	}
}
