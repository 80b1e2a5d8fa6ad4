package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"care-coordination/internal/adapters/auth/jwtauth"
	"care-coordination/internal/platform/logger"
	"care-coordination/internal/router"
)

func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	opts := router.Options{Log: log}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		provider := jwtauth.New(jwtauth.Config{Secret: secret})
		opts.AuthVerifier = provider
		opts.TokenIssuer = provider
	} else {
		// sin JWT_SECRET corre en modo dev: headers X-Debug-* y sin tokens
		log.Warn("JWT_SECRET not set, running without token auth", nil)
	}

	handler, runtime := router.NewRouter(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runtime.Start(ctx)

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down", nil)
	runtime.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", map[string]any{"error": err.Error()})
	}
}
