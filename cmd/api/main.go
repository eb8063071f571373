package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"

	"github.com/bvanrooij30/rotech-website-sub001/apiauth"
	"github.com/bvanrooij30/rotech-website-sub001/config"
	internalchi "github.com/bvanrooij30/rotech-website-sub001/internal/http/chi"
	"github.com/bvanrooij30/rotech-website-sub001/metrics"
	"github.com/bvanrooij30/rotech-website-sub001/webhook"
	"github.com/bvanrooij30/rotech-website-sub001/webhook/memory"
	webhookredis "github.com/bvanrooij30/rotech-website-sub001/webhook/redis"
)

const TIMEOUT = 30 * time.Second

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	logger := httplog.NewLogger("portal-integration", httplog.Options{
		JSON: true,
	})

	// Retry queue store: in-memory unless Redis is configured
	var store webhook.Store
	if cfg.RedisAddr != "" {
		redisStore, err := webhookredis.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			fmt.Println(err)
			return
		}
		store = redisStore
	} else {
		store = memory.NewStore()
	}
	defer store.Close(ctx)

	recorder, err := metrics.NewRecorder(store.Len)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer recorder.Shutdown(ctx)

	dispatcher := webhook.NewDispatcher(webhook.Config{
		URL:        cfg.PortalWebhookURL,
		Secret:     cfg.WebhookSecret,
		Timeout:    time.Duration(cfg.WebhookTimeoutSeconds) * time.Second,
		MaxRetries: cfg.WebhookMaxRetries,
		Logger:     &logger,
	}, store, recorder)

	allowlist := apiauth.NewAllowlist(cfg.AllowedIPs)
	if cfg.AllowlistFile != "" {
		if err := allowlist.LoadFile(cfg.AllowlistFile); err != nil {
			fmt.Println(err)
			return
		}
	}
	limiter := apiauth.NewRateLimiter(
		cfg.RateLimitMax,
		time.Duration(cfg.RateLimitWindowSeconds)*time.Second,
		nil,
	)
	authenticator := apiauth.NewAuthenticator(
		cfg.APIKey,
		apiauth.NewMode(cfg.AppEnv),
		allowlist,
		limiter,
		recorder,
		logger,
	)

	r := internalchi.Handlers(authenticator, dispatcher, internalchi.Secrets{
		APISecret:     cfg.APISecret,
		WebhookSecret: cfg.WebhookSecret,
	}, recorder.Handler())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	fmt.Printf("Listening on port %s\n", cfg.Port)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}
