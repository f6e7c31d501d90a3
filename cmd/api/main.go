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

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/ai"
	"github.com/01moynul/artisansloom-golang/internal/auth"
	"github.com/01moynul/artisansloom-golang/internal/config"
	"github.com/01moynul/artisansloom-golang/internal/database"
	"github.com/01moynul/artisansloom-golang/internal/firestore"
	"github.com/01moynul/artisansloom-golang/internal/handlers"
	"github.com/01moynul/artisansloom-golang/internal/logger"
	"github.com/01moynul/artisansloom-golang/internal/marketplace"
	"github.com/01moynul/artisansloom-golang/internal/middleware"
	"github.com/01moynul/artisansloom-golang/internal/notify"
	"github.com/01moynul/artisansloom-golang/internal/routes"
	"github.com/01moynul/artisansloom-golang/internal/store"
	"github.com/01moynul/artisansloom-golang/internal/store/memory"
	"github.com/01moynul/artisansloom-golang/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "artisansloom-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 0. --- Configuration & Logging ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	shutdownTracing, err := telemetry.Setup(cfg.Telemetry.Exporter, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	// 1. --- Document Store ---
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	// 2. --- Auth Tokens ---
	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	if err != nil {
		return err
	}

	// 3. --- Notifications ---
	var publisher notify.Publisher = notify.NewLogPublisher(log)
	if cfg.RabbitMQ.URL != "" {
		amqpPub, err := notify.DialPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		publisher = amqpPub
		log.Info("publishing notifications to rabbitmq", zap.String("queue", cfg.RabbitMQ.Queue))
	}
	defer publisher.Close()

	// 4. --- Rate Limiting (optional) ---
	var limiter *middleware.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, rate limiter will fail open", zap.Error(err))
		}
		limiter = middleware.NewRateLimiter(rdb, cfg.Redis.RequestsPerMin, time.Minute, log)
	}

	// 5. --- Application Setup ---
	market := marketplace.New(st, marketplace.WithLogger(log))
	app := &handlers.Handlers{
		Market:   market,
		Notifier: publisher,
		Log:      log,
	}

	// 6. --- AI Listing Assistant (optional) ---
	if cfg.Gemini.APIKey != "" {
		assistant, err := ai.NewService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, market, log)
		if err != nil {
			return err
		}
		defer assistant.Close()
		app.Assistant = assistant
	}

	// 7. --- Background Workers ---
	if cfg.Auction.CloseInterval > 0 {
		go runAuctionCloser(ctx, market, publisher, cfg.Auction.CloseInterval, log)
	}

	// 8. --- Router & Server ---
	router := routes.SetupRouter(app, routes.Options{
		Tokens:        tokens,
		RateLimiter:   limiter,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Log:           log,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           otelhttp.NewHandler(router, "artisansloom-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting Artisan's Loom API server", zap.String("addr", srv.Addr), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore picks the store implementation named by the config.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case "mysql":
		return database.Open(ctx, cfg.Store.MySQLDSN, log)
	case "firestore":
		return firestore.New(ctx, cfg.Store.FirestoreProject)
	default:
		log.Warn("using the in-memory store, data is lost on restart")
		return memory.New(), nil
	}
}

// runAuctionCloser settles expired auctions every interval until ctx ends.
func runAuctionCloser(ctx context.Context, market *marketplace.Service, publisher notify.Publisher, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("auction closer started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		closed, err := market.CloseExpiredAuctions(ctx)
		if err != nil {
			log.Error("closing expired auctions failed", zap.Error(err))
		}
		for i := range closed {
			e, err := notify.NewEvent(notify.EventAuctionClosed, handlers.AuctionClosedEvent(&closed[i]), market.Now())
			if err == nil {
				err = publisher.Publish(ctx, e)
			}
			if err != nil {
				log.Warn("failed to publish auction.closed", zap.String("auctionPieceId", closed[i].ID), zap.Error(err))
			}
		}
	}
}
