package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"betengine/internal/audit"
	"betengine/internal/auth"
	"betengine/internal/auth/resettoken"
	"betengine/internal/mail"
	"betengine/internal/oauth"
	"betengine/internal/platform/config"
	"betengine/internal/platform/httpserver"
	"betengine/internal/platform/logger"
	"betengine/internal/platform/metrics"
	platformredis "betengine/internal/platform/redis"
	"betengine/internal/ratelimit"
	"betengine/internal/session"
	httptransport "betengine/internal/transport/http"
	"betengine/internal/webhook"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	sessions, err := session.NewProtocol(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return err
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient == nil {
		log.Warn("redis not configured; rate limiting fails open, webhooks fail closed")
	} else {
		defer redisClient.Close()
	}

	users, cleanup, err := newUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	resets, err := resettoken.New(cfg.SessionSecret)
	if err != nil {
		// Without a signing key the reset endpoints answer "not configured".
		log.Warn("password reset disabled", "error", err)
		resets = nil
	}
	authSvc, err := auth.NewService(users, resets, auth.WithLogger(log))
	if err != nil {
		return err
	}
	if err := authSvc.SeedTestUser(ctx, cfg.TestEmail, cfg.TestPassword); err != nil {
		return err
	}

	google := oauth.NewGoogleVerifier(cfg.Google.ClientID)
	facebook := oauth.NewFacebookProvider(cfg.Facebook.ClientID, cfg.Facebook.ClientSecret)
	oauthSvc := oauth.NewService(google, facebook,
		oauth.WithFacebookRedirectURL(cfg.Facebook.RedirectURL),
		oauth.WithServiceLogger(log),
	)

	var counterStore ratelimit.CounterStore
	var idemStore webhook.IdempotencyStore
	if redisClient != nil {
		counterStore = ratelimit.NewRedisCounterStore(redisClient.Client)
		idemStore = webhook.NewRedisIdempotencyStore(redisClient.Client)
	}
	limiter := ratelimit.New(counterStore, ratelimit.WithLogger(log), ratelimit.WithMetrics(m))
	rl := ratelimit.NewMiddleware(limiter, log,
		ratelimit.WithDisabled(cfg.RateLimitDisabled),
		ratelimit.WithMiddlewareMetrics(m),
	)

	guard := webhook.NewGuard(cfg.Webhook.Secret, idemStore, cfg.Webhook.TransactionIDField,
		webhook.WithLogger(log),
		webhook.WithHook(logPaymentHook(log)),
	)

	publisher, err := audit.NewPublisher(ctx, splitBrokers(cfg.KafkaBrokers), cfg.AuditTopic, audit.WithLogger(log))
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(authSvc, sessions, mail.NewLogMailer(log), log, m, publisher),
		OAuth:     httptransport.NewOAuthHandler(oauthSvc, sessions, log, m, publisher),
		Webhook:   httptransport.NewWebhookHandler(guard, cfg.Webhook.SignatureHeader, log, m),
		RateLimit: rl.Limit,
		Health: func(ctx context.Context) error {
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting betengine auth service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		publisher.Close(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newUserStore prefers Postgres when configured; the in-memory store keeps
// development and demos dependency-free.
func newUserStore(ctx context.Context, cfg config.Config) (auth.UserStore, func(), error) {
	if cfg.PostgresURL == "" {
		return auth.NewMemoryStore(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return auth.NewPostgresStore(pool), pool.Close, nil
}

// logPaymentHook stands in for the payment settlement pipeline.
func logPaymentHook(log *slog.Logger) webhook.Hook {
	return func(ctx context.Context, payload []byte) error {
		log.InfoContext(ctx, "payment webhook accepted", "bytes", len(payload))
		return nil
	}
}

func splitBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	parts := strings.Split(brokers, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
