package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/upliftingvibes/backend/internal/auth"
	"github.com/upliftingvibes/backend/internal/billing"
	"github.com/upliftingvibes/backend/internal/config"
	"github.com/upliftingvibes/backend/internal/db"
	"github.com/upliftingvibes/backend/internal/handlers"
	"github.com/upliftingvibes/backend/internal/middleware"
	"github.com/upliftingvibes/backend/internal/payments"
	"github.com/upliftingvibes/backend/internal/repositories"
	"github.com/upliftingvibes/backend/internal/storage"
	"github.com/upliftingvibes/backend/internal/uploads"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup stops background workers and must be called
// during shutdown.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	profiles := repositories.NewPostgresProfileRepository(pool)
	tracks := repositories.NewPostgresTrackRepository(pool)
	payouts := repositories.NewPostgresPayoutRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
	}

	verifier := uploads.NewVerifier(store, tracks, uploads.VerifierConfig{
		QueueSize: cfg.UploadQueueSize,
		Workers:   cfg.UploadWorkers,
	}, slog.Default())

	deps := handlers.Dependencies{
		Profiles:      profiles,
		Sessions:      auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore),
		Tracks:        tracks,
		Payouts:       payouts,
		Payments:      payments.NewStripeClient(cfg.Stripe.SecretKey),
		EventVerifier: payments.NewStripeEventVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.WebhookTolerance),
		Events:        &billing.Processor{Profiles: profiles, Payouts: payouts},
		Uploads:       store,
		Verifier:      verifier,
		AuthLimiter: middleware.NewIPRateLimiter(
			cfg.AuthRateLimit.Requests,
			cfg.AuthRateLimit.Window,
			cfg.AuthRateLimit.Burst,
			cfg.AuthRateLimit.TTL,
		),
		UploadLimiter: middleware.NewIPRateLimiter(
			cfg.UploadRateLimit.Requests,
			cfg.UploadRateLimit.Window,
			cfg.UploadRateLimit.Burst,
			cfg.UploadRateLimit.TTL,
		),
		SiteBaseURL:    cfg.SiteBaseURL,
		PlatformFeeBps: cfg.PlatformFeeBps,
	}

	cleanup := func(shutdownCtx context.Context) error {
		return verifier.Shutdown(shutdownCtx)
	}

	return deps, cleanup, nil
}
