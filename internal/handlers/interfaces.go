package handlers

import (
	"context"

	"github.com/upliftingvibes/backend/internal/models"
	"github.com/upliftingvibes/backend/internal/payments"
	"github.com/upliftingvibes/backend/internal/storage"
)

// ProfileStore captures the persistence operations required by the auth,
// profile, and connect handlers.
type ProfileStore interface {
	Create(ctx context.Context, profile models.UserProfile) error
	FindByID(ctx context.Context, id string) (models.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (models.UserProfile, error)
	AttachConnectAccount(ctx context.Context, profileID, accountID, displayName, bio string) error
	UpdateDetails(ctx context.Context, profileID, displayName, bio string) error
	SetOnboardingComplete(ctx context.Context, profileID string, complete bool) error
}

// SessionManager issues, refreshes, and resolves authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// TrackStore captures persistence for track management workflows.
type TrackStore interface {
	Create(ctx context.Context, track models.Track) error
	FindByID(ctx context.Context, id string) (models.Track, error)
	ListByArtist(ctx context.Context, artistID string) ([]models.Track, error)
	ListPublished(ctx context.Context) ([]models.Track, error)
	UpdateDetails(ctx context.Context, track models.Track) error
	UpdateStatus(ctx context.Context, trackID, artistID, status string) error
	Delete(ctx context.Context, trackID, artistID string) error
	IncrementPlayCount(ctx context.Context, trackID string) error
}

// PayoutStore lists processor-driven payout rows for a profile.
type PayoutStore interface {
	ListForProfile(ctx context.Context, profileID string) ([]models.Payout, error)
}

// UploadSigner issues signed, single-use upload URLs scoped to a storage key.
type UploadSigner interface {
	SignUpload(ctx context.Context, key, contentType string) (storage.SignedUpload, error)
}

// UploadVerifier schedules background verification of a completed upload.
type UploadVerifier interface {
	Enqueue(ctx context.Context, trackID, storagePath string) error
}

// EventProcessor applies a verified webhook event to the datastore.
type EventProcessor interface {
	Process(ctx context.Context, event payments.Event) error
}

// PaymentsClient is re-exported here so Dependencies reads uniformly.
type PaymentsClient = payments.Client

// EventVerifier authenticates raw webhook payloads.
type EventVerifier = payments.EventVerifier
