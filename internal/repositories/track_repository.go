package repositories

import (
	"context"

	"github.com/upliftingvibes/backend/internal/models"
)

// TrackRepository exposes data access for uploaded tracks.
type TrackRepository interface {
	Create(ctx context.Context, track models.Track) error
	FindByID(ctx context.Context, id string) (models.Track, error)
	ListByArtist(ctx context.Context, artistID string) ([]models.Track, error)
	ListPublished(ctx context.Context) ([]models.Track, error)
	UpdateDetails(ctx context.Context, track models.Track) error
	UpdateStatus(ctx context.Context, trackID, artistID, status string) error
	Delete(ctx context.Context, trackID, artistID string) error
	IncrementPlayCount(ctx context.Context, trackID string) error
	MarkAssetReady(ctx context.Context, trackID string, size int64) error
	MarkAssetFailed(ctx context.Context, trackID string) error
}

// PayoutRepository exposes data access for processor-driven payout rows.
type PayoutRepository interface {
	Upsert(ctx context.Context, payout models.Payout) error
	ListForProfile(ctx context.Context, profileID string) ([]models.Payout, error)
}
