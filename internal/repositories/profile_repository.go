package repositories

import (
	"context"

	"github.com/upliftingvibes/backend/internal/models"
)

// ProfileRepository defines the data access contract for user profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile models.UserProfile) error
	FindByID(ctx context.Context, id string) (models.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (models.UserProfile, error)
	FindByAccountID(ctx context.Context, accountID string) (models.UserProfile, error)
	AttachConnectAccount(ctx context.Context, profileID, accountID, displayName, bio string) error
	UpdateDetails(ctx context.Context, profileID, displayName, bio string) error
	SetOnboardingComplete(ctx context.Context, profileID string, complete bool) error
}
