package models

import "time"

// UserProfile represents a listener or artist account. The ID doubles as the
// authentication subject for issued sessions.
type UserProfile struct {
	ID                 string
	Email              string
	Password           string
	DisplayName        string
	Bio                string
	IsArtist           bool
	ConnectAccountID   string
	OnboardingComplete bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Track is an uploaded piece of music owned by an artist.
type Track struct {
	ID          string
	ArtistID    string
	Title       string
	Description string
	Genre       string
	Vibe        string
	PriceCents  int64
	StoragePath string
	Status      string
	AssetStatus string
	AssetSize   int64
	PlayCount   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Track lifecycle statuses. Transitions are caller-driven; any status may
// follow any other.
const (
	TrackStatusDraft      = "draft"
	TrackStatusPreRelease = "pre-release"
	TrackStatusPublished  = "published"
)

// Upload verification states for the track's backing audio object.
const (
	AssetStatusPending = "pending"
	AssetStatusReady   = "ready"
	AssetStatusFailed  = "failed"
)

// Payout mirrors a payment-processor payout to a connected account. Rows are
// created and mutated only by the webhook receiver, keyed on the processor's
// payout id.
type Payout struct {
	ID          string
	ProfileID   string
	AccountID   string
	Status      string
	AmountCents int64
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	PayoutStatusPending = "pending"
	PayoutStatusPaid    = "paid"
	PayoutStatusFailed  = "failed"
)

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// ValidTrackStatus reports whether the provided status is a known lifecycle
// state.
func ValidTrackStatus(status string) bool {
	switch status {
	case TrackStatusDraft, TrackStatusPreRelease, TrackStatusPublished:
		return true
	}
	return false
}
