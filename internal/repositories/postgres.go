package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/upliftingvibes/backend/internal/db"
	"github.com/upliftingvibes/backend/internal/models"
)

// PostgresProfileRepository provides PostgreSQL-backed persistence for user
// profiles.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by
// PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

const profileColumns = `id, email, password_hash, display_name, bio, is_artist, connect_account_id, onboarding_complete, created_at, updated_at`

// Create persists a new profile record.
func (r *PostgresProfileRepository) Create(ctx context.Context, profile models.UserProfile) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO user_profiles (id, email, password_hash, display_name, bio, is_artist, connect_account_id, onboarding_complete, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, profile.ID, profile.Email, profile.Password, profile.DisplayName, profile.Bio,
		profile.IsArtist, profile.ConnectAccountID, profile.OnboardingComplete,
		profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert profile: %w", err)
	}

	return nil
}

// FindByID fetches a profile by its identity key.
func (r *PostgresProfileRepository) FindByID(ctx context.Context, id string) (models.UserProfile, error) {
	return r.findBy(ctx, `WHERE id = $1`, id)
}

// FindByEmail fetches a profile by email address.
func (r *PostgresProfileRepository) FindByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	return r.findBy(ctx, `WHERE email = $1`, email)
}

// FindByAccountID fetches the profile owning a connected payment account.
func (r *PostgresProfileRepository) FindByAccountID(ctx context.Context, accountID string) (models.UserProfile, error) {
	if accountID == "" {
		return models.UserProfile{}, ErrNotFound
	}
	return r.findBy(ctx, `WHERE connect_account_id = $1`, accountID)
}

func (r *PostgresProfileRepository) findBy(ctx context.Context, where string, arg any) (models.UserProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles `+where, arg)

	var profile models.UserProfile
	if err := row.Scan(&profile.ID, &profile.Email, &profile.Password, &profile.DisplayName,
		&profile.Bio, &profile.IsArtist, &profile.ConnectAccountID, &profile.OnboardingComplete,
		&profile.CreatedAt, &profile.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserProfile{}, ErrNotFound
		}
		return models.UserProfile{}, fmt.Errorf("select profile: %w", err)
	}

	return profile, nil
}

// AttachConnectAccount records a freshly provisioned payment account and
// promotes the profile to artist status.
func (r *PostgresProfileRepository) AttachConnectAccount(ctx context.Context, profileID, accountID, displayName, bio string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE user_profiles
        SET connect_account_id = $2,
            display_name = $3,
            bio = $4,
            is_artist = TRUE,
            updated_at = NOW()
        WHERE id = $1
    `, profileID, accountID, displayName, bio)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("attach connect account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateDetails modifies the profile's display name and bio.
func (r *PostgresProfileRepository) UpdateDetails(ctx context.Context, profileID, displayName, bio string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE user_profiles
        SET display_name = $2, bio = $3, updated_at = NOW()
        WHERE id = $1
    `, profileID, displayName, bio)
	if err != nil {
		return fmt.Errorf("update profile details: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetOnboardingComplete writes the onboarding flag. Runs in a retryable
// transaction so concurrent webhook deliveries and status polls cannot
// surface transient serialization failures.
func (r *PostgresProfileRepository) SetOnboardingComplete(ctx context.Context, profileID string, complete bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            UPDATE user_profiles
            SET onboarding_complete = $2, updated_at = NOW()
            WHERE id = $1
        `, profileID, complete)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set onboarding complete: %w", err)
	}

	return nil
}

// PostgresTrackRepository provides PostgreSQL-backed persistence for tracks.
type PostgresTrackRepository struct {
	pool db.Pool
}

// NewPostgresTrackRepository constructs a track repository backed by
// PostgreSQL.
func NewPostgresTrackRepository(pool db.Pool) *PostgresTrackRepository {
	return &PostgresTrackRepository{pool: pool}
}

const trackColumns = `id, artist_id, title, description, genre, vibe, price_cents, storage_path, status, asset_status, asset_size, play_count, created_at, updated_at`

// Create stores a new track record.
func (r *PostgresTrackRepository) Create(ctx context.Context, track models.Track) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tracks (id, artist_id, title, description, genre, vibe, price_cents, storage_path, status, asset_status, asset_size, play_count, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `, track.ID, track.ArtistID, track.Title, track.Description, track.Genre, track.Vibe,
		track.PriceCents, track.StoragePath, track.Status, track.AssetStatus, track.AssetSize,
		track.PlayCount, track.CreatedAt, track.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert track: %w", err)
	}

	return nil
}

// FindByID fetches a single track.
func (r *PostgresTrackRepository) FindByID(ctx context.Context, id string) (models.Track, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Track{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = $1`, id)

	track, err := scanTrack(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Track{}, ErrNotFound
		}
		return models.Track{}, fmt.Errorf("select track: %w", err)
	}

	return track, nil
}

// ListByArtist returns an artist's tracks, newest first.
func (r *PostgresTrackRepository) ListByArtist(ctx context.Context, artistID string) ([]models.Track, error) {
	return r.list(ctx, `WHERE artist_id = $1 ORDER BY created_at DESC`, artistID)
}

// ListPublished returns the public discover feed, newest first.
func (r *PostgresTrackRepository) ListPublished(ctx context.Context) ([]models.Track, error) {
	return r.list(ctx, `WHERE status = $1 ORDER BY created_at DESC LIMIT 100`, models.TrackStatusPublished)
}

func (r *PostgresTrackRepository) list(ctx context.Context, where string, args ...any) ([]models.Track, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+trackColumns+` FROM tracks `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}

	return tracks, nil
}

func scanTrack(row pgx.Row) (models.Track, error) {
	var track models.Track
	err := row.Scan(&track.ID, &track.ArtistID, &track.Title, &track.Description, &track.Genre,
		&track.Vibe, &track.PriceCents, &track.StoragePath, &track.Status, &track.AssetStatus,
		&track.AssetSize, &track.PlayCount, &track.CreatedAt, &track.UpdatedAt)
	return track, err
}

// UpdateDetails edits the caller-editable fields of a track. The artist id
// scopes the update to the owner.
func (r *PostgresTrackRepository) UpdateDetails(ctx context.Context, track models.Track) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE tracks
        SET title = $3, description = $4, genre = $5, vibe = $6, price_cents = $7, updated_at = NOW()
        WHERE id = $1 AND artist_id = $2
    `, track.ID, track.ArtistID, track.Title, track.Description, track.Genre, track.Vibe, track.PriceCents)
	if err != nil {
		return fmt.Errorf("update track: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateStatus moves a track to a new lifecycle status. Transitions are
// caller-driven; no ordering is enforced here.
func (r *PostgresTrackRepository) UpdateStatus(ctx context.Context, trackID, artistID, status string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE tracks
        SET status = $3, updated_at = NOW()
        WHERE id = $1 AND artist_id = $2
    `, trackID, artistID, status)
	if err != nil {
		return fmt.Errorf("update track status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a track owned by the artist.
func (r *PostgresTrackRepository) Delete(ctx context.Context, trackID, artistID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM tracks
        WHERE id = $1 AND artist_id = $2
    `, trackID, artistID)
	if err != nil {
		return fmt.Errorf("delete track: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementPlayCount bumps the play counter on a published track.
func (r *PostgresTrackRepository) IncrementPlayCount(ctx context.Context, trackID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE tracks
        SET play_count = play_count + 1
        WHERE id = $1 AND status = $2
    `, trackID, models.TrackStatusPublished)
	if err != nil {
		return fmt.Errorf("increment play count: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAssetReady records a verified upload for the track.
func (r *PostgresTrackRepository) MarkAssetReady(ctx context.Context, trackID string, size int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE tracks
        SET asset_status = $2, asset_size = $3, updated_at = NOW()
        WHERE id = $1
    `, trackID, models.AssetStatusReady, size)
	if err != nil {
		return fmt.Errorf("mark track asset ready: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAssetFailed records a failed upload verification for the track.
func (r *PostgresTrackRepository) MarkAssetFailed(ctx context.Context, trackID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE tracks
        SET asset_status = $2, asset_size = 0, updated_at = NOW()
        WHERE id = $1
    `, trackID, models.AssetStatusFailed)
	if err != nil {
		return fmt.Errorf("mark track asset failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresPayoutRepository provides PostgreSQL-backed persistence for payout
// rows mirrored from the payment processor.
type PostgresPayoutRepository struct {
	pool db.Pool
}

// NewPostgresPayoutRepository constructs a payout repository backed by
// PostgreSQL.
func NewPostgresPayoutRepository(pool db.Pool) *PostgresPayoutRepository {
	return &PostgresPayoutRepository{pool: pool}
}

// Upsert writes a payout keyed by the processor's payout id so redelivered
// webhook events converge on a single row. The write runs in a retryable
// transaction because the processor delivers events at least once and may do
// so concurrently.
func (r *PostgresPayoutRepository) Upsert(ctx context.Context, payout models.Payout) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	paidAt := sql.NullTime{}
	if payout.PaidAt != nil {
		paidAt = sql.NullTime{Valid: true, Time: payout.PaidAt.UTC()}
	}

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO payouts (id, profile_id, account_id, status, amount_cents, paid_at, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
            ON CONFLICT (id)
            DO UPDATE SET status = EXCLUDED.status,
                          amount_cents = EXCLUDED.amount_cents,
                          paid_at = COALESCE(EXCLUDED.paid_at, payouts.paid_at),
                          updated_at = NOW()
        `, payout.ID, payout.ProfileID, payout.AccountID, payout.Status, payout.AmountCents, paidAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert payout %s: %w", payout.ID, err)
	}

	return nil
}

// ListForProfile returns a profile's payouts, newest first.
func (r *PostgresPayoutRepository) ListForProfile(ctx context.Context, profileID string) ([]models.Payout, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, profile_id, account_id, status, amount_cents, paid_at, created_at, updated_at
        FROM payouts
        WHERE profile_id = $1
        ORDER BY created_at DESC
    `, profileID)
	if err != nil {
		return nil, fmt.Errorf("query payouts: %w", err)
	}
	defer rows.Close()

	var payouts []models.Payout
	for rows.Next() {
		var (
			payout models.Payout
			paidAt sql.NullTime
		)
		if err := rows.Scan(&payout.ID, &payout.ProfileID, &payout.AccountID, &payout.Status,
			&payout.AmountCents, &paidAt, &payout.CreatedAt, &payout.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		if paidAt.Valid {
			t := paidAt.Time.UTC()
			payout.PaidAt = &t
		}
		payouts = append(payouts, payout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payouts: %w", err)
	}

	return payouts, nil
}

var _ ProfileRepository = (*PostgresProfileRepository)(nil)
var _ TrackRepository = (*PostgresTrackRepository)(nil)
var _ PayoutRepository = (*PostgresPayoutRepository)(nil)
