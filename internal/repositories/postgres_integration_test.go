package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upliftingvibes/backend/internal/auth"
	"github.com/upliftingvibes/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresProfileRepository_CreateFindAndAttach(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresProfileRepository(testPool)

	profile := models.UserProfile{
		ID:        uuid.NewString(),
		Email:     "luna@example.com",
		Password:  "secret-hash",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, profile); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	dup := profile
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, profile.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.ID != profile.ID || fetched.Password != profile.Password {
		t.Fatalf("unexpected profile fetched: %+v", fetched)
	}
	if fetched.IsArtist || fetched.ConnectAccountID != "" {
		t.Fatalf("expected a plain listener profile, got %+v", fetched)
	}

	if err := repo.AttachConnectAccount(ctx, profile.ID, "acct_123", "Luna Waves", "ambient"); err != nil {
		t.Fatalf("attach connect account: %v", err)
	}

	fetched, err = repo.FindByAccountID(ctx, "acct_123")
	if err != nil {
		t.Fatalf("find by account id: %v", err)
	}
	if fetched.ID != profile.ID || !fetched.IsArtist || fetched.DisplayName != "Luna Waves" {
		t.Fatalf("expected artist profile after attach, got %+v", fetched)
	}

	if err := repo.SetOnboardingComplete(ctx, profile.ID, true); err != nil {
		t.Fatalf("set onboarding complete: %v", err)
	}

	fetched, err = repo.FindByID(ctx, profile.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if !fetched.OnboardingComplete {
		t.Fatal("expected onboarding flag to persist")
	}

	if err := repo.UpdateDetails(ctx, uuid.NewString(), "Nobody", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing profile, got %v", err)
	}
}

func TestPostgresTrackRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	profileRepo := NewPostgresProfileRepository(testPool)
	artist := createTestProfile(t, profileRepo, "artist@example.com")
	other := createTestProfile(t, profileRepo, "other@example.com")

	repo := NewPostgresTrackRepository(testPool)

	track := models.Track{
		ID:          uuid.NewString(),
		ArtistID:    artist.ID,
		Title:       "First Light",
		Genre:       "ambient",
		Vibe:        "uplifting",
		PriceCents:  499,
		StoragePath: "tracks/" + artist.ID + "/1_first_light.mp3",
		Status:      models.TrackStatusDraft,
		AssetStatus: models.AssetStatusPending,
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
		UpdatedAt:   time.Now().UTC().Add(-time.Hour),
	}
	if err := repo.Create(ctx, track); err != nil {
		t.Fatalf("create track: %v", err)
	}

	second := track
	second.ID = uuid.NewString()
	second.Title = "Slow Tide"
	second.CreatedAt = time.Now().UTC()
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("create second track: %v", err)
	}

	own, err := repo.ListByArtist(ctx, artist.ID)
	if err != nil {
		t.Fatalf("list by artist: %v", err)
	}
	if len(own) != 2 || own[0].ID != second.ID {
		t.Fatalf("expected newest-first listing of 2 tracks, got %+v", own)
	}

	published, err := repo.ListPublished(ctx)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(published) != 0 {
		t.Fatalf("expected no published tracks yet, got %d", len(published))
	}

	// Plays only count once the track is published.
	if err := repo.IncrementPlayCount(ctx, track.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound playing a draft, got %v", err)
	}

	if err := repo.UpdateStatus(ctx, track.ID, artist.ID, models.TrackStatusPublished); err != nil {
		t.Fatalf("publish track: %v", err)
	}
	if err := repo.IncrementPlayCount(ctx, track.ID); err != nil {
		t.Fatalf("increment play count: %v", err)
	}

	if err := repo.MarkAssetReady(ctx, track.ID, 2048); err != nil {
		t.Fatalf("mark asset ready: %v", err)
	}

	fetched, err := repo.FindByID(ctx, track.ID)
	if err != nil {
		t.Fatalf("find track: %v", err)
	}
	if fetched.Status != models.TrackStatusPublished || fetched.PlayCount != 1 {
		t.Fatalf("unexpected track state %+v", fetched)
	}
	if fetched.AssetStatus != models.AssetStatusReady || fetched.AssetSize != 2048 {
		t.Fatalf("expected ready asset of 2048 bytes, got %+v", fetched)
	}

	fetched.Title = "First Light (Remaster)"
	fetched.PriceCents = 599
	if err := repo.UpdateDetails(ctx, fetched); err != nil {
		t.Fatalf("update details: %v", err)
	}

	// Writes scoped to the owner: another artist cannot touch the track.
	if err := repo.UpdateStatus(ctx, track.ID, other.ID, models.TrackStatusDraft); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign status update, got %v", err)
	}
	if err := repo.Delete(ctx, track.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}

	if err := repo.Delete(ctx, track.ID, artist.ID); err != nil {
		t.Fatalf("delete track: %v", err)
	}
	if _, err := repo.FindByID(ctx, track.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgresPayoutRepository_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	profileRepo := NewPostgresProfileRepository(testPool)
	artist := createTestProfile(t, profileRepo, "artist@example.com")

	repo := NewPostgresPayoutRepository(testPool)

	paidAt := time.Now().UTC().Truncate(time.Millisecond)
	payout := models.Payout{
		ID:          "po_123",
		ProfileID:   artist.ID,
		AccountID:   "acct_123",
		Status:      models.PayoutStatusPaid,
		AmountCents: 4950,
		PaidAt:      &paidAt,
	}

	// Redelivered events converge on a single row. The second delivery
	// carries no paid_at, which must not erase the recorded one.
	if err := repo.Upsert(ctx, payout); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	redelivery := payout
	redelivery.PaidAt = nil
	if err := repo.Upsert(ctx, redelivery); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	older := models.Payout{
		ID:          "po_045",
		ProfileID:   artist.ID,
		AccountID:   "acct_123",
		Status:      models.PayoutStatusPending,
		AmountCents: 1200,
	}
	if err := repo.Upsert(ctx, older); err != nil {
		t.Fatalf("upsert pending payout: %v", err)
	}

	payouts, err := repo.ListForProfile(ctx, artist.ID)
	if err != nil {
		t.Fatalf("list payouts: %v", err)
	}
	if len(payouts) != 2 {
		t.Fatalf("expected 2 payout rows, got %d", len(payouts))
	}

	var paid models.Payout
	for _, p := range payouts {
		if p.ID == "po_123" {
			paid = p
		}
	}
	if paid.ID == "" {
		t.Fatalf("expected po_123 in listing, got %+v", payouts)
	}
	if paid.Status != models.PayoutStatusPaid || paid.AmountCents != 4950 {
		t.Fatalf("unexpected payout state %+v", paid)
	}
	if paid.PaidAt == nil || !timesClose(*paid.PaidAt, paidAt, time.Millisecond) {
		t.Fatalf("expected paid_at to survive redelivery, got %v", paid.PaidAt)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	profileRepo := NewPostgresProfileRepository(testPool)
	owner := createTestProfile(t, profileRepo, "owner@example.com")

	store := NewPostgresSessionStore(testPool)
	session := auth.Session{
		AccessToken:      uuid.NewString(),
		AccessExpiresAt:  time.Now().UTC().Add(15 * time.Minute),
		RefreshToken:     uuid.NewString(),
		RefreshExpiresAt: time.Now().UTC().Add(24 * time.Hour),
		UserID:           owner.ID,
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.FindByRefreshToken(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find by refresh token: %v", err)
	}
	if loaded.UserID != owner.ID || loaded.AccessToken != session.AccessToken {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	byAccess, err := store.FindByAccessToken(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("find by access token: %v", err)
	}
	if byAccess.RefreshToken != session.RefreshToken {
		t.Fatalf("unexpected session by access token: %+v", byAccess)
	}

	rotated := session
	rotated.AccessToken = uuid.NewString()
	rotated.AccessExpiresAt = session.AccessExpiresAt.Add(15 * time.Minute)
	if err := store.Save(ctx, rotated); err != nil {
		t.Fatalf("rotate session: %v", err)
	}

	loaded, err = store.FindByRefreshToken(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find rotated session: %v", err)
	}
	if loaded.AccessToken != rotated.AccessToken {
		t.Fatalf("expected rotated access token, got %+v", loaded)
	}
	if _, err := store.FindByAccessToken(ctx, session.AccessToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected old access token to be gone, got %v", err)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.FindByRefreshToken(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE payouts, tracks, sessions, user_profiles CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestProfile(t *testing.T, repo *PostgresProfileRepository, email string) models.UserProfile {
	t.Helper()
	profile := models.UserProfile{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), profile); err != nil {
		t.Fatalf("create test profile: %v", err)
	}
	return profile
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
