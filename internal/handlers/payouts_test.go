package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/upliftingvibes/backend/internal/models"
)

type staticPayoutStore struct {
	payouts map[string][]models.Payout
}

func (s staticPayoutStore) ListForProfile(_ context.Context, profileID string) ([]models.Payout, error) {
	return s.payouts[profileID], nil
}

func TestPayoutHandlerList(t *testing.T) {
	manager := newTestSessionManager()
	token := issueToken(t, manager, "artist-1")

	paidAt := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	store := staticPayoutStore{payouts: map[string][]models.Payout{
		"artist-1": {
			{ID: "po_2", ProfileID: "artist-1", Status: "pending", AmountCents: 1200},
			{ID: "po_1", ProfileID: "artist-1", Status: "paid", AmountCents: 4950, PaidAt: &paidAt},
		},
	}}

	handler := PayoutHandler{Payouts: store, Tracks: newInMemoryTrackStore(), Sessions: manager}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payouts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp []payoutResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp) != 2 {
		t.Fatalf("expected 2 payouts, got %d", len(resp))
	}
	if resp[0].ID != "po_2" || resp[0].PaidAt != nil {
		t.Fatalf("unexpected first payout %+v", resp[0])
	}
	if resp[1].Status != "paid" || resp[1].AmountCents != 4950 {
		t.Fatalf("unexpected second payout %+v", resp[1])
	}
	if resp[1].PaidAt == nil || *resp[1].PaidAt != "2026-02-01T09:00:00Z" {
		t.Fatalf("unexpected paidAt %v", resp[1].PaidAt)
	}
}

func TestPayoutHandlerListRequiresAuth(t *testing.T) {
	handler := PayoutHandler{
		Payouts:  staticPayoutStore{},
		Tracks:   newInMemoryTrackStore(),
		Sessions: newTestSessionManager(),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payouts", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestPayoutHandlerEarnings(t *testing.T) {
	manager := newTestSessionManager()
	token := issueToken(t, manager, "artist-1")

	tracks := newInMemoryTrackStore()
	tracks.tracks["t1"] = models.Track{
		ID:         "t1",
		ArtistID:   "artist-1",
		Title:      "Sunrise",
		PriceCents: 500,
		Status:     models.TrackStatusPublished,
		PlayCount:  42,
	}
	tracks.tracks["t2"] = models.Track{
		ID:         "t2",
		ArtistID:   "artist-1",
		Title:      "Unfinished",
		PriceCents: 300,
		Status:     models.TrackStatusDraft,
	}

	handler := PayoutHandler{
		Payouts:  staticPayoutStore{},
		Tracks:   tracks,
		Sessions: manager,
		FeeBps:   100,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/earnings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.Earnings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp earningsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.FeeBps != 100 {
		t.Fatalf("expected fee bps 100, got %d", resp.FeeBps)
	}
	if resp.ArtistPercent != 99 {
		t.Fatalf("expected artist percent 99, got %v", resp.ArtistPercent)
	}
	if len(resp.Tracks) != 1 {
		t.Fatalf("expected only the published track, got %+v", resp.Tracks)
	}

	earned := resp.Tracks[0]
	if earned.TrackID != "t1" || earned.PriceCents != 500 {
		t.Fatalf("unexpected track earnings %+v", earned)
	}
	if earned.PlatformFeeCents != 5 || earned.ArtistCents != 495 {
		t.Fatalf("unexpected split %+v", earned)
	}
	if earned.PlayCount != 42 {
		t.Fatalf("expected play count to pass through, got %d", earned.PlayCount)
	}
}
