package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/upliftingvibes/backend/internal/logging"
	"github.com/upliftingvibes/backend/internal/models"
	"github.com/upliftingvibes/backend/internal/repositories"
	"github.com/upliftingvibes/backend/internal/revenue"
)

// PayoutHandler exposes an artist's payout history and projected earnings.
type PayoutHandler struct {
	Payouts  PayoutStore
	Tracks   TrackStore
	Sessions SessionManager
	FeeBps   int
}

// List handles GET /api/v1/payouts, newest first.
func (h PayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	userID, err := authenticateRequest(ctx, h.Sessions, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	payouts, err := h.Payouts.ListForProfile(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list payouts failed", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	out := make([]payoutResponse, 0, len(payouts))
	for _, payout := range payouts {
		resp := payoutResponse{
			ID:          payout.ID,
			Status:      payout.Status,
			AmountCents: payout.AmountCents,
		}
		if payout.PaidAt != nil {
			ts := payout.PaidAt.Format(time.RFC3339)
			resp.PaidAt = &ts
		}
		out = append(out, resp)
	}

	respondJSON(ctx, w, http.StatusOK, out)
}

// Earnings handles GET /api/v1/earnings: the per-track revenue split for the
// caller's published catalog.
func (h PayoutHandler) Earnings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	userID, err := authenticateRequest(ctx, h.Sessions, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	tracks, err := h.Tracks.ListByArtist(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusOK, earningsResponse{Tracks: []trackEarnings{}})
			return
		}
		logging.FromContext(ctx).Error("list tracks failed", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	feeBps := h.FeeBps
	if feeBps <= 0 {
		feeBps = revenue.DefaultFeeBps
	}

	resp := earningsResponse{
		FeeBps:        feeBps,
		ArtistPercent: revenue.ArtistPercent(feeBps),
		Tracks:        make([]trackEarnings, 0, len(tracks)),
	}
	for _, track := range tracks {
		if track.Status != models.TrackStatusPublished {
			continue
		}
		fee, artist := revenue.Split(track.PriceCents, feeBps)
		resp.Tracks = append(resp.Tracks, trackEarnings{
			TrackID:          track.ID,
			Title:            track.Title,
			PriceCents:       track.PriceCents,
			PlatformFeeCents: fee,
			ArtistCents:      artist,
			PlayCount:        track.PlayCount,
		})
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}

type payoutResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	AmountCents int64   `json:"amountCents"`
	PaidAt      *string `json:"paidAt,omitempty"`
}

type earningsResponse struct {
	FeeBps        int             `json:"feeBps"`
	ArtistPercent float64         `json:"artistPercent"`
	Tracks        []trackEarnings `json:"tracks"`
}

type trackEarnings struct {
	TrackID          string `json:"trackId"`
	Title            string `json:"title"`
	PriceCents       int64  `json:"priceCents"`
	PlatformFeeCents int64  `json:"platformFeeCents"`
	ArtistCents      int64  `json:"artistCents"`
	PlayCount        int64  `json:"playCount"`
}
