package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/upliftingvibes/backend/internal/logging"
	"github.com/upliftingvibes/backend/internal/models"
	"github.com/upliftingvibes/backend/internal/repositories"
)

// TrackHandler provides track upload, management, and discovery endpoints.
type TrackHandler struct {
	Tracks   TrackStore
	Sessions SessionManager
	Verifier UploadVerifier
	NowFunc  func() time.Time
}

// Collection handles /api/v1/tracks: POST creates a track, GET lists the
// caller's own tracks.
func (h TrackHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.listOwn(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h TrackHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, err := authenticateRequest(ctx, h.Sessions, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req trackCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid track payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.StoragePath = strings.TrimSpace(req.StoragePath)
	if req.Title == "" || req.StoragePath == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title and storagePath are required"})
		return
	}
	if req.PriceCents < 0 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "price must not be negative"})
		return
	}

	status := req.Status
	if status == "" {
		status = models.TrackStatusDraft
	}
	if !models.ValidTrackStatus(status) {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	now := h.now()
	track := models.Track{
		ID:          uuid.NewString(),
		ArtistID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Vibe:        req.Vibe,
		PriceCents:  req.PriceCents,
		StoragePath: req.StoragePath,
		Status:      status,
		AssetStatus: models.AssetStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Tracks.Create(ctx, track); err != nil {
		logger.Error("create track failed", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.Verifier != nil {
		if err := h.Verifier.Enqueue(ctx, track.ID, track.StoragePath); err != nil {
			// Verification will not run; the track stays pending until the
			// artist re-uploads or support intervenes.
			logger.Error("enqueue upload verification failed", "error", err, "trackId", track.ID)
		}
	}

	respondJSON(ctx, w, http.StatusCreated, toTrackResponse(track))
}

func (h TrackHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, err := authenticateRequest(ctx, h.Sessions, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	tracks, err := h.Tracks.ListByArtist(ctx, userID)
	if err != nil {
		logger.Error("list tracks failed", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, toTrackResponses(tracks))
}

// Discover handles GET /api/v1/tracks/discover: the public feed of published
// tracks.
func (h TrackHandler) Discover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	tracks, err := h.Tracks.ListPublished(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list published tracks failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, toTrackResponses(tracks))
}

// Item handles /api/v1/tracks/{id}: GET fetches, PATCH edits, DELETE removes.
func (h TrackHandler) Item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h TrackHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	track, err := h.Tracks.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "track not found"})
			return
		}
		logging.FromContext(ctx).Error("fetch track failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Unpublished tracks are visible to their owner only.
	if track.Status != models.TrackStatusPublished {
		userID, err := authenticateRequest(ctx, h.Sessions, r)
		if err != nil || userID != track.ArtistID {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "track not found"})
			return
		}
	}

	respondJSON(ctx, w, http.StatusOK, toTrackResponse(track))
}

func (h TrackHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, err := authenticateRequest(ctx, h.Sessions, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	trackID := r.PathValue("id")

	track, err := h.Tracks.FindByID(ctx, trackID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "track not found"})
			return
		}
		logger.Error("fetch track failed", "error", err, "trackId", trackID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if track.ArtistID != userID {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "track not found"})
		return
	}

	var req trackUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid track update payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title must not be empty"})
			return
		}
		track.Title = title
	}
	if req.Description != nil {
		track.Description = *req.Description
	}
	if req.Genre != nil {
		track.Genre = *req.Genre
	}
	if req.Vibe != nil {
		track.Vibe = *req.Vibe
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "price must not be negative"})
			return
		}
		track.PriceCents = *req.PriceCents
	}

	if err := h.Tracks.UpdateDetails(ctx, track); err != nil {
		logger.Error("update track failed", "error", err, "trackId", trackID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, toTrackResponse(track))
}

func (h TrackHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, err := authenticateRequest(ctx, h.Sessions, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	trackID := r.PathValue("id")

	if err := h.Tracks.Delete(ctx, trackID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "track not found"})
			return
		}
		logger.Error("delete track failed", "error", err, "trackId", trackID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UpdateStatus handles PATCH /api/v1/tracks/{id}/status. Transitions are
// caller-driven: any status may follow any other.
func (h TrackHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, err := authenticateRequest(ctx, h.Sessions, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	trackID := r.PathValue("id")

	var req trackStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid status payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !models.ValidTrackStatus(req.Status) {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	if err := h.Tracks.UpdateStatus(ctx, trackID, userID, req.Status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "track not found"})
			return
		}
		logger.Error("update track status failed", "error", err, "trackId", trackID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": req.Status})
}

// Play handles POST /api/v1/tracks/{id}/play. Listening is public; only
// published tracks count plays.
func (h TrackHandler) Play(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	trackID := r.PathValue("id")

	if err := h.Tracks.IncrementPlayCount(ctx, trackID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "track not found"})
			return
		}
		logging.FromContext(ctx).Error("increment play count failed", "error", err, "trackId", trackID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "counted"})
}

type trackCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	Vibe        string `json:"vibe"`
	PriceCents  int64  `json:"priceCents"`
	StoragePath string `json:"storagePath"`
	Status      string `json:"status"`
}

type trackUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Genre       *string `json:"genre"`
	Vibe        *string `json:"vibe"`
	PriceCents  *int64  `json:"priceCents"`
}

type trackStatusRequest struct {
	Status string `json:"status"`
}

type trackResponse struct {
	ID          string    `json:"id"`
	ArtistID    string    `json:"artistId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Genre       string    `json:"genre"`
	Vibe        string    `json:"vibe"`
	PriceCents  int64     `json:"priceCents"`
	StoragePath string    `json:"storagePath"`
	Status      string    `json:"status"`
	AssetStatus string    `json:"assetStatus"`
	PlayCount   int64     `json:"playCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTrackResponse(track models.Track) trackResponse {
	return trackResponse{
		ID:          track.ID,
		ArtistID:    track.ArtistID,
		Title:       track.Title,
		Description: track.Description,
		Genre:       track.Genre,
		Vibe:        track.Vibe,
		PriceCents:  track.PriceCents,
		StoragePath: track.StoragePath,
		Status:      track.Status,
		AssetStatus: track.AssetStatus,
		PlayCount:   track.PlayCount,
		CreatedAt:   track.CreatedAt,
	}
}

func toTrackResponses(tracks []models.Track) []trackResponse {
	out := make([]trackResponse, 0, len(tracks))
	for _, track := range tracks {
		out = append(out, toTrackResponse(track))
	}
	return out
}

func (h TrackHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
