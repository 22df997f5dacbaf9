package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/upliftingvibes/backend/internal/logging"
	"github.com/upliftingvibes/backend/internal/repositories"
)

// ProfileHandler serves the authenticated caller's profile.
type ProfileHandler struct {
	Profiles ProfileStore
	Sessions SessionManager
}

// Handle routes /api/v1/profile: GET fetches, PATCH edits.
func (h ProfileHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPatch:
		h.update(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := authenticateRequest(ctx, h.Sessions, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	profile, err := h.Profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		logging.FromContext(ctx).Error("fetch profile failed", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{
		ID:                 profile.ID,
		Email:              profile.Email,
		DisplayName:        profile.DisplayName,
		Bio:                profile.Bio,
		IsArtist:           profile.IsArtist,
		OnboardingComplete: profile.OnboardingComplete,
	})
}

func (h ProfileHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, err := authenticateRequest(ctx, h.Sessions, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	profile, err := h.Profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		logger.Error("fetch profile failed", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "displayName must not be empty"})
			return
		}
		profile.DisplayName = name
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}

	if err := h.Profiles.UpdateDetails(ctx, profile.ID, profile.DisplayName, profile.Bio); err != nil {
		logger.Error("update profile failed", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{
		ID:                 profile.ID,
		Email:              profile.Email,
		DisplayName:        profile.DisplayName,
		Bio:                profile.Bio,
		IsArtist:           profile.IsArtist,
		OnboardingComplete: profile.OnboardingComplete,
	})
}

type profileUpdateRequest struct {
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
}

type profileResponse struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	DisplayName        string `json:"displayName"`
	Bio                string `json:"bio"`
	IsArtist           bool   `json:"isArtist"`
	OnboardingComplete bool   `json:"onboardingComplete"`
}
