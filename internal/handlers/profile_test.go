package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/upliftingvibes/backend/internal/models"
)

func TestProfileHandlerGet(t *testing.T) {
	store := newInMemoryProfileStore()
	store.profiles["user-1"] = models.UserProfile{
		ID:          "user-1",
		Email:       "artist@example.com",
		DisplayName: "DJ Test",
		Bio:         "making waves",
		IsArtist:    true,
	}

	manager := newTestSessionManager()
	token := issueToken(t, manager, "user-1")

	handler := ProfileHandler{Profiles: store, Sessions: manager}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DisplayName != "DJ Test" || resp.Bio != "making waves" || !resp.IsArtist {
		t.Fatalf("unexpected profile %+v", resp)
	}
}

func TestProfileHandlerUpdate(t *testing.T) {
	store := newInMemoryProfileStore()
	store.profiles["user-1"] = models.UserProfile{ID: "user-1", Email: "artist@example.com", DisplayName: "Old"}

	manager := newTestSessionManager()
	token := issueToken(t, manager, "user-1")

	handler := ProfileHandler{Profiles: store, Sessions: manager}

	newName := "New Name"
	newBio := "fresh bio"
	body, _ := json.Marshal(profileUpdateRequest{DisplayName: &newName, Bio: &newBio})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/profile", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored := store.profiles["user-1"]
	if stored.DisplayName != "New Name" || stored.Bio != "fresh bio" {
		t.Fatalf("expected update to persist, got %+v", stored)
	}
}

func TestProfileHandlerRequiresAuth(t *testing.T) {
	handler := ProfileHandler{Profiles: newInMemoryProfileStore(), Sessions: newTestSessionManager()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}
