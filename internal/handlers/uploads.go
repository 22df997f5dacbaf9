package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/upliftingvibes/backend/internal/logging"
	"github.com/upliftingvibes/backend/internal/uploads"
)

// UploadHandler issues short-lived signed upload URLs so audio goes straight
// from the browser to object storage without the storage credentials ever
// leaving the server.
type UploadHandler struct {
	Sessions SessionManager
	Signer   UploadSigner
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Token handles POST /api/v1/uploads/token.
func (h UploadHandler) Token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "upload") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	userID, err := authenticateRequest(ctx, h.Sessions, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req uploadTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid upload token payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Filename = strings.TrimSpace(req.Filename)
	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.Filename == "" || req.ContentType == "" {
		logger.Warn("upload token missing fields", "userId", userID)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "missing filename or contentType"})
		return
	}

	storagePath := uploads.BuildPath(userID, req.Filename, h.now())

	signed, err := h.Signer.SignUpload(ctx, storagePath, req.ContentType)
	if err != nil {
		logger.Error("sign upload failed", "error", err, "storagePath", storagePath)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, uploadTokenResponse{
		UploadURL:   signed.URL,
		StoragePath: storagePath,
		Token:       signed.Token,
	})
}

type uploadTokenRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type uploadTokenResponse struct {
	UploadURL   string `json:"uploadUrl"`
	StoragePath string `json:"storagePath"`
	Token       string `json:"token"`
}

func (h UploadHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
