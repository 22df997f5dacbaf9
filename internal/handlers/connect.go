package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/upliftingvibes/backend/internal/logging"
	"github.com/upliftingvibes/backend/internal/payments"
)

// ConnectHandler provisions payment accounts for artists and reports their
// onboarding state. These are the only user-facing paths that touch the
// processor's private API secret.
type ConnectHandler struct {
	Profiles ProfileStore
	Sessions SessionManager
	Payments PaymentsClient

	// SiteBaseURL is the public origin the processor redirects back to
	// after onboarding.
	SiteBaseURL string
}

// CreateAccount handles POST /api/v1/connect/account. Creating the external
// account happens at most once per profile; repeat calls only mint a fresh
// onboarding link.
func (h ConnectHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create account payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.ArtistName = strings.TrimSpace(req.ArtistName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.ArtistName == "" || req.Email == "" {
		logger.Warn("create account missing fields", "userId", userID)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "missing required fields"})
		return
	}

	profile, err := h.Profiles.FindByID(ctx, userID)
	if err != nil {
		logger.Error("create account profile lookup failed", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	accountID := profile.ConnectAccountID
	if accountID == "" {
		account, err := h.Payments.CreateAccount(ctx, payments.NewAccountParams{
			Email:      req.Email,
			UserID:     userID,
			ArtistName: req.ArtistName,
		})
		if err != nil {
			logger.Error("create connect account failed", "error", err, "userId", userID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		accountID = account.ID

		if err := h.Profiles.AttachConnectAccount(ctx, userID, accountID, req.ArtistName, req.Bio); err != nil {
			logger.Error("persist connect account failed", "error", err, "userId", userID, "accountId", accountID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		logger.Info("connect account provisioned", "userId", userID, "accountId", accountID)
	}

	base := strings.TrimSuffix(h.SiteBaseURL, "/")
	url, err := h.Payments.CreateOnboardingLink(ctx, payments.AccountLinkParams{
		AccountID:  accountID,
		RefreshURL: base + "/artists/onboarding?refresh=true",
		ReturnURL:  base + "/artists/onboarding?success=true",
	})
	if err != nil {
		logger.Error("create onboarding link failed", "error", err, "accountId", accountID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, createAccountResponse{URL: url, AccountID: accountID})
}

// Status handles GET /api/v1/connect/status. The stored onboarding flag is a
// one-way latch on this path: it is promoted false to true but never cleared
// here; regressions are corrected by the webhook receiver.
func (h ConnectHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
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

	profile, err := h.Profiles.FindByID(ctx, userID)
	if err != nil {
		logger.Error("status profile lookup failed", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if profile.ConnectAccountID == "" {
		respondJSON(ctx, w, http.StatusOK, statusResponse{})
		return
	}

	account, err := h.Payments.GetAccount(ctx, profile.ConnectAccountID)
	if err != nil {
		logger.Error("retrieve connect account failed", "error", err, "accountId", profile.ConnectAccountID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	complete := account.OnboardingComplete()
	if complete && !profile.OnboardingComplete {
		if err := h.Profiles.SetOnboardingComplete(ctx, userID, true); err != nil {
			logger.Error("latch onboarding flag failed", "error", err, "userId", userID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}

	respondJSON(ctx, w, http.StatusOK, statusResponse{
		OnboardingComplete: complete,
		DetailsSubmitted:   account.DetailsSubmitted,
		ChargesEnabled:     account.ChargesEnabled,
		PayoutsEnabled:     account.PayoutsEnabled,
		AccountID:          account.ID,
	})
}

type createAccountRequest struct {
	ArtistName string `json:"artistName"`
	Genre      string `json:"genre"`
	Bio        string `json:"bio"`
	Email      string `json:"email"`
}

type createAccountResponse struct {
	URL       string `json:"url"`
	AccountID string `json:"accountId"`
}

type statusResponse struct {
	OnboardingComplete bool   `json:"onboardingComplete"`
	DetailsSubmitted   bool   `json:"detailsSubmitted"`
	ChargesEnabled     bool   `json:"chargesEnabled"`
	PayoutsEnabled     bool   `json:"payoutsEnabled"`
	AccountID          string `json:"accountId,omitempty"`
}
