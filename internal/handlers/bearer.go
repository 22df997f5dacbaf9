package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var errUnauthorized = errors.New("unauthorized")

// bearerToken extracts the credential from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// authenticateRequest resolves the request's bearer credential to a user id.
// Any failure collapses to errUnauthorized so handlers respond uniformly.
func authenticateRequest(ctx context.Context, sessions SessionManager, r *http.Request) (string, error) {
	token := bearerToken(r)
	if token == "" {
		return "", errUnauthorized
	}

	userID, err := sessions.Authenticate(ctx, token)
	if err != nil {
		return "", errUnauthorized
	}

	return userID, nil
}
