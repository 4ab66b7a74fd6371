package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/token"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the payload for endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

func identityFromContext(ctx context.Context) (token.Identity, bool) {
	identity, ok := ctx.Value(contextIdentityKey).(token.Identity)
	return identity, ok
}

// userIDFromContext resolves the authenticated identity to a stored
// account id. The built-in administrator has no account row, so it is
// rejected here.
func userIDFromContext(ctx context.Context) (int, error) {
	identity, ok := identityFromContext(ctx)
	if !ok {
		return 0, errors.New("missing identity")
	}
	if identity.BuiltIn {
		return 0, errors.New("built-in administrator has no account")
	}
	id, err := strconv.Atoi(strings.TrimSpace(identity.Subject))
	if err != nil || id < 1 {
		return 0, errors.New("invalid subject")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("malformed authorization header")
	}
	value := strings.TrimSpace(parts[1])
	if value == "" {
		return "", errors.New("malformed authorization header")
	}
	return value, nil
}
