// Package auth resolves bearer tokens to application users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/store"
)

// Authorizer validates an API key and resolves it to the acting user.
type Authorizer interface {
	Authorize(ctx context.Context, apiKey string) (*model.User, error)
}

// ExtractAPIKey extracts the API key from the Authorization header.
// Expects "Bearer <api_key>" format.
func ExtractAPIKey(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("%w: missing Authorization header", model.ErrUnauthenticated)
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("%w: expected 'Bearer <api_key>'", model.ErrUnauthenticated)
	}
	return parts[1], nil
}

// userKeyPrefix is the key scheme accepted by StoreAuthorizer. Keys embed the
// account email until a real identity provider issues opaque tokens.
// TODO: replace with opaque keys once the identity provider integration lands.
const userKeyPrefix = "sk_user_"

// StoreAuthorizer resolves user-scoped API keys against the user store.
type StoreAuthorizer struct {
	users store.Users
}

func NewStoreAuthorizer(users store.Users) *StoreAuthorizer {
	return &StoreAuthorizer{users: users}
}

func (a *StoreAuthorizer) Authorize(ctx context.Context, apiKey string) (*model.User, error) {
	email, ok := strings.CutPrefix(apiKey, userKeyPrefix)
	if !ok || email == "" {
		return nil, fmt.Errorf("%w: unrecognized API key", model.ErrUnauthenticated)
	}
	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown account", model.ErrUnauthenticated)
		}
		return nil, err
	}
	return u, nil
}
