package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/krishisahai/sahai/internal/model"
)

// DevAuthorizer accepts a single configured key and resolves it to a fixed
// admin account. Local development only.
type DevAuthorizer struct {
	key  string
	user model.User
}

func NewDevAuthorizer(key string) *DevAuthorizer {
	return &DevAuthorizer{
		key: key,
		user: model.User{
			UserID:      "dev-admin",
			Name:        "Dev Admin",
			Email:       "dev@krishisahai.local",
			Location:    "Kochi, Kerala",
			IsAdmin:     true,
			MemberSince: time.Now().UTC(),
		},
	}
}

func (a *DevAuthorizer) Authorize(_ context.Context, apiKey string) (*model.User, error) {
	if a.key == "" || apiKey != a.key {
		return nil, fmt.Errorf("%w: invalid development key", model.ErrUnauthenticated)
	}
	u := a.user
	return &u, nil
}
