package auth

import (
	"context"
	"fmt"

	"github.com/krishisahai/sahai/internal/model"
)

// Chain tries each authorizer in order and returns the first success.
type Chain []Authorizer

func (c Chain) Authorize(ctx context.Context, apiKey string) (*model.User, error) {
	for _, a := range c {
		if u, err := a.Authorize(ctx, apiKey); err == nil {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid API key", model.ErrUnauthenticated)
}
