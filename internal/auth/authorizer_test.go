package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/store/sqlite"
)

func TestExtractAPIKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/v0/users", nil)
	r.Header.Set("Authorization", "Bearer sk_user_a@b.c")

	key, err := ExtractAPIKey(r)
	require.NoError(t, err)
	assert.Equal(t, "sk_user_a@b.c", key)
}

func TestExtractAPIKey_Malformed(t *testing.T) {
	for _, header := range []string{"", "sk_user_a@b.c", "Basic abc"} {
		r := httptest.NewRequest("GET", "/v0/users", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		_, err := ExtractAPIKey(r)
		assert.ErrorIs(t, err, model.ErrUnauthenticated, "header %q", header)
	}
}

func TestStoreAuthorizer(t *testing.T) {
	st, err := sqlite.New("", nil)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Users().Create(context.Background(), &model.User{
		Name: "Ravi", Email: "ravi@example.com", Location: "Thrissur",
	})
	require.NoError(t, err)

	a := NewStoreAuthorizer(st.Users())

	u, err := a.Authorize(context.Background(), "sk_user_ravi@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", u.Name)

	_, err = a.Authorize(context.Background(), "sk_user_nobody@example.com")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = a.Authorize(context.Background(), "garbage")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestDevAuthorizer(t *testing.T) {
	a := NewDevAuthorizer("sk_local_dev")

	u, err := a.Authorize(context.Background(), "sk_local_dev")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	_, err = a.Authorize(context.Background(), "wrong")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	// An empty configured key disables the dev authorizer entirely.
	disabled := NewDevAuthorizer("")
	_, err = disabled.Authorize(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestChain(t *testing.T) {
	st, err := sqlite.New("", nil)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Users().Create(context.Background(), &model.User{
		Name: "Meera", Email: "meera@example.com", Location: "Palakkad",
	})
	require.NoError(t, err)

	c := Chain{NewDevAuthorizer("sk_local_dev"), NewStoreAuthorizer(st.Users())}

	u, err := c.Authorize(context.Background(), "sk_local_dev")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	u, err = c.Authorize(context.Background(), "sk_user_meera@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Meera", u.Name)

	_, err = c.Authorize(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}
