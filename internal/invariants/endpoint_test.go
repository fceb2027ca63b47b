//go:build invariants
// +build invariants

// Blackbox invariant tests against a running service:
//
//	SAHAI_API=http://localhost:8080 go test -tags invariants ./internal/invariants/
package invariants

import (
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func checkerFromEnv(t *testing.T) *InvariantChecker {
	t.Helper()
	baseURL := os.Getenv("SAHAI_API")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if resp, err := http.Get(baseURL + "/v0/health"); err != nil {
		t.Skipf("service %s unreachable: %v", baseURL, err)
	} else {
		resp.Body.Close()
	}
	return NewInvariantChecker(baseURL)
}

func TestForumInvariants(t *testing.T) {
	c := checkerFromEnv(t)

	email := fmt.Sprintf("invariant-%d@example.com", time.Now().UnixNano())
	key, err := c.SignUp("Invariant Probe", email)
	require.NoError(t, err)

	var d struct {
		DiscussionID string `json:"discussionId"`
	}
	code, err := c.do("POST", "/v0/discussions", key,
		map[string]string{"title": "invariant probe discussion", "tag": "other"}, &d)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, code)
	defer func() { _, _ = c.do("DELETE", "/v0/discussions/"+d.DiscussionID, key, nil, nil) }()

	require.NoError(t, c.CheckListOrdering(key))
	require.NoError(t, c.CheckTranslationCompleteness(key))
	require.NoError(t, c.CheckLikeToggleRoundTrip(key, d.DiscussionID))
	require.NoError(t, c.CheckCommentIdentityStability(key, d.DiscussionID))
}
