package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisahai/sahai/internal/assist"
	"github.com/krishisahai/sahai/internal/auth"
	"github.com/krishisahai/sahai/internal/events"
	"github.com/krishisahai/sahai/internal/forum"
	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/notify"
	"github.com/krishisahai/sahai/internal/services"
	"github.com/krishisahai/sahai/internal/store/sqlite"
)

// echoModel unmarshals a canned JSON document into whatever output type the
// flow expects. Unknown keys are ignored, so one superset document serves
// every flow.
type echoModel struct{ response string }

func (m *echoModel) GenerateJSON(_ context.Context, _ assist.Request, out any) error {
	return json.Unmarshal([]byte(m.response), out)
}

const translationDoc = `{"originalLanguage":"English","en":"hello","hi":"नमस्ते","ml":"ഹലോ","response":"use mulch","text":"spoken words","alerts":[]}`

type testEnv struct {
	srv *httptest.Server
	hub *forum.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	bus := events.NewBus(16)
	st, err := sqlite.New("", bus)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	assistSvc := assist.NewService(&echoModel{response: translationDoc})
	hub := forum.NewHub(st.Discussions(), bus, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	community := forum.NewCommunityService(st.Discussions(), assistSvc, notify.NopNotifier{}, zerolog.Nop(), prometheus.NewRegistry())

	router := NewRouter(Deps{
		Authorizer: auth.Chain{auth.NewDevAuthorizer("sk_local_dev"), auth.NewStoreAuthorizer(st.Users())},
		Users:      services.NewUserService(st),
		FarmLogs:   services.NewFarmLogService(st.FarmLogs(), nil, zerolog.Nop()),
		Community:  community,
		Hub:        hub,
		Store:      st,
		Assist:     nil,
		IsHealthy:  func() bool { return true },
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path, apiKey string, body any) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) signUp(t *testing.T, name, email string) string {
	t.Helper()
	resp := e.do(t, "POST", "/v0/users", "", map[string]string{
		"name": name, "email": email, "location": "Kochi, Kerala",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return "sk_user_" + email
}

func TestSignUpAndDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/v0/users", "", map[string]string{
		"name": "Ravi", "email": "ravi@example.com", "location": "Thrissur",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	u := decode[model.User](t, resp)
	assert.NotEmpty(t, u.UserID)
	assert.False(t, u.MemberSince.IsZero())

	resp = env.do(t, "POST", "/v0/users", "", map[string]string{
		"name": "Impostor", "email": "ravi@example.com",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSignUpValidation(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "POST", "/v0/users", "", map[string]string{"name": "NoEmail"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/v0/discussions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, "GET", "/v0/discussions", "sk_user_nobody@example.com", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDiscussionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	key := env.signUp(t, "Ravi", "ravi@example.com")

	resp := env.do(t, "POST", "/v0/discussions", key, map[string]string{
		"title": "hello", "tag": "rice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decode[model.Discussion](t, resp)
	assert.Equal(t, "hello", d.Title.EN)
	assert.Equal(t, "नमस्ते", d.Title.HI)
	assert.Equal(t, "ഹലോ", d.Title.ML)
	assert.Equal(t, "rice", d.Tag)

	resp = env.do(t, "GET", "/v0/discussions", key, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Discussions []model.Discussion `json:"discussions"`
		Count       int                `json:"count"`
		Pending     bool               `json:"pending"`
	}](t, resp)
	require.Equal(t, 1, list.Count)
	assert.False(t, list.Pending)

	resp = env.do(t, "DELETE", "/v0/discussions/"+d.DiscussionID, key, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, "GET", "/v0/discussions/"+d.DiscussionID, key, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDiscussionTagValidation(t *testing.T) {
	env := newTestEnv(t)
	key := env.signUp(t, "Ravi", "ravi@example.com")

	resp := env.do(t, "POST", "/v0/discussions", key, map[string]string{
		"title": "hello", "tag": "not-a-tag",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommentOwnership(t *testing.T) {
	env := newTestEnv(t)
	authorKey := env.signUp(t, "Ravi", "ravi@example.com")
	otherKey := env.signUp(t, "Meera", "meera@example.com")

	resp := env.do(t, "POST", "/v0/discussions", authorKey, map[string]string{"title": "q"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decode[model.Discussion](t, resp)

	resp = env.do(t, "POST", "/v0/discussions/"+d.DiscussionID+"/comments", otherKey, map[string]string{"text": "an answer"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decode[model.Comment](t, resp)
	require.NotEmpty(t, c.CommentID)

	// The discussion author cannot edit someone else's comment.
	commentPath := fmt.Sprintf("/v0/discussions/%s/comments/%s", d.DiscussionID, c.CommentID)
	resp = env.do(t, "PATCH", commentPath, authorKey, map[string]string{"text": "hijack"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, "PATCH", commentPath, otherKey, map[string]string{"text": "edited"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Admin (dev key) may delete any comment.
	resp = env.do(t, "DELETE", commentPath, "sk_local_dev", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t)
	key := env.signUp(t, "Ravi", "ravi@example.com")

	resp := env.do(t, "POST", "/v0/discussions", key, map[string]string{"title": "q"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decode[model.Discussion](t, resp)

	likePath := "/v0/discussions/" + d.DiscussionID + "/likes"
	resp = env.do(t, "POST", likePath, key, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[map[string]bool](t, resp)["liked"])

	resp = env.do(t, "POST", likePath, key, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[map[string]bool](t, resp)["liked"])
}

func TestFarmLogEndpoints(t *testing.T) {
	env := newTestEnv(t)
	key := env.signUp(t, "Ravi", "ravi@example.com")

	resp := env.do(t, "POST", "/v0/farm-logs", key, map[string]string{
		"activity": "Sowing", "crop": "Rice", "date": "2026-08-01", "notes": "plot A",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	e := decode[model.FarmLogEntry](t, resp)
	assert.Equal(t, "ravi@example.com", e.UserEmail)

	resp = env.do(t, "POST", "/v0/farm-logs", key, map[string]string{
		"activity": "Sowing", "crop": "Rice", "date": "01-08-2026",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "GET", "/v0/farm-logs", key, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, "DELETE", "/v0/farm-logs/"+e.EntryID, key, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAssistRoutesUnavailableWithoutModel(t *testing.T) {
	env := newTestEnv(t)
	key := env.signUp(t, "Ravi", "ravi@example.com")

	resp := env.do(t, "GET", "/v0/news", key, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = env.do(t, "POST", "/v0/assist/translate", key, map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/v0/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
}

func TestStreamDiscussions(t *testing.T) {
	env := newTestEnv(t)
	key := env.signUp(t, "Ravi", "ravi@example.com")

	resp := env.do(t, "POST", "/v0/discussions", key, map[string]string{"title": "streamed"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Wait until the hub has caught up with the mutation.
	require.Eventually(t, func() bool {
		return len(env.hub.Snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", env.srv.URL+"/v0/discussions/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+key)

	streamResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer streamResp.Body.Close()
	require.Equal(t, http.StatusOK, streamResp.StatusCode)
	assert.Equal(t, "text/event-stream", streamResp.Header.Get("Content-Type"))

	buf := make([]byte, 4096)
	n, _ := streamResp.Body.Read(buf)
	payload := string(buf[:n])
	assert.True(t, strings.HasPrefix(payload, "event: discussions\n"), "got %q", payload)
	assert.Contains(t, payload, `"streamed"`)
}
