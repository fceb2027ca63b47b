// Package invariants verifies system-level guarantees through the public
// REST API only. The checker treats the service as a black box; it never
// reaches into the store.
package invariants

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/krishisahai/sahai/internal/model"
)

// InvariantChecker exercises forum guarantees against a running service.
type InvariantChecker struct {
	baseURL string
	client  *http.Client
}

func NewInvariantChecker(baseURL string) *InvariantChecker {
	return &InvariantChecker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *InvariantChecker) do(method, path, apiKey string, payload, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// SignUp creates a throwaway account and returns its API key.
func (c *InvariantChecker) SignUp(name, email string) (string, error) {
	code, err := c.do("POST", "/v0/users", "", map[string]string{
		"name": name, "email": email, "location": "Kochi, Kerala",
	}, nil)
	if err != nil {
		return "", err
	}
	if code != http.StatusCreated {
		return "", fmt.Errorf("sign-up returned %d", code)
	}
	return "sk_user_" + email, nil
}

func (c *InvariantChecker) listDiscussions(apiKey string) ([]model.Discussion, error) {
	var out struct {
		Discussions []model.Discussion `json:"discussions"`
	}
	code, err := c.do("GET", "/v0/discussions", apiKey, nil, &out)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("list returned %d", code)
	}
	return out.Discussions, nil
}

// CheckListOrdering verifies the discussion list is sorted newest first.
func (c *InvariantChecker) CheckListOrdering(apiKey string) error {
	list, err := c.listDiscussions(apiKey)
	if err != nil {
		return err
	}
	sorted := sort.SliceIsSorted(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if !sorted {
		return fmt.Errorf("discussion list is not ordered newest first")
	}
	return nil
}

// CheckTranslationCompleteness verifies every title and comment carries all
// three languages. A partially translated document must never be visible.
func (c *InvariantChecker) CheckTranslationCompleteness(apiKey string) error {
	list, err := c.listDiscussions(apiKey)
	if err != nil {
		return err
	}
	for _, d := range list {
		if !d.Title.Complete() {
			return fmt.Errorf("discussion %s has incomplete title translations", d.DiscussionID)
		}
		for _, cm := range d.Comments {
			if !cm.Text.Complete() {
				return fmt.Errorf("comment %s has incomplete text translations", cm.CommentID)
			}
		}
	}
	return nil
}

// CheckLikeToggleRoundTrip verifies two toggles restore the original state
// and never double-count.
func (c *InvariantChecker) CheckLikeToggleRoundTrip(apiKey, discussionID string) error {
	var first, second struct {
		Liked bool `json:"liked"`
	}
	path := "/v0/discussions/" + discussionID + "/likes"
	if _, err := c.do("POST", path, apiKey, nil, &first); err != nil {
		return err
	}
	if _, err := c.do("POST", path, apiKey, nil, &second); err != nil {
		return err
	}
	if first.Liked == second.Liked {
		return fmt.Errorf("like toggle did not flip: %v then %v", first.Liked, second.Liked)
	}
	return nil
}

// CheckCommentIdentityStability verifies a comment keeps its id, position
// and author snapshot across an edit.
func (c *InvariantChecker) CheckCommentIdentityStability(apiKey, discussionID string) error {
	var created model.Comment
	code, err := c.do("POST", "/v0/discussions/"+discussionID+"/comments", apiKey,
		map[string]string{"text": "invariant probe comment"}, &created)
	if err != nil {
		return err
	}
	if code != http.StatusCreated {
		return fmt.Errorf("add comment returned %d", code)
	}

	path := fmt.Sprintf("/v0/discussions/%s/comments/%s", discussionID, created.CommentID)
	if code, err := c.do("PATCH", path, apiKey, map[string]string{"text": "edited probe comment"}, nil); err != nil || code != http.StatusNoContent {
		return fmt.Errorf("edit comment returned %d: %v", code, err)
	}

	var d model.Discussion
	if _, err := c.do("GET", "/v0/discussions/"+discussionID, apiKey, nil, &d); err != nil {
		return err
	}
	edited := d.CommentByID(created.CommentID)
	if edited == nil {
		return fmt.Errorf("comment %s lost its identity after edit", created.CommentID)
	}
	if edited.AuthorEmail != created.AuthorEmail {
		return fmt.Errorf("comment author snapshot changed across edit")
	}
	if !edited.CreatedAt.Equal(created.CreatedAt) {
		return fmt.Errorf("comment creation time changed across edit")
	}

	_, _ = c.do("DELETE", path, apiKey, nil, nil)
	return nil
}
