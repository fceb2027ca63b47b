package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/krishisahai/sahai/internal/api/respond"
	"github.com/krishisahai/sahai/internal/api/validate"
	"github.com/krishisahai/sahai/internal/forum"
	"github.com/krishisahai/sahai/internal/store"
)

type ForumHandler struct {
	community   *forum.CommunityService
	hub         *forum.Hub
	discussions store.Discussions
}

func NewForumHandler(community *forum.CommunityService, hub *forum.Hub, discussions store.Discussions) *ForumHandler {
	return &ForumHandler{community: community, hub: hub, discussions: discussions}
}

// ListDiscussions handles GET /v0/discussions. Always the full list, newest
// first, comments in append order.
func (h *ForumHandler) ListDiscussions(w http.ResponseWriter, r *http.Request) {
	list, err := h.discussions.List(r.Context())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"discussions": list,
		"count":       len(list),
		"pending":     h.community.Pending(),
	})
}

// GetDiscussion handles GET /v0/discussions/{discussionId}.
func (h *ForumHandler) GetDiscussion(w http.ResponseWriter, r *http.Request) {
	d, err := h.discussions.Get(r.Context(), mux.Vars(r)["discussionId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, d)
}

// CreateDiscussion handles POST /v0/discussions.
func (h *ForumHandler) CreateDiscussion(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title string `json:"title"`
		Tag   string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.DiscussionTitle(in.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Tag(in.Tag); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	d, err := h.community.AddDiscussion(r.Context(), actorFrom(r.Context()), in.Title, in.Tag)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, d)
}

// EditDiscussion handles PATCH /v0/discussions/{discussionId}.
func (h *ForumHandler) EditDiscussion(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title string  `json:"title"`
		Tag   *string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.DiscussionTitle(in.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if in.Tag != nil {
		if err := validate.Tag(*in.Tag); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	err := h.community.EditDiscussion(r.Context(), actorFrom(r.Context()), mux.Vars(r)["discussionId"], in.Title, in.Tag)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDiscussion handles DELETE /v0/discussions/{discussionId}.
func (h *ForumHandler) DeleteDiscussion(w http.ResponseWriter, r *http.Request) {
	err := h.community.DeleteDiscussion(r.Context(), actorFrom(r.Context()), mux.Vars(r)["discussionId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddComment handles POST /v0/discussions/{discussionId}/comments.
func (h *ForumHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.CommentText(in.Text); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	c, err := h.community.AddComment(r.Context(), actorFrom(r.Context()), mux.Vars(r)["discussionId"], in.Text)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, c)
}

// EditComment handles PATCH /v0/discussions/{discussionId}/comments/{commentId}.
func (h *ForumHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.CommentText(in.Text); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	vars := mux.Vars(r)
	err := h.community.EditComment(r.Context(), actorFrom(r.Context()), vars["discussionId"], vars["commentId"], in.Text)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteComment handles DELETE /v0/discussions/{discussionId}/comments/{commentId}.
func (h *ForumHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := h.community.DeleteComment(r.Context(), actorFrom(r.Context()), vars["discussionId"], vars["commentId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleLike handles POST /v0/discussions/{discussionId}/likes and reports
// the resulting state.
func (h *ForumHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	liked, err := h.community.ToggleLike(r.Context(), actorFrom(r.Context()), mux.Vars(r)["discussionId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// StreamDiscussions handles GET /v0/discussions/stream. Server-sent events;
// each event carries the complete ordered discussion list.
func (h *ForumHandler) StreamDiscussions(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	snapshots, cancel := h.hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-snapshots:
			if !open {
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				log.Error().Err(err).Msg("failed to encode discussion snapshot")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: discussions\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
