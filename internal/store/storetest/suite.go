package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	email := "u-" + uuid.New().String() + "@example.test"

	// Users
	u, err := s.Users().Create(ctx, &model.User{Name: "Ramesh Kumar", Email: email, Location: "Punjab, India"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.UserID == "" || u.MemberSince.IsZero() {
		t.Fatalf("CreateUser: missing id or member_since: %+v", u)
	}
	if got, err := s.Users().GetByEmail(ctx, email); err != nil || got.UserID != u.UserID {
		t.Fatalf("GetUserByEmail: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Create(ctx, &model.User{Name: "Dup", Email: email}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("duplicate email: want ErrConflict, got %v", err)
	}

	// Discussions: create starts empty
	title := model.TriLingualText{EN: "Wheat rust", HI: "गेहूं का रतुआ", ML: "ഗോതമ്പ് തുരുമ്പ്"}
	d, err := s.Discussions().Create(ctx, &model.Discussion{
		Title: title, AuthorName: u.Name, AuthorEmail: u.Email, Tag: "disease",
	})
	if err != nil {
		t.Fatalf("CreateDiscussion: %v", err)
	}
	if d.DiscussionID == "" || len(d.Comments) != 0 || len(d.Likes) != 0 {
		t.Fatalf("CreateDiscussion: want empty comments/likes with id, got %+v", d)
	}

	// List ordering: newest first
	time.Sleep(5 * time.Millisecond)
	d2, err := s.Discussions().Create(ctx, &model.Discussion{
		Title: model.TriLingualText{EN: "b", HI: "b", ML: "b"}, AuthorName: u.Name, AuthorEmail: u.Email,
	})
	if err != nil {
		t.Fatalf("CreateDiscussion 2: %v", err)
	}
	lst, err := s.Discussions().List(ctx)
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListDiscussions: n=%d err=%v", len(lst), err)
	}
	if lst[0].DiscussionID != d2.DiscussionID {
		t.Fatalf("ListDiscussions: want newest first, got %s", lst[0].DiscussionID)
	}

	// Comments: append order, id-keyed update preserves author and created_at
	c1, err := s.Discussions().AppendComment(ctx, d.DiscussionID, model.Comment{
		AuthorName: "Sita Devi", AuthorEmail: "sita@example.test",
		Text: model.TriLingualText{EN: "try neem oil", HI: "नीम का तेल", ML: "വേപ്പെണ്ണ"},
	})
	if err != nil {
		t.Fatalf("AppendComment c1: %v", err)
	}
	c2, err := s.Discussions().AppendComment(ctx, d.DiscussionID, model.Comment{
		AuthorName: u.Name, AuthorEmail: u.Email,
		Text: model.TriLingualText{EN: "thanks", HI: "धन्यवाद", ML: "നന്ദി"},
	})
	if err != nil {
		t.Fatalf("AppendComment c2: %v", err)
	}
	got, err := s.Discussions().Get(ctx, d.DiscussionID)
	if err != nil || len(got.Comments) != 2 {
		t.Fatalf("Get after comments: n=%d err=%v", len(got.Comments), err)
	}
	if got.Comments[0].CommentID != c1.CommentID || got.Comments[1].CommentID != c2.CommentID {
		t.Fatalf("comment order lost: %+v", got.Comments)
	}

	newText := model.TriLingualText{EN: "use neem spray", HI: "नीम स्प्रे", ML: "വേപ്പ് സ്പ്രേ"}
	if err := s.Discussions().UpdateComment(ctx, d.DiscussionID, c1.CommentID, newText); err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	got, _ = s.Discussions().Get(ctx, d.DiscussionID)
	edited := got.CommentByID(c1.CommentID)
	if edited == nil || edited.Text != newText {
		t.Fatalf("UpdateComment: text not replaced: %+v", edited)
	}
	if edited.AuthorEmail != "sita@example.test" || !edited.CreatedAt.Equal(got.Comments[0].CreatedAt) {
		t.Fatalf("UpdateComment: author/createdAt not preserved: %+v", edited)
	}
	if got.Comments[0].CommentID != c1.CommentID {
		t.Fatalf("UpdateComment: position not preserved")
	}

	// Remove middle comment shifts later ones forward
	if err := s.Discussions().RemoveComment(ctx, d.DiscussionID, c1.CommentID); err != nil {
		t.Fatalf("RemoveComment: %v", err)
	}
	got, _ = s.Discussions().Get(ctx, d.DiscussionID)
	if len(got.Comments) != 1 || got.Comments[0].CommentID != c2.CommentID {
		t.Fatalf("RemoveComment: %+v", got.Comments)
	}
	if err := s.Discussions().RemoveComment(ctx, d.DiscussionID, c1.CommentID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("RemoveComment twice: want ErrNotFound, got %v", err)
	}

	// Likes: atomic toggle, no duplicates, toggle-twice restores
	liked, err := s.Discussions().ToggleLike(ctx, d.DiscussionID, u.Email)
	if err != nil || !liked {
		t.Fatalf("ToggleLike on: liked=%v err=%v", liked, err)
	}
	got, _ = s.Discussions().Get(ctx, d.DiscussionID)
	if len(got.Likes) != 1 || got.Likes[0] != u.Email {
		t.Fatalf("likes after toggle on: %v", got.Likes)
	}
	liked, err = s.Discussions().ToggleLike(ctx, d.DiscussionID, u.Email)
	if err != nil || liked {
		t.Fatalf("ToggleLike off: liked=%v err=%v", liked, err)
	}
	got, _ = s.Discussions().Get(ctx, d.DiscussionID)
	if len(got.Likes) != 0 {
		t.Fatalf("likes after toggle off: %v", got.Likes)
	}

	// Patch merges fields independently
	newTag := "pests"
	if err := s.Discussions().Patch(ctx, d.DiscussionID, nil, &newTag); err != nil {
		t.Fatalf("Patch tag: %v", err)
	}
	got, _ = s.Discussions().Get(ctx, d.DiscussionID)
	if got.Tag != "pests" || got.Title != title {
		t.Fatalf("Patch: tag=%s title=%+v", got.Tag, got.Title)
	}

	// Delete removes the document and cascades
	if err := s.Discussions().Delete(ctx, d.DiscussionID); err != nil {
		t.Fatalf("DeleteDiscussion: %v", err)
	}
	if _, err := s.Discussions().Get(ctx, d.DiscussionID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get after delete: want ErrNotFound, got %v", err)
	}
	lst, _ = s.Discussions().List(ctx)
	for _, x := range lst {
		if x.DiscussionID == d.DiscussionID {
			t.Fatalf("deleted discussion still listed")
		}
	}

	// Farm logs
	e, err := s.FarmLogs().Create(ctx, &model.FarmLogEntry{
		UserEmail: u.Email, Activity: "Sowing", Crop: "Wheat", Date: time.Now().UTC(), Notes: "north field",
	})
	if err != nil || e.EntryID == "" {
		t.Fatalf("CreateFarmLog: e=%v err=%v", e, err)
	}
	if logs, err := s.FarmLogs().List(ctx, u.Email); err != nil || len(logs) != 1 {
		t.Fatalf("ListFarmLogs: n=%d err=%v", len(logs), err)
	}
	// scoped delete: wrong owner must not remove the entry
	if err := s.FarmLogs().Delete(ctx, "other@example.test", e.EntryID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("FarmLog delete wrong owner: want ErrNotFound, got %v", err)
	}
	if err := s.FarmLogs().Delete(ctx, u.Email, e.EntryID); err != nil {
		t.Fatalf("FarmLog delete: %v", err)
	}
}
