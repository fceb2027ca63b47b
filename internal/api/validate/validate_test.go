package validate

import (
	"strings"
	"testing"
)

func TestEmail(t *testing.T) {
	valid := []string{"a@b.co", "farmer.ravi@example.com"}
	for _, v := range valid {
		if err := Email(v); err != nil {
			t.Errorf("Email(%q) = %v, want nil", v, err)
		}
	}
	invalid := []string{"", "nodomain", "a @b.co", "a@b", strings.Repeat("x", 320) + "@b.co"}
	for _, v := range invalid {
		if err := Email(v); err == nil {
			t.Errorf("Email(%q) = nil, want error", v)
		}
	}
}

func TestTag(t *testing.T) {
	for _, v := range []string{"", "rice", "pests", "schemes"} {
		if err := Tag(v); err != nil {
			t.Errorf("Tag(%q) = %v, want nil", v, err)
		}
	}
	if err := Tag("memes"); err == nil {
		t.Error("Tag(memes) = nil, want error")
	}
}

func TestDiscussionTitle(t *testing.T) {
	if err := DiscussionTitle("Best paddy variety for Kuttanad?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := DiscussionTitle("   "); err == nil {
		t.Error("blank title accepted")
	}
	if err := DiscussionTitle(strings.Repeat("x", 301)); err == nil {
		t.Error("oversized title accepted")
	}
}

func TestCommentText(t *testing.T) {
	if err := CommentText("try neem oil spray"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CommentText(""); err == nil {
		t.Error("empty comment accepted")
	}
	if err := CommentText(strings.Repeat("x", 5001)); err == nil {
		t.Error("oversized comment accepted")
	}
}

func TestCreateUser(t *testing.T) {
	if err := CreateUser("Ravi", "ravi@example.com", "Thrissur, Kerala"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CreateUser("", "ravi@example.com", ""); err == nil {
		t.Error("missing name accepted")
	}
	if err := CreateUser("Ravi", "bad", ""); err == nil {
		t.Error("bad email accepted")
	}
}

func TestFarmLogEntry(t *testing.T) {
	if err := FarmLogEntry("Sowing", "Rice", "plot A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := FarmLogEntry("", "Rice", ""); err == nil {
		t.Error("missing activity accepted")
	}
	if err := FarmLogEntry("Sowing", "", ""); err == nil {
		t.Error("missing crop accepted")
	}
}
