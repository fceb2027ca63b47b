// Package validate holds request-level input validation rules.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// discussionTags is the closed set of forum topic tags.
var discussionTags = map[string]bool{
	"":           true, // untagged is allowed
	"rice":       true,
	"vegetables": true,
	"fruits":     true,
	"spices":     true,
	"livestock":  true,
	"pests":      true,
	"irrigation": true,
	"market":     true,
	"schemes":    true,
	"other":      true,
}

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// Tag validates a discussion topic tag against the closed set.
func Tag(v string) error {
	if !discussionTags[v] {
		return fmt.Errorf("unknown tag %q", v)
	}
	return nil
}

// -------- Request specific helpers ----------

// CreateUser validates input for account creation.
func CreateUser(name, email, location string) error {
	if err := NonEmpty("name", name); err != nil {
		return err
	}
	if err := MaxLen("name", name, 100); err != nil {
		return err
	}
	if err := Email(email); err != nil {
		return err
	}
	return MaxLen("location", location, 200)
}

// DiscussionTitle validates a post title before translation.
func DiscussionTitle(title string) error {
	if err := NonEmpty("title", title); err != nil {
		return err
	}
	return MaxLen("title", title, 300)
}

// CommentText validates a reply body before translation.
func CommentText(text string) error {
	if err := NonEmpty("text", text); err != nil {
		return err
	}
	return MaxLen("text", text, 5000)
}

// FarmLogEntry validates activity log input.
func FarmLogEntry(activity, crop, notes string) error {
	if err := NonEmpty("activity", activity); err != nil {
		return err
	}
	if err := MaxLen("activity", activity, 100); err != nil {
		return err
	}
	if err := NonEmpty("crop", crop); err != nil {
		return err
	}
	if err := MaxLen("crop", crop, 100); err != nil {
		return err
	}
	return MaxLen("notes", notes, 2000)
}
