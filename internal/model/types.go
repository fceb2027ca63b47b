package model

import "time"

// Language codes used across the application. Every piece of user-generated
// content is stored in all three at once.
const (
	LangEnglish   = "en"
	LangHindi     = "hi"
	LangMalayalam = "ml"
)

// TriLingualText holds the same content rendered in English, Hindi and
// Malayalam. All three fields are always populated together; a partially
// translated value is never persisted.
type TriLingualText struct {
	EN string `json:"en"`
	HI string `json:"hi"`
	ML string `json:"ml"`
}

// In returns the text for the given language code, falling back to English
// when the code is unknown.
func (t TriLingualText) In(lang string) string {
	switch lang {
	case LangHindi:
		return t.HI
	case LangMalayalam:
		return t.ML
	default:
		return t.EN
	}
}

// Complete reports whether all three translations are present.
func (t TriLingualText) Complete() bool {
	return t.EN != "" && t.HI != "" && t.ML != ""
}

// User represents an account in the system.
type User struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Location    string    `json:"location"`
	AvatarURL   string    `json:"avatarUrl"`
	IsAdmin     bool      `json:"isAdmin"`
	MemberSince time.Time `json:"memberSince"`
}

// Comment is a reply attached to a discussion. Author fields are a snapshot
// of the posting user at creation time and are never re-synced.
type Comment struct {
	CommentID    string         `json:"commentId"`
	AuthorName   string         `json:"authorName"`
	AuthorEmail  string         `json:"authorEmail"`
	AuthorAvatar string         `json:"authorAvatar"`
	Text         TriLingualText `json:"text"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Discussion is a top-level community forum post.
type Discussion struct {
	DiscussionID string         `json:"discussionId"`
	Title        TriLingualText `json:"title"`
	AuthorName   string         `json:"authorName"`
	AuthorEmail  string         `json:"authorEmail"`
	AuthorAvatar string         `json:"authorAvatar"`
	CreatedAt    time.Time      `json:"createdAt"`
	Tag          string         `json:"tag,omitempty"`
	Comments     []Comment      `json:"comments"`
	Likes        []string       `json:"likes"`
}

// LikedBy reports whether the given user email is in the likes set.
func (d *Discussion) LikedBy(email string) bool {
	for _, l := range d.Likes {
		if l == email {
			return true
		}
	}
	return false
}

// CommentByID returns the comment with the given id, or nil.
func (d *Discussion) CommentByID(commentID string) *Comment {
	for i := range d.Comments {
		if d.Comments[i].CommentID == commentID {
			return &d.Comments[i]
		}
	}
	return nil
}

// FarmLogEntry is one recorded farm activity. Suggestion is filled by the
// assist flow on creation when the model is reachable; it is best-effort and
// may be empty.
type FarmLogEntry struct {
	EntryID    string    `json:"entryId"`
	UserEmail  string    `json:"userEmail"`
	Activity   string    `json:"activity"`
	Crop       string    `json:"crop"`
	Date       time.Time `json:"date"`
	Notes      string    `json:"notes,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// WeatherAlert is an actionable advisory generated from current conditions.
// Alerts are produced on demand and never stored.
type WeatherAlert struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // low, medium, high
	Type        string `json:"type"`     // weather, heat, wind, pest, other
}

// NewsArticle is one regional agriculture news entry. Title and summary are
// produced in all three languages at once.
type NewsArticle struct {
	Title       TriLingualText `json:"title"`
	Summary     TriLingualText `json:"summary"`
	Source      string         `json:"source"`
	URL         string         `json:"url"`
	PublishedAt string         `json:"publishedAt"`
}
