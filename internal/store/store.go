package store

import (
	"context"

	"github.com/krishisahai/sahai/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
type Store interface {
	Users() Users
	Discussions() Discussions
	FarmLogs() FarmLogs
	Close() error
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Delete(ctx context.Context, userID string) error
}

// Discussions is the document-store adapter for the community forum.
// Comment mutation is keyed by a stable per-comment id and like toggling is
// atomic inside the store; callers never supply the toggle direction.
type Discussions interface {
	Create(ctx context.Context, d *model.Discussion) (*model.Discussion, error)
	Get(ctx context.Context, discussionID string) (*model.Discussion, error)
	// List returns every discussion ordered by creation time descending,
	// comments in append order.
	List(ctx context.Context) ([]*model.Discussion, error)
	Delete(ctx context.Context, discussionID string) error
	// Patch merge-patches title and tag; nil fields are left untouched.
	Patch(ctx context.Context, discussionID string, title *model.TriLingualText, tag *string) error

	AppendComment(ctx context.Context, discussionID string, c model.Comment) (*model.Comment, error)
	// UpdateComment replaces the comment text in place, preserving position,
	// author snapshot and creation time.
	UpdateComment(ctx context.Context, discussionID, commentID string, text model.TriLingualText) error
	RemoveComment(ctx context.Context, discussionID, commentID string) error

	// ToggleLike adds the email to the likes set if absent, removes it
	// otherwise, and reports the resulting membership. The check and the
	// write happen in one transaction.
	ToggleLike(ctx context.Context, discussionID, userEmail string) (bool, error)
}

type FarmLogs interface {
	Create(ctx context.Context, e *model.FarmLogEntry) (*model.FarmLogEntry, error)
	List(ctx context.Context, userEmail string) ([]*model.FarmLogEntry, error)
	Delete(ctx context.Context, userEmail, entryID string) error
}
