// Package forum implements the community discussion board: localized posts,
// comments, likes, and live snapshots pushed to subscribers.
package forum

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/krishisahai/sahai/internal/assist"
	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/notify"
	"github.com/krishisahai/sahai/internal/store"
)

// Translator renders user-generated text into all three languages before it
// is persisted. *assist.Service satisfies this.
type Translator interface {
	TranslateText(ctx context.Context, text string) (*assist.Translation, error)
}

// CommunityService owns all forum writes. Every piece of content is
// translated before it is stored; a failed translation fails the write.
// Ownership rules: authors may edit and delete their own content, admins may
// delete anything.
type CommunityService struct {
	store     store.Discussions
	translate Translator
	notifier  notify.Notifier
	logger    zerolog.Logger

	pending      atomic.Int64
	pendingGauge prometheus.Gauge
}

func NewCommunityService(st store.Discussions, tr Translator, n notify.Notifier, logger zerolog.Logger, reg prometheus.Registerer) *CommunityService {
	s := &CommunityService{
		store:     st,
		translate: tr,
		notifier:  n,
		logger:    logger.With().Str("component", "community").Logger(),
		pendingGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sahai_community_pending_actions",
			Help: "Number of forum write operations currently in flight.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.pendingGauge)
	}
	return s
}

// Pending reports whether any forum write is currently in flight.
func (s *CommunityService) Pending() bool { return s.pending.Load() > 0 }

func (s *CommunityService) begin() {
	s.pending.Add(1)
	s.pendingGauge.Inc()
}

func (s *CommunityService) end() {
	s.pending.Add(-1)
	s.pendingGauge.Dec()
}

// AddDiscussion translates the title and creates the post with an author
// snapshot taken from the acting user.
func (s *CommunityService) AddDiscussion(ctx context.Context, actor *model.User, title, tag string) (*model.Discussion, error) {
	s.begin()
	defer s.end()

	tr, err := s.translate.TranslateText(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("translate title: %w", err)
	}
	d, err := s.store.Create(ctx, &model.Discussion{
		Title:        tr.Text(),
		AuthorName:   actor.Name,
		AuthorEmail:  actor.Email,
		AuthorAvatar: actor.AvatarURL,
		Tag:          tag,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("discussion_id", d.DiscussionID).Str("author", actor.Email).Msg("discussion created")
	return d, nil
}

// EditDiscussion retranslates the title and patches the post. Tag is updated
// only when non-nil.
func (s *CommunityService) EditDiscussion(ctx context.Context, actor *model.User, discussionID, title string, tag *string) error {
	s.begin()
	defer s.end()

	d, err := s.store.Get(ctx, discussionID)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(actor, d.AuthorEmail); err != nil {
		return err
	}
	tr, err := s.translate.TranslateText(ctx, title)
	if err != nil {
		return fmt.Errorf("translate title: %w", err)
	}
	text := tr.Text()
	return s.store.Patch(ctx, discussionID, &text, tag)
}

func (s *CommunityService) DeleteDiscussion(ctx context.Context, actor *model.User, discussionID string) error {
	s.begin()
	defer s.end()

	d, err := s.store.Get(ctx, discussionID)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(actor, d.AuthorEmail); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, discussionID); err != nil {
		return err
	}
	s.logger.Info().Str("discussion_id", discussionID).Str("actor", actor.Email).Msg("discussion deleted")
	return nil
}

// AddComment translates the reply, appends it, and notifies the discussion
// author. Notification failures are logged, never surfaced.
func (s *CommunityService) AddComment(ctx context.Context, actor *model.User, discussionID, text string) (*model.Comment, error) {
	s.begin()
	defer s.end()

	d, err := s.store.Get(ctx, discussionID)
	if err != nil {
		return nil, err
	}
	tr, err := s.translate.TranslateText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("translate comment: %w", err)
	}
	c, err := s.store.AppendComment(ctx, discussionID, model.Comment{
		AuthorName:   actor.Name,
		AuthorEmail:  actor.Email,
		AuthorAvatar: actor.AvatarURL,
		Text:         tr.Text(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.CommentAdded(d, c); err != nil {
		s.logger.Warn().Err(err).Str("discussion_id", discussionID).Msg("comment notification failed")
	}
	return c, nil
}

// EditComment retranslates and replaces the comment text in place. Position,
// author snapshot and creation time are preserved.
func (s *CommunityService) EditComment(ctx context.Context, actor *model.User, discussionID, commentID, text string) error {
	s.begin()
	defer s.end()

	d, err := s.store.Get(ctx, discussionID)
	if err != nil {
		return err
	}
	c := d.CommentByID(commentID)
	if c == nil {
		return fmt.Errorf("%w: comment %s", model.ErrNotFound, commentID)
	}
	if err := s.authorizeOwner(actor, c.AuthorEmail); err != nil {
		return err
	}
	tr, err := s.translate.TranslateText(ctx, text)
	if err != nil {
		return fmt.Errorf("translate comment: %w", err)
	}
	return s.store.UpdateComment(ctx, discussionID, commentID, tr.Text())
}

func (s *CommunityService) DeleteComment(ctx context.Context, actor *model.User, discussionID, commentID string) error {
	s.begin()
	defer s.end()

	d, err := s.store.Get(ctx, discussionID)
	if err != nil {
		return err
	}
	c := d.CommentByID(commentID)
	if c == nil {
		return fmt.Errorf("%w: comment %s", model.ErrNotFound, commentID)
	}
	if err := s.authorizeOwner(actor, c.AuthorEmail); err != nil {
		return err
	}
	return s.store.RemoveComment(ctx, discussionID, commentID)
}

// ToggleLike flips the actor's like on the discussion and reports the
// resulting state. The toggle is atomic in the store.
func (s *CommunityService) ToggleLike(ctx context.Context, actor *model.User, discussionID string) (bool, error) {
	s.begin()
	defer s.end()

	return s.store.ToggleLike(ctx, discussionID, actor.Email)
}

func (s *CommunityService) authorizeOwner(actor *model.User, ownerEmail string) error {
	if actor.IsAdmin || actor.Email == ownerEmail {
		return nil
	}
	return fmt.Errorf("%w: not the author", model.ErrForbidden)
}
