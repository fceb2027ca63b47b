// Package notify sends email notifications for forum activity.
package notify

import (
	"fmt"

	"github.com/rs/zerolog"
	mail "gopkg.in/mail.v2"

	"github.com/krishisahai/sahai/internal/model"
)

// Notifier is implemented by outbound notification channels.
type Notifier interface {
	// CommentAdded notifies the discussion author that someone replied.
	CommentAdded(d *model.Discussion, c *model.Comment) error
}

// Mailer delivers notifications over SMTP.
type Mailer struct {
	dialer *mail.Dialer
	from   string
	logger zerolog.Logger
}

func NewMailer(host string, port int, user, pass, from string, logger zerolog.Logger) *Mailer {
	return &Mailer{
		dialer: mail.NewDialer(host, port, user, pass),
		from:   from,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

func (m *Mailer) CommentAdded(d *model.Discussion, c *model.Comment) error {
	// Never mail someone about their own comment.
	if d.AuthorEmail == "" || d.AuthorEmail == c.AuthorEmail {
		return nil
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", d.AuthorEmail)
	msg.SetHeader("Subject", fmt.Sprintf("New reply on %q", d.Title.EN))
	msg.SetBody("text/plain", fmt.Sprintf(
		"%s replied to your discussion %q:\n\n%s\n",
		c.AuthorName, d.Title.EN, c.Text.EN,
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send comment notification: %w", err)
	}
	m.logger.Debug().Str("to", d.AuthorEmail).Str("discussion_id", d.DiscussionID).Msg("comment notification sent")
	return nil
}

// NopNotifier drops all notifications. Used when SMTP is not configured.
type NopNotifier struct{}

func (NopNotifier) CommentAdded(*model.Discussion, *model.Comment) error { return nil }
