package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/krishisahai/sahai/internal/events"
	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/store"
)

//go:embed schema.sql
var ddl string

// sqliteStore implements store.Store for the local build target.
type sqliteStore struct {
	db  *sql.DB
	bus *events.Bus
}

// New opens (or creates) a SQLite database file and ensures the schema exists.
// bus may be nil; mutation events are then dropped.
func New(path string, bus *events.Bus) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db, bus)
}

// NewWithDB wires an existing connection (used by tests and the factory).
func NewWithDB(db *sql.DB, bus *events.Bus) (store.Store, error) {
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &sqliteStore{db: db, bus: bus}, nil
}

func (s *sqliteStore) Users() store.Users             { return &users{db: s.db} }
func (s *sqliteStore) Discussions() store.Discussions { return &discussions{db: s.db, bus: s.bus} }
func (s *sqliteStore) FarmLogs() store.FarmLogs       { return &farmLogs{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	id := m.UserID
	if id == "" {
		id = uuid.New().String()
	}
	since := m.MemberSince
	if since.IsZero() {
		since = time.Now().UTC()
	}
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, name, email, location, avatar_url, is_admin, member_since)
        VALUES (?,?,?,?,?,?,?)
    `, id, m.Name, m.Email, m.Location, m.AvatarURL, m.IsAdmin, since)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, model.ErrConflict
		}
		return nil, err
	}
	out := *m
	out.UserID = id
	out.MemberSince = since
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	return scanUser(u.db.QueryRowContext(ctx, `
        SELECT user_id, name, email, location, avatar_url, is_admin, member_since
        FROM users WHERE user_id = ?
    `, userID))
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(u.db.QueryRowContext(ctx, `
        SELECT user_id, name, email, location, avatar_url, is_admin, member_since
        FROM users WHERE email = ?
    `, email))
}

func (u *users) List(ctx context.Context) ([]*model.User, error) {
	rows, err := u.db.QueryContext(ctx, `
        SELECT user_id, name, email, location, avatar_url, is_admin, member_since
        FROM users ORDER BY member_since
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		var m model.User
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.Location, &m.AvatarURL, &m.IsAdmin, &m.MemberSince); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (u *users) Delete(ctx context.Context, userID string) error {
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var m model.User
	if err := row.Scan(&m.UserID, &m.Name, &m.Email, &m.Location, &m.AvatarURL, &m.IsAdmin, &m.MemberSince); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// --- Discussions ---

type discussions struct {
	db  *sql.DB
	bus *events.Bus
}

func (d *discussions) notify(kind events.Kind, id string) {
	if d.bus != nil {
		d.bus.Publish(events.Event{Kind: kind, DiscussionID: id})
	}
}

func (d *discussions) Create(ctx context.Context, m *model.Discussion) (*model.Discussion, error) {
	id := uuid.New().String()
	created := time.Now().UTC()
	_, err := d.db.ExecContext(ctx, `
        INSERT INTO discussions (discussion_id, title_en, title_hi, title_ml, author_name, author_email, author_avatar, tag, created_at)
        VALUES (?,?,?,?,?,?,?,?,?)
    `, id, m.Title.EN, m.Title.HI, m.Title.ML, m.AuthorName, m.AuthorEmail, m.AuthorAvatar, m.Tag, created)
	if err != nil {
		return nil, err
	}
	out := *m
	out.DiscussionID = id
	out.CreatedAt = created
	out.Comments = []model.Comment{}
	out.Likes = []string{}
	d.notify(events.DiscussionCreated, id)
	return &out, nil
}

func (d *discussions) Get(ctx context.Context, discussionID string) (*model.Discussion, error) {
	row := d.db.QueryRowContext(ctx, `
        SELECT discussion_id, title_en, title_hi, title_ml, author_name, author_email, author_avatar, tag, created_at
        FROM discussions WHERE discussion_id = ?
    `, discussionID)
	var m model.Discussion
	if err := row.Scan(&m.DiscussionID, &m.Title.EN, &m.Title.HI, &m.Title.ML,
		&m.AuthorName, &m.AuthorEmail, &m.AuthorAvatar, &m.Tag, &m.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	if err := d.loadChildren(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (d *discussions) List(ctx context.Context) ([]*model.Discussion, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT discussion_id, title_en, title_hi, title_ml, author_name, author_email, author_avatar, tag, created_at
        FROM discussions ORDER BY created_at DESC, discussion_id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Discussion
	for rows.Next() {
		var m model.Discussion
		if err := rows.Scan(&m.DiscussionID, &m.Title.EN, &m.Title.HI, &m.Title.ML,
			&m.AuthorName, &m.AuthorEmail, &m.AuthorAvatar, &m.Tag, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, m := range out {
		if err := d.loadChildren(ctx, m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *discussions) loadChildren(ctx context.Context, m *model.Discussion) error {
	m.Comments = []model.Comment{}
	m.Likes = []string{}

	rows, err := d.db.QueryContext(ctx, `
        SELECT comment_id, author_name, author_email, author_avatar, text_en, text_hi, text_ml, created_at
        FROM comments WHERE discussion_id = ? ORDER BY position
    `, m.DiscussionID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.CommentID, &c.AuthorName, &c.AuthorEmail, &c.AuthorAvatar,
			&c.Text.EN, &c.Text.HI, &c.Text.ML, &c.CreatedAt); err != nil {
			return err
		}
		m.Comments = append(m.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	lrows, err := d.db.QueryContext(ctx, `
        SELECT user_email FROM likes WHERE discussion_id = ? ORDER BY user_email
    `, m.DiscussionID)
	if err != nil {
		return err
	}
	defer lrows.Close()
	for lrows.Next() {
		var email string
		if err := lrows.Scan(&email); err != nil {
			return err
		}
		m.Likes = append(m.Likes, email)
	}
	return lrows.Err()
}

func (d *discussions) Delete(ctx context.Context, discussionID string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM discussions WHERE discussion_id = ?`, discussionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	d.notify(events.DiscussionDeleted, discussionID)
	return nil
}

func (d *discussions) Patch(ctx context.Context, discussionID string, title *model.TriLingualText, tag *string) error {
	sets := []string{}
	args := []any{}
	if title != nil {
		sets = append(sets, "title_en = ?", "title_hi = ?", "title_ml = ?")
		args = append(args, title.EN, title.HI, title.ML)
	}
	if tag != nil {
		sets = append(sets, "tag = ?")
		args = append(args, *tag)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, discussionID)
	res, err := d.db.ExecContext(ctx,
		`UPDATE discussions SET `+strings.Join(sets, ", ")+` WHERE discussion_id = ?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	d.notify(events.DiscussionUpdated, discussionID)
	return nil
}

func (d *discussions) AppendComment(ctx context.Context, discussionID string, c model.Comment) (*model.Comment, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM discussions WHERE discussion_id = ?`, discussionID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, model.ErrNotFound
	}

	id := c.CommentID
	if id == "" {
		id = uuid.New().String()
	}
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, `
        INSERT INTO comments (comment_id, discussion_id, position, author_name, author_email, author_avatar, text_en, text_hi, text_ml, created_at)
        SELECT ?, ?, COALESCE(MAX(position)+1, 0), ?, ?, ?, ?, ?, ?, ?
        FROM comments WHERE discussion_id = ?
    `, id, discussionID, c.AuthorName, c.AuthorEmail, c.AuthorAvatar,
		c.Text.EN, c.Text.HI, c.Text.ML, created, discussionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	out := c
	out.CommentID = id
	out.CreatedAt = created
	d.notify(events.DiscussionUpdated, discussionID)
	return &out, nil
}

func (d *discussions) UpdateComment(ctx context.Context, discussionID, commentID string, text model.TriLingualText) error {
	res, err := d.db.ExecContext(ctx, `
        UPDATE comments SET text_en = ?, text_hi = ?, text_ml = ?
        WHERE comment_id = ? AND discussion_id = ?
    `, text.EN, text.HI, text.ML, commentID, discussionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	d.notify(events.DiscussionUpdated, discussionID)
	return nil
}

func (d *discussions) RemoveComment(ctx context.Context, discussionID, commentID string) error {
	res, err := d.db.ExecContext(ctx, `
        DELETE FROM comments WHERE comment_id = ? AND discussion_id = ?
    `, commentID, discussionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	d.notify(events.DiscussionUpdated, discussionID)
	return nil
}

func (d *discussions) ToggleLike(ctx context.Context, discussionID, userEmail string) (bool, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM discussions WHERE discussion_id = ?`, discussionID).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, model.ErrNotFound
	}

	res, err := tx.ExecContext(ctx, `
        DELETE FROM likes WHERE discussion_id = ? AND user_email = ?
    `, discussionID, userEmail)
	if err != nil {
		return false, err
	}
	removed, _ := res.RowsAffected()
	liked := false
	if removed == 0 {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO likes (discussion_id, user_email) VALUES (?, ?)
        `, discussionID, userEmail); err != nil {
			return false, err
		}
		liked = true
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	d.notify(events.DiscussionUpdated, discussionID)
	return liked, nil
}

// --- Farm logs ---

type farmLogs struct{ db *sql.DB }

func (f *farmLogs) Create(ctx context.Context, e *model.FarmLogEntry) (*model.FarmLogEntry, error) {
	id := uuid.New().String()
	created := time.Now().UTC()
	_, err := f.db.ExecContext(ctx, `
        INSERT INTO farm_logs (entry_id, user_email, activity, crop, date, notes, suggestion, created_at)
        VALUES (?,?,?,?,?,?,?,?)
    `, id, e.UserEmail, e.Activity, e.Crop, e.Date, e.Notes, e.Suggestion, created)
	if err != nil {
		return nil, err
	}
	out := *e
	out.EntryID = id
	out.CreatedAt = created
	return &out, nil
}

func (f *farmLogs) List(ctx context.Context, userEmail string) ([]*model.FarmLogEntry, error) {
	rows, err := f.db.QueryContext(ctx, `
        SELECT entry_id, user_email, activity, crop, date, notes, suggestion, created_at
        FROM farm_logs WHERE user_email = ? ORDER BY created_at DESC
    `, userEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.FarmLogEntry
	for rows.Next() {
		var e model.FarmLogEntry
		if err := rows.Scan(&e.EntryID, &e.UserEmail, &e.Activity, &e.Crop, &e.Date, &e.Notes, &e.Suggestion, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (f *farmLogs) Delete(ctx context.Context, userEmail, entryID string) error {
	res, err := f.db.ExecContext(ctx, `
        DELETE FROM farm_logs WHERE entry_id = ? AND user_email = ?
    `, entryID, userEmail)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}
