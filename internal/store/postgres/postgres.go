package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/krishisahai/sahai/internal/events"
	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/store"
)

//go:embed schema.sql
var ddl string

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens a connection and ensures the schema exists.
// bus may be nil; mutation events are then dropped.
func New(dsn string, bus *events.Bus) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db, bus)
}

// NewWithDB constructs a Postgres store backed by an existing connection.
func NewWithDB(db *sql.DB, bus *events.Bus) (store.Store, error) {
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &pgStore{db: db, bus: bus}, nil
}

type pgStore struct {
	db  *sql.DB
	bus *events.Bus
}

func (s *pgStore) Users() store.Users             { return &users{db: s.db} }
func (s *pgStore) Discussions() store.Discussions { return &discussions{db: s.db, bus: s.bus} }
func (s *pgStore) FarmLogs() store.FarmLogs       { return &farmLogs{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) Close() error { return s.db.Close() }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	id := m.UserID
	if id == "" {
		id = uuid.New().String()
	}
	var since time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, name, email, location, avatar_url, is_admin)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING member_since
    `, id, m.Name, m.Email, m.Location, m.AvatarURL, m.IsAdmin)
	if err := row.Scan(&since); err != nil {
		if isUniqueViolation(err) {
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
        FROM users WHERE user_id = $1
    `, userID))
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(u.db.QueryRowContext(ctx, `
        SELECT user_id, name, email, location, avatar_url, is_admin, member_since
        FROM users WHERE email = $1
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
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
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
	var created time.Time
	row := d.db.QueryRowContext(ctx, `
        INSERT INTO discussions (discussion_id, title_en, title_hi, title_ml, author_name, author_email, author_avatar, tag)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at
    `, id, m.Title.EN, m.Title.HI, m.Title.ML, m.AuthorName, m.AuthorEmail, m.AuthorAvatar, m.Tag)
	if err := row.Scan(&created); err != nil {
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
        FROM discussions WHERE discussion_id = $1
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
        FROM comments WHERE discussion_id = $1 ORDER BY position
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
        SELECT user_email FROM likes WHERE discussion_id = $1 ORDER BY user_email
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
	res, err := d.db.ExecContext(ctx, `DELETE FROM discussions WHERE discussion_id = $1`, discussionID)
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
	n := 1
	if title != nil {
		sets = append(sets, fmt.Sprintf("title_en = $%d, title_hi = $%d, title_ml = $%d", n, n+1, n+2))
		args = append(args, title.EN, title.HI, title.ML)
		n += 3
	}
	if tag != nil {
		sets = append(sets, fmt.Sprintf("tag = $%d", n))
		args = append(args, *tag)
		n++
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, discussionID)
	res, err := d.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE discussions SET %s WHERE discussion_id = $%d`, strings.Join(sets, ", "), n), args...)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
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
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM discussions WHERE discussion_id = $1`, discussionID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, model.ErrNotFound
	}

	id := c.CommentID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := tx.QueryRowContext(ctx, `
        INSERT INTO comments (comment_id, discussion_id, position, author_name, author_email, author_avatar, text_en, text_hi, text_ml)
        SELECT $1, $2, COALESCE(MAX(position)+1, 0), $3, $4, $5, $6, $7, $8
        FROM comments WHERE discussion_id = $2
        RETURNING created_at
    `, id, discussionID, c.AuthorName, c.AuthorEmail, c.AuthorAvatar, c.Text.EN, c.Text.HI, c.Text.ML)
	if err := row.Scan(&created); err != nil {
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
        UPDATE comments SET text_en = $1, text_hi = $2, text_ml = $3
        WHERE comment_id = $4 AND discussion_id = $5
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
        DELETE FROM comments WHERE comment_id = $1 AND discussion_id = $2
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
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM discussions WHERE discussion_id = $1`, discussionID).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, model.ErrNotFound
	}

	res, err := tx.ExecContext(ctx, `
        DELETE FROM likes WHERE discussion_id = $1 AND user_email = $2
    `, discussionID, userEmail)
	if err != nil {
		return false, err
	}
	removed, _ := res.RowsAffected()
	liked := false
	if removed == 0 {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO likes (discussion_id, user_email) VALUES ($1, $2)
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
	var created time.Time
	row := f.db.QueryRowContext(ctx, `
        INSERT INTO farm_logs (entry_id, user_email, activity, crop, date, notes, suggestion)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at
    `, id, e.UserEmail, e.Activity, e.Crop, e.Date, e.Notes, e.Suggestion)
	if err := row.Scan(&created); err != nil {
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
        FROM farm_logs WHERE user_email = $1 ORDER BY created_at DESC
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
        DELETE FROM farm_logs WHERE entry_id = $1 AND user_email = $2
    `, entryID, userEmail)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}
