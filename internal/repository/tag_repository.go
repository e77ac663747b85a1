package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Tag is a per-user label attached to calls. Names are unique within one
// user; two users can both own a "VIP" tag.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Color     *string   `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

type TagRepo struct{ db *sql.DB }

func NewTagRepo(db *sql.DB) *TagRepo { return &TagRepo{db: db} }

// ListByOwner returns the user's tags ordered by name.
func (r *TagRepo) ListByOwner(ctx context.Context, userID string) ([]*Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color, created_at FROM tags WHERE user_id = ? ORDER BY name`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Tag, 0)
	for rows.Next() {
		t := new(Tag)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a tag. The (user_id, name) unique key turns duplicates
// into ErrTagExists; the same name under another user is unaffected.
func (r *TagRepo) Create(ctx context.Context, t *Tag) error {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, user_id, name, color, created_at) VALUES (?,?,?,?,?)`,
		t.ID, t.UserID, t.Name, t.Color, t.CreatedAt)
	if isDuplicateKey(err) {
		return ErrTagExists
	}
	return err
}

// GetByIDAndOwner fetches one owned tag or ErrTagNotFound.
func (r *TagRepo) GetByIDAndOwner(ctx context.Context, id, userID string) (*Tag, error) {
	t := new(Tag)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, color, created_at FROM tags WHERE id = ? AND user_id = ?`,
		id, userID).Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteByIDAndOwner removes an owned tag; its call assignments cascade.
// Missing and foreign ids both report ErrTagNotFound, on every call.
func (r *TagRepo) DeleteByIDAndOwner(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTagNotFound
	}
	return nil
}
