package repository

import (
	"context"
	"database/sql"
	"time"
)

// CallTagRepo manages the many-to-many join between calls and tags. The
// owning user id is denormalized onto each assignment so deletes stay one
// ownership-filtered statement.
type CallTagRepo struct{ db *sql.DB }

func NewCallTagRepo(db *sql.DB) *CallTagRepo { return &CallTagRepo{db: db} }

// ListForCall returns the tags assigned to one owned call. Callers verify
// call ownership first; the user filter here keeps the join scoped anyway.
func (r *CallTagRepo) ListForCall(ctx context.Context, callID, userID string) ([]*Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.name, t.color, t.created_at
		 FROM call_tags ct
		 JOIN tags t ON t.id = ct.tag_id
		 WHERE ct.call_id = ? AND ct.user_id = ?
		 ORDER BY t.name`, callID, userID)
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

// Assign links a tag to a call. The (call_id, tag_id) unique key turns a
// repeated assignment into ErrTagAssigned.
func (r *CallTagRepo) Assign(ctx context.Context, callID, tagID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO call_tags (call_id, tag_id, user_id, assigned_at) VALUES (?,?,?,?)`,
		callID, tagID, userID, time.Now().UTC())
	if isDuplicateKey(err) {
		return ErrTagAssigned
	}
	return err
}

// Unassign removes one assignment, ownership-filtered. Zero affected rows
// (never assigned, already removed, or someone else's rows) is
// ErrAssignmentNotFound on every call.
func (r *CallTagRepo) Unassign(ctx context.Context, callID, tagID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM call_tags WHERE call_id = ? AND tag_id = ? AND user_id = ?`,
		callID, tagID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}
