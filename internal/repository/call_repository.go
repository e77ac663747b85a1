package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Call mirrors one row of 'call_history'. Rows are written only by the
// ingestion consumer; the HTTP surface reads and annotates them.
type Call struct {
	ID              string          `json:"id"`
	UserID          string          `json:"-"`
	AgentID         *string         `json:"agent_id,omitempty"`
	PropertyID      *string         `json:"property_id,omitempty"`
	CallerNumber    string          `json:"caller_number"`
	CallTimestamp   time.Time       `json:"call_timestamp"`
	DurationSeconds int             `json:"duration_seconds"`
	Status          string          `json:"status"` // completed | missed | failed | in-progress
	RecordingURL    *string         `json:"recording_url"`
	Summary         *string         `json:"summary"`
	Transcript      json.RawMessage `json:"transcript,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PropertyRef is the joined property summary attached to call listings.
type PropertyRef struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
}

// AgentRef is the joined agent summary attached to call details.
type AgentRef struct {
	ID        string `json:"id"`
	AgentName string `json:"agent_name"`
}

// CallSummary is one row of a paginated call listing.
type CallSummary struct {
	ID              string       `json:"id"`
	CallTimestamp   time.Time    `json:"call_timestamp"`
	CallerNumber    string       `json:"caller_number"`
	DurationSeconds int          `json:"duration_seconds"`
	Status          string       `json:"status"`
	RecordingURL    *string      `json:"recording_url"`
	Summary         *string      `json:"summary"`
	Property        *PropertyRef `json:"property"`
}

// CallDetail is a full call row with its joined relations.
type CallDetail struct {
	Call
	Property *PropertyRef `json:"property"`
	Agent    *AgentRef    `json:"ai_agent"`
}

// CallSearch collects the optional, conjunctive listing filters plus the
// clamped page window.
type CallSearch struct {
	UserID     string
	StartDate  *time.Time
	EndDate    *time.Time
	Status     string
	PropertyID string
	Search     string
	Limit      int
	Offset     int
}

type CallRepo struct{ db *sql.DB }

func NewCallRepo(db *sql.DB) *CallRepo { return &CallRepo{db: db} }

// Search returns one page of the owner's calls, newest first, plus the
// total match count. The count is a window aggregate in the same query as
// the page slice, so the two can never drift apart under concurrent
// writes. Filters combine conjunctively; none is ever partially applied.
func (r *CallRepo) Search(ctx context.Context, q CallSearch) ([]CallSummary, int64, error) {
	where := []string{"c.user_id = ?"}
	args := []any{q.UserID}

	if q.Status != "" {
		where = append(where, "c.status = ?")
		args = append(args, q.Status)
	}
	if q.PropertyID != "" {
		where = append(where, "c.property_id = ?")
		args = append(args, q.PropertyID)
	}
	if q.StartDate != nil {
		where = append(where, "c.call_timestamp >= ?")
		args = append(args, q.StartDate.UTC())
	}
	if q.EndDate != nil {
		// Extend to the end of the named day so "endDate=2026-01-05"
		// includes calls made during that day.
		end := q.EndDate.UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Millisecond)
		where = append(where, "c.call_timestamp <= ?")
		args = append(args, end)
	}
	if q.Search != "" {
		where = append(where, "(LOWER(c.caller_number) LIKE ? OR LOWER(c.summary) LIKE ?)")
		needle := "%" + strings.ToLower(q.Search) + "%"
		args = append(args, needle, needle)
	}

	query := `SELECT
			c.id, c.call_timestamp, c.caller_number, c.duration_seconds, c.status,
			c.recording_url, c.summary,
			p.id, p.name,
			COUNT(*) OVER() AS total
		FROM call_history c
		LEFT JOIN properties p ON p.id = c.property_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY c.call_timestamp DESC
		LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]CallSummary, 0, q.Limit)
	var total int64
	for rows.Next() {
		var (
			cs    CallSummary
			pID   sql.NullString
			pName sql.NullString
		)
		if err := rows.Scan(&cs.ID, &cs.CallTimestamp, &cs.CallerNumber, &cs.DurationSeconds,
			&cs.Status, &cs.RecordingURL, &cs.Summary, &pID, &pName, &total); err != nil {
			return nil, 0, err
		}
		if pID.Valid {
			cs.Property = &PropertyRef{ID: pID.String, Name: pName.String}
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	// An empty page beyond the last one still needs the real total.
	if len(out) == 0 {
		countQ := `SELECT COUNT(*) FROM call_history c WHERE ` + strings.Join(where, " AND ")
		if err := r.db.QueryRowContext(ctx, countQ, args[:len(args)-2]...).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// GetByIDAndOwner fetches one call with its joined property and agent
// summaries, transcript included. Foreign and missing ids both map to
// ErrCallNotFound.
func (r *CallRepo) GetByIDAndOwner(ctx context.Context, id, userID string) (*CallDetail, error) {
	var (
		d          CallDetail
		pID, pNm   sql.NullString
		pAddr      sql.NullString
		aID, aNm   sql.NullString
		transcript sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT
			c.id, c.user_id, c.agent_id, c.property_id, c.caller_number, c.call_timestamp,
			c.duration_seconds, c.status, c.recording_url, c.summary, c.transcript,
			c.created_at, c.updated_at,
			p.id, p.name, p.address,
			a.id, a.agent_name
		FROM call_history c
		LEFT JOIN properties p ON p.id = c.property_id
		LEFT JOIN ai_agents a ON a.id = c.agent_id
		WHERE c.id = ? AND c.user_id = ?`, id, userID).Scan(
		&d.ID, &d.UserID, &d.AgentID, &d.PropertyID, &d.CallerNumber, &d.CallTimestamp,
		&d.DurationSeconds, &d.Status, &d.RecordingURL, &d.Summary, &transcript,
		&d.CreatedAt, &d.UpdatedAt,
		&pID, &pNm, &pAddr,
		&aID, &aNm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCallNotFound
	}
	if err != nil {
		return nil, err
	}
	if transcript.Valid {
		d.Transcript = json.RawMessage(transcript.String)
	}
	if pID.Valid {
		d.Property = &PropertyRef{ID: pID.String, Name: pNm.String}
		if pAddr.Valid {
			addr := pAddr.String
			d.Property.Address = &addr
		}
	}
	if aID.Valid {
		d.Agent = &AgentRef{ID: aID.String, AgentName: aNm.String}
	}
	return &d, nil
}

// ExistsOwned reports whether a call with this id belongs to the user.
// Used before multi-resource mutations such as tag assignment.
func (r *CallRepo) ExistsOwned(ctx context.Context, id, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM call_history WHERE id = ? AND user_id = ? LIMIT 1`, id, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Insert writes an externally-originated call record. Only the ingestion
// consumer calls this; the HTTP surface never creates calls.
func (r *CallRepo) Insert(ctx context.Context, c *Call) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	var transcript any
	if len(c.Transcript) > 0 {
		transcript = string(c.Transcript)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO call_history
			(id, user_id, agent_id, property_id, caller_number, call_timestamp,
			 duration_seconds, status, recording_url, summary, transcript, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.UserID, c.AgentID, c.PropertyID, c.CallerNumber, c.CallTimestamp.UTC(),
		c.DurationSeconds, c.Status, c.RecordingURL, c.Summary, transcript, c.CreatedAt, c.UpdatedAt)
	return err
}
