package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AgentConfig is the single AI voice-agent configuration of a user. The
// user_id column is unique, which makes the write path an upsert.
type AgentConfig struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	AgentName    string    `json:"agent_name"`
	VoiceID      string    `json:"voice_id"`
	SystemPrompt *string   `json:"system_prompt"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type AgentRepo struct{ db *sql.DB }

func NewAgentRepo(db *sql.DB) *AgentRepo { return &AgentRepo{db: db} }

// GetByUser fetches the user's config or ErrAgentNotFound when none has
// been saved yet.
func (r *AgentRepo) GetByUser(ctx context.Context, userID string) (*AgentConfig, error) {
	a := new(AgentConfig)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, agent_name, voice_id, system_prompt, created_at, updated_at
		 FROM ai_agents WHERE user_id = ?`, userID).Scan(
		&a.ID, &a.UserID, &a.AgentName, &a.VoiceID, &a.SystemPrompt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Upsert inserts the user's config or, when one exists, rewrites it in
// place keyed on the user_id unique constraint. A follow-up select returns
// the canonical stored row (original id and created_at survive updates).
func (r *AgentRepo) Upsert(ctx context.Context, a *AgentConfig) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ai_agents (id, user_id, agent_name, voice_id, system_prompt, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
			agent_name = VALUES(agent_name),
			voice_id = VALUES(voice_id),
			system_prompt = VALUES(system_prompt),
			updated_at = VALUES(updated_at)`,
		uuid.NewString(), a.UserID, a.AgentName, a.VoiceID, a.SystemPrompt, now, now)
	if err != nil {
		return err
	}
	cur, err := r.GetByUser(ctx, a.UserID)
	if err != nil {
		return err
	}
	*a = *cur
	return nil
}
