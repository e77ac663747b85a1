// Package queue defines the broker message payloads and the background
// consumer that ingests externally-recorded calls into call_history.
package queue

import "encoding/json"

// Queue names. Both are durable queues on the default exchange.
const (
	CallRecordedQueue        = "call.recorded"
	OnboardingCompletedQueue = "onboarding.completed"
)

// CallRecordedEvent is emitted by the telephony pipeline once a call has
// finished processing. It carries everything needed to persist the call
// without querying the pipeline back.
type CallRecordedEvent struct {
	CallID          string          `json:"call_id,omitempty"`
	UserID          string          `json:"user_id"`
	AgentID         *string         `json:"agent_id,omitempty"`
	PropertyID      *string         `json:"property_id,omitempty"`
	CallerNumber    string          `json:"caller_number"`
	CallTimestamp   string          `json:"call_timestamp"` // RFC 3339
	DurationSeconds int             `json:"duration_seconds"`
	Status          string          `json:"status"`
	RecordingURL    *string         `json:"recording_url,omitempty"`
	Summary         *string         `json:"summary,omitempty"`
	Transcript      json.RawMessage `json:"transcript,omitempty"`
}

// OnboardingCompletedEvent is published when a user finishes the guided
// setup flow, for downstream analytics and lifecycle email.
type OnboardingCompletedEvent struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	CompletedAt string `json:"completed_at"`
}
