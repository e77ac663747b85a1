package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
	"github.com/nicofratini/prospeo-bolt/internal/integration/elevenlabs"
	"github.com/nicofratini/prospeo-bolt/internal/repository"
	"github.com/nicofratini/prospeo-bolt/internal/validate"
)

// agentStore is the data access for the per-user agent configuration.
type agentStore interface {
	GetByUser(ctx context.Context, userID string) (*repository.AgentConfig, error)
	Upsert(ctx context.Context, a *repository.AgentConfig) error
}

// voiceLister fetches the available synthesis voices.
type voiceLister interface {
	Voices(ctx context.Context) ([]elevenlabs.Voice, error)
}

// AgentHandler serves the AI voice-agent configuration and the voice
// catalog behind it.
type AgentHandler struct {
	agents         agentStore
	voices         voiceLister
	defaultVoiceID string
}

func NewAgentHandler(agents agentStore, voices voiceLister, defaultVoiceID string) *AgentHandler {
	return &AgentHandler{agents: agents, voices: voices, defaultVoiceID: defaultVoiceID}
}

// Get returns the caller's agent config, or a default descriptor when none
// has been saved yet so the settings screen always has something to show.
// GET /v1/ai/agent
func (h *AgentHandler) Get(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	a, err := h.agents.GetByUser(c.Request().Context(), id.UserID)
	if errors.Is(err, repository.ErrAgentNotFound) {
		return c.JSON(http.StatusOK, echo.Map{
			"agent":      nil,
			"defaults":   echo.Map{"agent_name": "Assistant", "voice_id": h.defaultVoiceID},
			"configured": false,
		})
	}
	if err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"agent": a, "configured": true})
}

type agentRequest struct {
	AgentName    string  `json:"agent_name" validate:"required,min=1,max=100"`
	VoiceID      string  `json:"voice_id" validate:"omitempty,max=100"`
	SystemPrompt *string `json:"system_prompt" validate:"omitempty,max=10000"`
}

// Put creates or replaces the caller's agent config in one upsert. An
// omitted voice falls back to the configured default.
// PUT /v1/ai/agent
func (h *AgentHandler) Put(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	var req agentRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}
	if req.VoiceID == "" {
		req.VoiceID = h.defaultVoiceID
	}

	a := &repository.AgentConfig{
		UserID:       id.UserID,
		AgentName:    req.AgentName,
		VoiceID:      req.VoiceID,
		SystemPrompt: req.SystemPrompt,
	}
	if err := h.agents.Upsert(c.Request().Context(), a); err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"agent": a, "configured": true})
}

// Voices lists the synthesis voices available to the account. The route
// sits behind the response cache; the provider is only hit on misses.
// GET /v1/ai/voices
func (h *AgentHandler) Voices(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	voices, err := h.voices.Voices(c.Request().Context())
	if err != nil {
		return mapVoiceErr(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"voices": voices})
}

// mapVoiceErr passes a known upstream status through and turns transport
// failures into 502.
func mapVoiceErr(err error) error {
	var ae *elevenlabs.APIError
	if errors.As(err, &ae) {
		return apperr.Upstream(ae.Status, ae.Message)
	}
	return apperr.Upstream(0, "speech provider unavailable")
}
