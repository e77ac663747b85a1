package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/nicofratini/prospeo-bolt/internal/integration/elevenlabs"
	"github.com/nicofratini/prospeo-bolt/internal/repository"
)

const testVoiceID = "EXAVITQu4vr4xnSDxMaL"

type fakeAgentStore struct {
	getFn    func(ctx context.Context, userID string) (*repository.AgentConfig, error)
	upsertFn func(ctx context.Context, a *repository.AgentConfig) error
}

func (f *fakeAgentStore) GetByUser(ctx context.Context, userID string) (*repository.AgentConfig, error) {
	return f.getFn(ctx, userID)
}
func (f *fakeAgentStore) Upsert(ctx context.Context, a *repository.AgentConfig) error {
	return f.upsertFn(ctx, a)
}

type fakeVoiceLister struct {
	voicesFn func(ctx context.Context) ([]elevenlabs.Voice, error)
}

func (f *fakeVoiceLister) Voices(ctx context.Context) ([]elevenlabs.Voice, error) {
	return f.voicesFn(ctx)
}

func TestAgentGetUnconfiguredReturnsDefaults(t *testing.T) {
	store := &fakeAgentStore{
		getFn: func(ctx context.Context, userID string) (*repository.AgentConfig, error) {
			return nil, repository.ErrAgentNotFound
		},
	}
	h := NewAgentHandler(store, &fakeVoiceLister{}, testVoiceID)

	c, rec := newTestContext(http.MethodGet, "/v1/ai/agent", "")
	asSession(c, ownerID)
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"configured":false`) || !strings.Contains(body, testVoiceID) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestAgentPutDefaultsVoice(t *testing.T) {
	var saved *repository.AgentConfig
	store := &fakeAgentStore{
		upsertFn: func(ctx context.Context, a *repository.AgentConfig) error {
			saved = a
			return nil
		},
	}
	h := NewAgentHandler(store, &fakeVoiceLister{}, testVoiceID)

	c, rec := newTestContext(http.MethodPut, "/v1/ai/agent", `{"agent_name":"Lea"}`)
	asSession(c, ownerID)
	if err := h.Put(c); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if saved == nil || saved.VoiceID != testVoiceID {
		t.Fatalf("omitted voice should fall back to the default, got %+v", saved)
	}
	if saved.UserID != ownerID {
		t.Fatalf("upsert not scoped to session user: %q", saved.UserID)
	}
}

func TestVoicesUpstreamStatusPassesThrough(t *testing.T) {
	lister := &fakeVoiceLister{
		voicesFn: func(ctx context.Context) ([]elevenlabs.Voice, error) {
			return nil, &elevenlabs.APIError{Status: http.StatusTooManyRequests, Message: "rate limited"}
		},
	}
	h := NewAgentHandler(&fakeAgentStore{}, lister, testVoiceID)

	c, _ := newTestContext(http.MethodGet, "/v1/ai/voices", "")
	asSession(c, ownerID)
	ae := wantStatusErr(t, h.Voices(c), http.StatusTooManyRequests)
	if ae.Message != "rate limited" {
		t.Fatalf("message = %q", ae.Message)
	}
}

func TestVoicesTransportFailureIs502(t *testing.T) {
	lister := &fakeVoiceLister{
		voicesFn: func(ctx context.Context) ([]elevenlabs.Voice, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := NewAgentHandler(&fakeAgentStore{}, lister, testVoiceID)

	c, _ := newTestContext(http.MethodGet, "/v1/ai/voices", "")
	asSession(c, ownerID)
	wantStatusErr(t, h.Voices(c), http.StatusBadGateway)
}
