// Package elevenlabs is a typed client for the two ElevenLabs operations
// the application uses: listing voices and synthesizing speech.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Default synthesis parameters, matching the voice tuning the agent
// configuration UI was built around.
const (
	modelID         = "eleven_multilingual_v2"
	stability       = 0.5
	similarityBoost = 0.75
)

// APIError is a non-2xx answer from ElevenLabs.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs: upstream status %d: %s", e.Status, e.Message)
}

// Voice describes one available synthesis voice.
type Voice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Description *string           `json:"description"`
	PreviewURL  *string           `json:"preview_url"`
	Labels      map[string]string `json:"labels"`
	Settings    json.RawMessage   `json:"settings"`
}

// Client calls the ElevenLabs API with a server-held key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New returns a client for the given base URL (e.g. https://api.elevenlabs.io/v1).
// Synthesis can take a while on long texts, hence the generous timeout.
func New(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Voices lists every voice available to the account.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, readAPIError(resp)
	}

	var out struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Voices, nil
}

// Synthesize converts text to MP3 audio using the given voice.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	payload := map[string]any{
		"text":     text,
		"model_id": modelID,
		"voice_settings": map[string]float64{
			"stability":        stability,
			"similarity_boost": similarityBoost,
		},
	}
	bs, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + "/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, readAPIError(resp)
	}
	return io.ReadAll(resp.Body)
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: "request failed"}
	var remote struct {
		Detail struct {
			Message string `json:"message"`
		} `json:"detail"`
	}
	if json.NewDecoder(resp.Body).Decode(&remote) == nil && remote.Detail.Message != "" {
		apiErr.Message = remote.Detail.Message
	}
	return apiErr
}
