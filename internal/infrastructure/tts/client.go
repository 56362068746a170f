// Package tts talks to the speech synthesis service.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"NewsCaster/internal/config"
	"NewsCaster/internal/ports"
)

// Client posts scripts to the synthesis backend and returns the audio
// reference it produced.
type Client struct {
	endpoint string
	http     *http.Client
}

var _ ports.Synthesizer = (*Client)(nil)

// NewClient creates a reusable HTTP client. Synthesis of a full digest
// can take a while, hence the generous timeout.
func NewClient(cfg config.TTSConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: 120 * time.Second},
	}
}

// Synthesize renders the text and returns the backend's audio reference.
func (c *Client) Synthesize(ctx context.Context, text, filename string) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("tts client misconfigured")
	}

	body, err := json.Marshal(map[string]string{
		"text":     text,
		"filename": filename,
	})
	if err != nil {
		return "", fmt.Errorf("marshal tts payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tts returned %s", resp.Status)
	}

	var parsed struct {
		AudioPath string `json:"audio_path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode tts response: %w", err)
	}
	if parsed.AudioPath == "" {
		return "", fmt.Errorf("tts returned no audio path")
	}

	return parsed.AudioPath, nil
}
