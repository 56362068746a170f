// Package telegram delivers run output through the Telegram bot API.
package telegram

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"NewsCaster/internal/ports"
)

const apiBase = "https://api.telegram.org"

// Transport sends text and audio to conversation chats via a bot.
type Transport struct {
	botToken string
	baseURL  string
	client   *http.Client
}

var _ ports.Transport = (*Transport)(nil)

// NewTransport registers the bot token.
func NewTransport(botToken string) *Transport {
	return &Transport{
		botToken: botToken,
		baseURL:  apiBase,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SendText posts a plain message to the conversation chat.
func (t *Transport) SendText(ctx context.Context, conversationID, text string) error {
	if t.botToken == "" {
		return fmt.Errorf("telegram transport misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	form := url.Values{}
	form.Set("chat_id", conversationID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// SendAudio uploads the referenced audio file with a caption.
func (t *Transport) SendAudio(ctx context.Context, conversationID, audioRef, caption string) error {
	if t.botToken == "" {
		return fmt.Errorf("telegram transport misconfigured")
	}

	file, err := os.Open(audioRef)
	if err != nil {
		return fmt.Errorf("open audio %s: %w", audioRef, err)
	}
	defer file.Close()

	var body strings.Builder
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", conversationID); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("audio", filepath.Base(audioRef))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy audio payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendAudio", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.String()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
