// Package ai is the Sarvam chat-completion client used as the reply of
// last resort for free text outside any flow.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	chatURL = "https://api.sarvam.ai/v1/chat/completions"
	model   = "sarvam-m"
)

const systemPrompt = `You are the official AI assistant of Sri Parvathi Jadala Ramalingeshwara Swamy Devasthanam.

Temple details:
Name: Sri Parvathi Jadala Ramalingeshwara Swamy Devasthanam
Location: Cheruvugattu, Narketpally Mandal, Nalgonda District, Telangana, India

Temple timings:
Monday and Friday: 5:00 AM – 1:00 PM, 3:00 PM – 7:30 PM
All other days: 5:00 AM – 12:30 PM, 3:00 PM – 7:00 PM

Instructions:
- If devotee asks temple timings, give correct timings based on day.
- If devotee speaks Telugu, reply in Telugu.
- If devotee speaks English, reply in English.
- Be respectful and devotional.
- Help devotees with darshan, location, and temple information.`

// Client calls the Sarvam chat completions API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// New builds a Sarvam client.
func New(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		log:        zerolog.New(os.Stdout).With().Timestamp().Str("component", "Sarvam").Logger(),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Reply generates a single devotional reply to a user message.
func (c *Client) Reply(ctx context.Context, userMessage string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.log.Error().Int("status", resp.StatusCode).Str("body", string(raw)).Msg("sarvam request rejected")
		return "", fmt.Errorf("sarvam returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("sarvam returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
