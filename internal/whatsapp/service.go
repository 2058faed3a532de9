// Package whatsapp delivers outbound message intents through the
// WhatsApp Business Cloud (Graph) API.
package whatsapp

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

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/flow"
)

type Config struct {
	Token         string
	PhoneNumberID string
	GraphVersion  string
}

type Service struct {
	cfg        *Config
	graphURL   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewService creates a new WhatsApp sender
func NewService(cfg *Config) *Service {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "WhatsApp").Logger()
	version := cfg.GraphVersion
	if version == "" {
		version = "v18.0"
	}
	return &Service{
		cfg:        cfg,
		graphURL:   fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", version, cfg.PhoneNumberID),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        logger,
	}
}

// Send delivers one reply intent produced by the conversation engine.
func (s *Service) Send(ctx context.Context, r flow.Reply) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                r.To,
	}

	switch r.Kind {
	case flow.KindText:
		payload["type"] = "text"
		payload["text"] = map[string]string{"body": r.Body}

	case flow.KindList:
		rows := make([]map[string]string, 0, len(r.Rows))
		for _, row := range r.Rows {
			rows = append(rows, map[string]string{"id": row.ID, "title": row.Title})
		}
		payload["type"] = "interactive"
		payload["interactive"] = map[string]any{
			"type": "list",
			"body": map[string]string{"text": r.Body},
			"action": map[string]any{
				"button": r.Button,
				"sections": []map[string]any{
					{"title": "Temple Services", "rows": rows},
				},
			},
		}

	case flow.KindImage:
		payload["type"] = "image"
		payload["image"] = map[string]string{"link": r.ImageURL, "caption": r.Caption}

	default:
		return fmt.Errorf("unknown reply kind %q", r.Kind)
	}

	return s.post(ctx, payload)
}

func (s *Service) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.graphURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		s.log.Error().Int("status", resp.StatusCode).Str("body", string(raw)).Msg("graph api rejected message")
		return fmt.Errorf("graph api returned status %d", resp.StatusCode)
	}
	s.log.Info().Int("status", resp.StatusCode).Msg("message delivered")
	return nil
}
