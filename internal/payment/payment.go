// Package payment creates payment links for paid bookings via the
// Razorpay payment-links API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const linksURL = "https://api.razorpay.com/v1/payment_links"

// ErrDisabled is returned when no API credentials are configured.
var ErrDisabled = errors.New("payment provider not configured")

// Link is a created payment link.
type Link struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
}

// Client talks to the payment provider.
type Client struct {
	keyID      string
	keySecret  string
	httpClient *http.Client
	log        zerolog.Logger
}

// New builds a payment client. Empty credentials yield a disabled client
// whose CreateLink returns ErrDisabled.
func New(keyID, keySecret string) *Client {
	return &Client{
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        zerolog.New(os.Stdout).With().Timestamp().Str("component", "Payment").Logger(),
	}
}

// Enabled reports whether credentials are configured.
func (c *Client) Enabled() bool { return c.keyID != "" && c.keySecret != "" }

// CreateLink requests a payment link for the given amount, carrying the
// booking id as the provider-side reference.
func (c *Client) CreateLink(ctx context.Context, amountPaise int64, reference, description string) (*Link, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	body := map[string]any{
		"amount":       amountPaise,
		"currency":     "INR",
		"reference_id": reference,
		"description":  description,
		"receipt":      uuid.NewString(),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment link request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, linksURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment link request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment link request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.log.Error().Int("status", resp.StatusCode).Str("body", string(raw)).Msg("payment link creation rejected")
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var link Link
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil, fmt.Errorf("failed to decode payment link response: %w", err)
	}
	c.log.Info().Str("link_id", link.ID).Str("reference", reference).Msg("payment link created")
	return &link, nil
}
