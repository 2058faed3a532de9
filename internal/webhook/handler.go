// Package webhook is the inbound HTTP boundary: challenge verification,
// signature authentication, idempotent ingestion and dispatch into the
// conversation engine.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/flow"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/phone"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/store"
)

// turnTimeout bounds the durable-store work of one inbound turn. A
// timeout is a transient failure, not a crash.
const turnTimeout = 5 * time.Second

// Sender delivers reply intents to the messaging collaborator.
type Sender interface {
	Send(ctx context.Context, r flow.Reply) error
}

type Config struct {
	VerifyToken   string
	AppSecret     string
	PaymentSecret string
}

type Handler struct {
	cfg    *Config
	store  *store.Store
	engine *flow.Engine
	sender Sender
	log    zerolog.Logger
}

// NewHandler wires the webhook boundary.
func NewHandler(cfg *Config, st *store.Store, engine *flow.Engine, sender Sender) *Handler {
	return &Handler{
		cfg:    cfg,
		store:  st,
		engine: engine,
		sender: sender,
		log:    zerolog.New(os.Stdout).With().Timestamp().Str("component", "Webhook").Logger(),
	}
}

// Verify answers the Graph subscription handshake: echo the challenge
// when the mode and token match, otherwise fail.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.cfg.VerifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "Verification failed", http.StatusForbidden)
}

// Receive handles one inbound webhook delivery. Authentication failures
// drop the delivery; duplicates and malformed events are acknowledged
// neutrally; only transport-level problems surface as non-200.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read failed", http.StatusBadRequest)
		return
	}

	if h.cfg.AppSecret == "" {
		h.log.Warn().Msg("APP_SECRET not configured, accepting unauthenticated webhook delivery")
	} else if !ValidSignature(h.cfg.AppSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		h.log.Warn().Msg("dropping webhook delivery with bad signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.log.Error().Err(err).Msg("malformed webhook payload")
		h.ack(w, "malformed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()

	status := "ok"
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for i := range change.Value.Messages {
				status = h.processMessage(ctx, &change.Value.Messages[i])
			}
		}
	}
	h.ack(w, status)
}

// processMessage runs the idempotency gate and dispatches one message
// into the engine. The returned status is informational only.
func (h *Handler) processMessage(ctx context.Context, msg *Message) string {
	// Synthetic events without a source-assigned id bypass the guard.
	if msg.ID != "" {
		first, err := h.store.MarkProcessed(ctx, msg.ID)
		if err != nil {
			h.log.Error().Err(err).Str("message_id", msg.ID).Msg("idempotency gate unavailable")
			return "retry"
		}
		if !first {
			h.log.Info().Str("message_id", msg.ID).Msg("duplicate delivery acknowledged")
			return "duplicate"
		}
	}

	sender := phone.Canonical(msg.From)
	if !phone.Valid(sender) {
		h.log.Error().Str("from", msg.From).Msg("event with unusable sender identity")
		return "malformed"
	}

	var (
		replies []flow.Reply
		err     error
	)
	switch msg.Type {
	case "text":
		if msg.Text == nil {
			h.log.Error().Str("message_id", msg.ID).Msg("text event without body")
			return "malformed"
		}
		replies, err = h.engine.HandleText(ctx, sender, msg.Text.Body)
	case "interactive":
		id := msg.SelectionID()
		if id == "" {
			h.log.Error().Str("message_id", msg.ID).Msg("interactive event without selection")
			return "malformed"
		}
		replies, err = h.engine.HandleSelection(ctx, sender, id)
	default:
		h.log.Info().Str("type", msg.Type).Msg("ignoring unsupported message type")
		return "ignored"
	}

	if err != nil {
		// Transient store failure: abort the turn, tell the user to retry.
		h.log.Error().Err(err).Str("phone", sender).Msg("turn aborted")
		replies = []flow.Reply{flow.Text(sender, "🙏 We are facing a temporary problem. Please try again in a few minutes.")}
	}

	h.deliver(ctx, replies)
	return "ok"
}

func (h *Handler) deliver(ctx context.Context, replies []flow.Reply) {
	for _, r := range replies {
		if err := h.sender.Send(ctx, r); err != nil {
			h.log.Error().Err(err).Str("to", r.To).Msg("failed to deliver reply")
		}
	}
}

// Payment handles the payment collaborator's callback. Same HMAC pattern
// as the message webhook, distinct shared secret.
func (h *Handler) Payment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read failed", http.StatusBadRequest)
		return
	}

	if h.cfg.PaymentSecret == "" {
		h.log.Warn().Msg("payment webhook secret not configured, accepting unauthenticated callback")
	} else if !ValidSignature(h.cfg.PaymentSecret, body, r.Header.Get("X-Razorpay-Signature")) {
		h.log.Warn().Msg("dropping payment callback with bad signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var event PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.log.Error().Err(err).Msg("malformed payment callback")
		h.ack(w, "malformed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()

	replies, err := h.engine.HandlePaymentEvent(ctx, event.ReferenceID, event.Status)
	if err != nil {
		h.log.Error().Err(err).Str("reference_id", event.ReferenceID).Msg("payment event aborted")
		h.ack(w, "retry")
		return
	}
	h.deliver(ctx, replies)
	h.ack(w, "ok")
}

func (h *Handler) ack(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
