package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/flow"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/store"
)

type captureSender struct {
	sent []flow.Reply
}

func (c *captureSender) Send(_ context.Context, r flow.Reply) error {
	c.sent = append(c.sent, r)
	return nil
}

func newTestHandler(t *testing.T, cfg *Config) (*Handler, *captureSender, *store.Store) {
	t.Helper()
	st, err := store.OpenTest()
	require.NoError(t, err)
	engine := flow.New(st, nil, nil, nil, "SPJRSD")
	sender := &captureSender{}
	return NewHandler(cfg, st, engine, sender), sender, st
}

func textPayload(messageID, from, body string) []byte {
	payload := Payload{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			Changes: []Change{{
				Field: "messages",
				Value: Value{Messages: []Message{{
					ID:   messageID,
					From: from,
					Type: "text",
					Text: &TextBody{Body: body},
				}}},
			}},
		}},
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func postWebhook(h *Handler, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.Receive(w, req)
	return w
}

func TestVerifyHandshake(t *testing.T) {
	h, _, _ := newTestHandler(t, &Config{VerifyToken: "vtoken"})

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=vtoken&hub.challenge=12345", nil)
	w := httptest.NewRecorder()
	h.Verify(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String())

	req = httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	w = httptest.NewRecorder()
	h.Verify(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDuplicateDeliveryProcessedOnce(t *testing.T) {
	h, sender, _ := newTestHandler(t, &Config{})

	body := textPayload("wamid.dup1", "919876500000", "hi")

	w := postWebhook(h, body, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	firstCount := len(sender.sent)
	assert.Greater(t, firstCount, 0, "first delivery produces replies")

	// Redelivery: acknowledged, but no second side effect.
	w = postWebhook(h, body, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, firstCount, len(sender.sent))
}

func TestBadSignatureDropped(t *testing.T) {
	h, sender, st := newTestHandler(t, &Config{AppSecret: "topsecret"})

	body := textPayload("wamid.sig1", "919876500000", "hi")
	w := postWebhook(h, body, map[string]string{"X-Hub-Signature-256": "sha256=deadbeef"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, sender.sent)

	// A rejected delivery leaves no durable trace.
	first, err := st.MarkProcessed(context.Background(), "wamid.sig1")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestGoodSignatureAccepted(t *testing.T) {
	h, sender, _ := newTestHandler(t, &Config{AppSecret: "topsecret"})

	body := textPayload("wamid.sig2", "919876500000", "hi")
	w := postWebhook(h, body, map[string]string{"X-Hub-Signature-256": sign("topsecret", body)})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, sender.sent)
}

func TestMalformedPayloadAcknowledgedNeutrally(t *testing.T) {
	h, sender, _ := newTestHandler(t, &Config{})

	w := postWebhook(h, []byte("{not json"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "malformed")
	assert.Empty(t, sender.sent)
}

func TestEventWithoutMessagesIgnored(t *testing.T) {
	h, sender, _ := newTestHandler(t, &Config{})

	w := postWebhook(h, []byte(`{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"statuses","value":{}}]}]}`), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sender.sent)
}

func TestInteractiveSelectionDispatch(t *testing.T) {
	h, sender, _ := newTestHandler(t, &Config{})

	payload := Payload{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			Changes: []Change{{
				Field: "messages",
				Value: Value{Messages: []Message{{
					ID:   "wamid.int1",
					From: "919876500000",
					Type: "interactive",
					Interactive: &Interactive{
						Type:      "list_reply",
						ListReply: &SelectRef{ID: "register", Title: "Register Devotee"},
					},
				}}},
			}},
		}},
	}
	raw, _ := json.Marshal(payload)

	w := postWebhook(h, raw, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, sender.sent)
	assert.Contains(t, sender.sent[0].Body, "Enter Full Name")
}

func TestPaymentCallbackConfirmsBooking(t *testing.T) {
	h, sender, st := newTestHandler(t, &Config{PaymentSecret: "paysecret"})
	ctx := context.Background()

	booking := &models.Booking{
		BookingID: "SPJRSD-AC-202603141030-0001",
		Phone:     "919876500000",
		Category:  models.CategoryAccommodation,
		Status:    models.BookingPending,
		CreatedAt: time.Now(),
	}
	require.NoError(t, st.CreateBooking(ctx, booking))

	body, _ := json.Marshal(PaymentEvent{
		Event:       "payment_link.paid",
		ReferenceID: booking.BookingID,
		Status:      "paid",
	})

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", sign("paysecret", body))
	w := httptest.NewRecorder()
	h.Payment(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	got, err := st.Booking(ctx, booking.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPaid, got.Status)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Body, booking.BookingID)
}

func TestPaymentCallbackBadSignatureDropped(t *testing.T) {
	h, sender, _ := newTestHandler(t, &Config{PaymentSecret: "paysecret"})

	body := []byte(`{"event":"payment_link.paid","reference_id":"x","status":"paid"}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", fmt.Sprintf("%x", []byte("garbage-digest-32-bytes-padding!")))
	w := httptest.NewRecorder()
	h.Payment(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, sender.sent)
}
