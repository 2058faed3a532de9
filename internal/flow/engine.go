// Package flow is the per-phone conversation engine: it turns normalized
// inbound text or list selections plus the durable session record into a
// deterministic state transition and a set of outbound reply intents.
package flow

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/payment"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/store"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/tithi"
)

// Calendar is the read-only lunar calendar collaborator.
type Calendar interface {
	NextEvent(tithiType string, after time.Time) (*tithi.Event, bool)
}

// PaymentLinker creates payment links for paid booking categories.
type PaymentLinker interface {
	CreateLink(ctx context.Context, amountPaise int64, reference, description string) (*payment.Link, error)
}

// Assistant produces AI replies for free text outside any flow.
type Assistant interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Engine dispatches each inbound turn against the durable session state.
type Engine struct {
	store     *store.Store
	calendar  Calendar
	payments  PaymentLinker
	assistant Assistant
	orgPrefix string
	nav       map[string]navAction
	log       zerolog.Logger
	now       func() time.Time
}

// New builds the engine. calendar, payments and assistant may be nil when
// the corresponding collaborator is not configured.
func New(st *store.Store, calendar Calendar, payments PaymentLinker, assistant Assistant, orgPrefix string) *Engine {
	e := &Engine{
		store:     st,
		calendar:  calendar,
		payments:  payments,
		assistant: assistant,
		orgPrefix: orgPrefix,
		log:       zerolog.New(os.Stdout).With().Timestamp().Str("component", "FlowEngine").Logger(),
		now:       time.Now,
	}
	e.nav = e.buildNavTable()
	return e
}

// SetNow overrides the clock; tests only.
func (e *Engine) SetNow(now func() time.Time) { e.now = now }

var greetings = map[string]bool{
	"hi": true, "hello": true, "namaste": true, "start": true,
	"menu": true, "main menu": true,
}

func isAffirmative(lower string) bool {
	switch lower {
	case "yes", "y", "ok", "confirm":
		return true
	}
	return false
}

// HandleText processes one free-text turn for a phone. The returned error
// is always a transient store failure; every flow-level condition is
// recovered into replies.
func (e *Engine) HandleText(ctx context.Context, phone, text string) ([]Reply, error) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	// An active, unexpired admin session takes routing precedence.
	adminSess, err := e.store.AdminSession(ctx, phone)
	if err != nil {
		return nil, err
	}
	if adminSess != nil && adminSess.Active {
		if e.now().After(adminSess.ExpiresAt) {
			if err := e.expireAdminSession(ctx, phone); err != nil {
				return nil, err
			}
			return []Reply{Text(phone, adminExpiredText)}, nil
		}
		return e.handleAdminTurn(ctx, phone, adminSess, trimmed)
	}

	sess, err := e.store.Session(ctx, phone)
	if err != nil {
		return nil, err
	}
	if sess != nil && sess.Flow != models.FlowNone {
		// Cancellation wins over step logic in every flow state.
		if lower == "cancel" {
			return e.cancelFlow(ctx, phone, sess)
		}

		var (
			replies []Reply
			flowErr error
		)
		switch sess.Flow {
		case models.FlowRegistration:
			replies, flowErr = e.handleRegistrationText(ctx, sess, trimmed, lower)
		case models.FlowBooking:
			replies, flowErr = e.handleBookingText(ctx, sess, trimmed, lower)
		default:
			// Unknown flow tag in a stale record.
			if err := e.store.DeleteSession(ctx, phone); err != nil {
				return nil, err
			}
			flowErr = ErrNoActiveSession
		}
		if flowErr == nil {
			return replies, nil
		}
		if !errors.Is(flowErr, ErrNoActiveSession) {
			return nil, flowErr
		}
		// The session is gone: recover by treating the turn as
		// idle-menu input rather than raising.
	}

	// Admin login attempt: "admin <key>". Only idle text qualifies, so a
	// flow answer that happens to start with "admin" fills its field.
	if fields := strings.Fields(trimmed); len(fields) == 2 && strings.EqualFold(fields[0], "admin") {
		return e.adminLogin(ctx, phone, fields[1])
	}

	lang, err := e.store.Language(ctx, phone)
	if err != nil {
		return nil, err
	}

	if greetings[lower] {
		return []Reply{mainMenu(phone, lang)}, nil
	}

	return e.assistantReply(ctx, phone, lang, trimmed), nil
}

// cancelFlow clears the session and acknowledges before any step logic.
func (e *Engine) cancelFlow(ctx context.Context, phone string, sess *models.Session) ([]Reply, error) {
	if err := e.store.DeleteSession(ctx, phone); err != nil {
		return nil, err
	}
	lang, err := e.store.Language(ctx, phone)
	if err != nil {
		return nil, err
	}
	var ack string
	switch sess.Flow {
	case models.FlowRegistration:
		ack = "Registration cancelled."
	case models.FlowBooking:
		ack = "Booking cancelled."
	default:
		ack = "Cancelled."
	}
	return []Reply{Text(phone, ack), mainMenu(phone, lang)}, nil
}

// assistantReply falls back to the AI collaborator for unmatched text.
func (e *Engine) assistantReply(ctx context.Context, phone, lang, text string) []Reply {
	if e.assistant == nil {
		return []Reply{Text(phone, "Please use menu options."), mainMenu(phone, lang)}
	}
	answer, err := e.assistant.Reply(ctx, text)
	if err != nil {
		e.log.Error().Err(err).Msg("assistant reply failed")
		return []Reply{Text(phone, aiUnavailableText)}
	}
	return []Reply{Text(phone, answer)}
}

// HandlePaymentEvent applies a payment-collaborator callback to the
// referenced booking and notifies the devotee.
func (e *Engine) HandlePaymentEvent(ctx context.Context, referenceID, status string) ([]Reply, error) {
	booking, err := e.store.Booking(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		e.log.Error().Str("reference_id", referenceID).Msg("payment callback for unknown booking")
		return nil, nil
	}

	var next models.BookingStatus
	switch status {
	case "paid":
		next = models.BookingPaid
	case "refunded":
		next = models.BookingRefunded
	case "cancelled":
		next = models.BookingCancelled
	default:
		e.log.Error().Str("status", status).Msg("payment callback with unknown status")
		return nil, nil
	}
	if err := e.store.UpdateBookingStatus(ctx, booking.BookingID, next); err != nil {
		return nil, err
	}

	if next == models.BookingPaid {
		return []Reply{Text(booking.Phone,
			"✅ Payment received!\nBooking "+booking.BookingID+" is confirmed. 🙏")}, nil
	}
	return nil, nil
}
