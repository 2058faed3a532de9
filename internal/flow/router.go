package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
)

// navAction is one entry of the stateless navigation dispatch table.
type navAction func(ctx context.Context, phone, lang string) ([]Reply, error)

func (e *Engine) buildNavTable() map[string]navAction {
	return map[string]navAction{
		"register": func(ctx context.Context, phone, _ string) ([]Reply, error) {
			return e.startRegistration(ctx, phone)
		},
		"seva_booking": func(ctx context.Context, phone, _ string) ([]Reply, error) {
			return e.startSevaBooking(ctx, phone)
		},
		"room_booking": func(ctx context.Context, phone, _ string) ([]Reply, error) {
			return e.startRoomBooking(ctx, phone)
		},
		"lang_en": func(ctx context.Context, phone, _ string) ([]Reply, error) {
			return e.setLanguage(ctx, phone, "en")
		},
		"lang_tel": func(ctx context.Context, phone, _ string) ([]Reply, error) {
			return e.setLanguage(ctx, phone, "tel")
		},
		"change_lang": func(_ context.Context, phone, _ string) ([]Reply, error) {
			return []Reply{languageMenu(phone)}, nil
		},
		"next_tithi": func(ctx context.Context, phone, lang string) ([]Reply, error) {
			return e.nextTithi(ctx, phone, lang)
		},
		"history": func(_ context.Context, phone, lang string) ([]Reply, error) {
			return []Reply{historyReply(phone, lang), mainMenu(phone, lang)}, nil
		},
		"timings": func(_ context.Context, phone, lang string) ([]Reply, error) {
			return []Reply{timingsReply(phone, lang), mainMenu(phone, lang)}, nil
		},
		"location": func(_ context.Context, phone, lang string) ([]Reply, error) {
			return []Reply{locationReply(phone, lang), mainMenu(phone, lang)}, nil
		},
		"darshan": func(_ context.Context, phone, lang string) ([]Reply, error) {
			return []Reply{darshanReply(phone, lang), mainMenu(phone, lang)}, nil
		},
		"my_bookings": func(ctx context.Context, phone, lang string) ([]Reply, error) {
			return e.listBookings(ctx, phone, lang)
		},
		"main_menu": func(_ context.Context, phone, lang string) ([]Reply, error) {
			return []Reply{mainMenu(phone, lang)}, nil
		},
	}
}

// HandleSelection processes a structured button or list selection. An
// active admin session takes precedence, then an active booking flow
// consumes selections; everything else goes through the navigation
// table. Unknown identifiers re-display the menu
// so the user is never left without a next action.
func (e *Engine) HandleSelection(ctx context.Context, phone, id string) ([]Reply, error) {
	// An active, unexpired admin session governs selections too; a menu
	// tap must never start a conversation flow alongside it.
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
		return []Reply{Text(phone, "Menu options are unavailable inside the admin console.\n\n"+adminHelpText)}, nil
	}

	sess, err := e.store.Session(ctx, phone)
	if err != nil {
		return nil, err
	}
	if sess != nil && sess.Flow == models.FlowBooking {
		return e.handleBookingSelection(ctx, sess, id)
	}
	if sess != nil && sess.Flow != models.FlowNone {
		// A menu selection mid-flow abandons nothing.
		return []Reply{Text(phone, "Please finish the current step first, or type 'cancel' to stop.")}, nil
	}

	lang, err := e.store.Language(ctx, phone)
	if err != nil {
		return nil, err
	}

	if action, ok := e.nav[id]; ok {
		return action(ctx, phone, lang)
	}

	return []Reply{invalidOptionReply(phone, lang), mainMenu(phone, lang)}, nil
}

func (e *Engine) setLanguage(ctx context.Context, phone, lang string) ([]Reply, error) {
	if err := e.store.SetLanguage(ctx, phone, lang); err != nil {
		return nil, err
	}
	return []Reply{mainMenu(phone, lang)}, nil
}

func (e *Engine) nextTithi(ctx context.Context, phone, lang string) ([]Reply, error) {
	if e.calendar == nil {
		return []Reply{Text(phone, "No upcoming tithis found."), mainMenu(phone, lang)}, nil
	}

	today := e.now()
	amavasya, hasAmavasya := e.calendar.NextEvent("amavasya", today)
	pournami, hasPournami := e.calendar.NextEvent("pournami", today)

	if !hasAmavasya && !hasPournami {
		return []Reply{Text(phone, "No upcoming tithis found."), mainMenu(phone, lang)}, nil
	}

	var b strings.Builder
	if hasAmavasya {
		fmt.Fprintf(&b, "🌑 Next Amavasya:\n%s\n\n", amavasya.DateISO)
	}
	if hasPournami {
		fmt.Fprintf(&b, "🌕 Next Pournami:\n%s", pournami.DateISO)
	}
	return []Reply{Text(phone, strings.TrimSpace(b.String())), mainMenu(phone, lang)}, nil
}

func (e *Engine) listBookings(ctx context.Context, phone, lang string) ([]Reply, error) {
	bookings, err := e.store.BookingsByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return []Reply{Text(phone, "You have no bookings yet."), mainMenu(phone, lang)}, nil
	}

	var b strings.Builder
	b.WriteString("📒 Your Bookings:\n")
	for _, bk := range bookings {
		what := bk.Item
		if what == "" {
			what = bk.RoomType
		}
		fmt.Fprintf(&b, "\n%s\n%s – %s\n", bk.BookingID, what, bk.Status)
	}
	return []Reply{Text(phone, strings.TrimSpace(b.String())), mainMenu(phone, lang)}, nil
}
