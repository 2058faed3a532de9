package flow

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
)

// Booking flow steps.
const (
	stepSelectItem     = "select_item"
	stepSelectDate     = "select_date"
	stepSelectRoomType = "select_room_type"
)

type sevaItem struct {
	Title       string
	AmountPaise int64
}

var sevaItems = map[string]sevaItem{
	"seva_abhishekam":   {Title: "Abhishekam", AmountPaise: 11600},
	"seva_archana":      {Title: "Archana", AmountPaise: 5100},
	"seva_kalyanam":     {Title: "Swamy Kalyanam", AmountPaise: 51600},
	"seva_annadanam":    {Title: "Annadanam Seva", AmountPaise: 101600},
	"seva_rudrabhishek": {Title: "Rudrabhishekam", AmountPaise: 25100},
}

// Presentation order for the seva list message.
var sevaOrder = []string{
	"seva_abhishekam", "seva_archana", "seva_kalyanam", "seva_annadanam", "seva_rudrabhishek",
}

type roomType struct {
	Title       string
	AmountPaise int64
}

var roomTypes = map[string]roomType{
	"room_standard": {Title: "Standard Room (non-AC)", AmountPaise: 50000},
	"room_ac":       {Title: "AC Room", AmountPaise: 100000},
	"room_suite":    {Title: "Family Suite", AmountPaise: 200000},
}

var roomOrder = []string{"room_standard", "room_ac", "room_suite"}

func sevaListReply(to string) Reply {
	rows := make([]Row, 0, len(sevaOrder))
	for _, id := range sevaOrder {
		item := sevaItems[id]
		rows = append(rows, Row{ID: id, Title: fmt.Sprintf("%s – ₹%d", item.Title, item.AmountPaise/100)})
	}
	return List(to, "🪔 Choose a Seva:\n(Type 'cancel' anytime to stop)", rows)
}

func roomListReply(to string) Reply {
	rows := make([]Row, 0, len(roomOrder))
	for _, id := range roomOrder {
		rt := roomTypes[id]
		rows = append(rows, Row{ID: id, Title: fmt.Sprintf("%s – ₹%d/day", rt.Title, rt.AmountPaise/100)})
	}
	return List(to, "🏨 Choose a Room Type:\n(Type 'cancel' anytime to stop)", rows)
}

func (e *Engine) startSevaBooking(ctx context.Context, phone string) ([]Reply, error) {
	sess := &models.Session{
		Phone: phone,
		Flow:  models.FlowBooking,
		Step:  stepSelectItem,
		Data:  datatypes.JSONMap{"category": models.CategorySeva},
	}
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return []Reply{sevaListReply(phone)}, nil
}

func (e *Engine) startRoomBooking(ctx context.Context, phone string) ([]Reply, error) {
	sess := &models.Session{
		Phone: phone,
		Flow:  models.FlowBooking,
		Step:  stepSelectRoomType,
		Data:  datatypes.JSONMap{"category": models.CategoryAccommodation},
	}
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return []Reply{roomListReply(phone)}, nil
}

// handleBookingSelection consumes a structured list selection while a
// booking flow is active.
func (e *Engine) handleBookingSelection(ctx context.Context, sess *models.Session, id string) ([]Reply, error) {
	phone := sess.Phone

	switch sess.Step {
	case stepSelectItem:
		item, ok := sevaItems[id]
		if !ok {
			return []Reply{Text(phone, "Please pick a seva from the list."), sevaListReply(phone)}, nil
		}
		sess.Data["item"] = item.Title
		sess.Data["amount_paise"] = item.AmountPaise
		sess.Step = stepSelectDate
		if err := e.store.SaveSession(ctx, sess); err != nil {
			return nil, err
		}
		return []Reply{Text(phone, "📅 Enter preferred date (YYYY-MM-DD):")}, nil

	case stepSelectRoomType:
		rt, ok := roomTypes[id]
		if !ok {
			return []Reply{Text(phone, "Please pick a room type from the list."), roomListReply(phone)}, nil
		}
		return e.finalizeAccommodation(ctx, sess, rt)
	}

	// A selection that arrives for a text-input step is a harmless
	// re-prompt, never corruption.
	return e.repromptBooking(sess), nil
}

// handleBookingText consumes free text while a booking flow is active.
func (e *Engine) handleBookingText(ctx context.Context, sess *models.Session, trimmed, lower string) ([]Reply, error) {
	phone := sess.Phone

	if sess.Step != stepSelectDate {
		return e.repromptBooking(sess), nil
	}

	date, err := parseEventDate(trimmed)
	if err != nil {
		return []Reply{Text(phone, "Please send the date as YYYY-MM-DD, e.g. 2026-03-14.")}, nil
	}
	if date.Before(e.now().Truncate(24 * time.Hour)) {
		return []Reply{Text(phone, "That date is in the past. Please send an upcoming date.")}, nil
	}

	sess.Data["event_date"] = date.Format("2006-01-02")
	return e.finalizeSeva(ctx, sess)
}

func (e *Engine) repromptBooking(sess *models.Session) []Reply {
	switch sess.Step {
	case stepSelectItem:
		return []Reply{sevaListReply(sess.Phone)}
	case stepSelectRoomType:
		return []Reply{roomListReply(sess.Phone)}
	case stepSelectDate:
		return []Reply{Text(sess.Phone, "📅 Enter preferred date (YYYY-MM-DD):")}
	}
	return []Reply{Text(sess.Phone, "Please type 'cancel' and start again from the menu.")}
}

func parseEventDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// finalizeSeva is the seva flow's terminal transition: issue a booking id,
// persist the booking as pending, and reset the session to idle.
func (e *Engine) finalizeSeva(ctx context.Context, sess *models.Session) ([]Reply, error) {
	phone := sess.Phone

	bookingID, err := e.newBookingID(ctx, models.CategorySeva)
	if err != nil {
		return nil, err
	}
	booking := &models.Booking{
		BookingID:   bookingID,
		Phone:       phone,
		Category:    models.CategorySeva,
		Item:        dataString(sess.Data, "item"),
		EventDate:   dataString(sess.Data, "event_date"),
		AmountPaise: dataInt(sess.Data, "amount_paise"),
		Status:      models.BookingPending,
		CreatedAt:   e.now(),
	}
	if err := e.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	if err := e.store.DeleteSession(ctx, phone); err != nil {
		return nil, err
	}
	lang, err := e.store.Language(ctx, phone)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("🪔 Seva booked!\n\nBooking ID: %s\nSeva: %s\nDate: %s\n\nPlease pay the seva amount of ₹%d at the temple counter. 🙏",
		booking.BookingID, booking.Item, booking.EventDate, booking.AmountPaise/100)
	return []Reply{Text(phone, msg), mainMenu(phone, lang)}, nil
}

// finalizeAccommodation is the accommodation flow's terminal transition:
// the booking stays pending until the payment callback confirms it.
func (e *Engine) finalizeAccommodation(ctx context.Context, sess *models.Session, rt roomType) ([]Reply, error) {
	phone := sess.Phone

	bookingID, err := e.newBookingID(ctx, models.CategoryAccommodation)
	if err != nil {
		return nil, err
	}
	booking := &models.Booking{
		BookingID:   bookingID,
		Phone:       phone,
		Category:    models.CategoryAccommodation,
		RoomType:    rt.Title,
		AmountPaise: rt.AmountPaise,
		Status:      models.BookingPending,
		CreatedAt:   e.now(),
	}

	var payMsg string
	if e.payments != nil {
		link, linkErr := e.payments.CreateLink(ctx, rt.AmountPaise, bookingID, "Accommodation: "+rt.Title)
		if linkErr != nil {
			e.log.Error().Err(linkErr).Str("booking_id", bookingID).Msg("payment link creation failed")
			payMsg = "Our team will contact you shortly to collect the payment."
		} else {
			booking.PaymentRef = link.ID
			payMsg = "Pay here to confirm your booking:\n" + link.ShortURL
		}
	} else {
		payMsg = "Our team will contact you shortly to collect the payment."
	}

	if err := e.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	if err := e.store.DeleteSession(ctx, phone); err != nil {
		return nil, err
	}
	lang, err := e.store.Language(ctx, phone)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("🏨 Accommodation requested!\n\nBooking ID: %s\nRoom: %s\nAmount: ₹%d\n\n%s",
		booking.BookingID, booking.RoomType, booking.AmountPaise/100, payMsg)
	return []Reply{Text(phone, msg), mainMenu(phone, lang)}, nil
}

func dataInt(data map[string]any, key string) int64 {
	switch v := data[key].(type) {
	case int64:
		return v
	case float64:
		// JSON round-trips numbers as float64.
		return int64(v)
	}
	return 0
}
