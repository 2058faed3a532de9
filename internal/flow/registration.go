package flow

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
)

// Registration flow steps, in order.
const (
	stepName    = "name"
	stepGotram  = "gotram"
	stepAddress = "address"
	stepMobile  = "mobile"
	stepEmail   = "email"
	stepConfirm = "confirm"
)

const notProvided = "Not Provided"

// regStep is one row of the registration state table: which field the
// current input fills and where the flow goes next.
type regStep struct {
	field      string
	optional   bool // "no" records the field as Not Provided
	next       string
	nextPrompt string
}

var registrationSteps = map[string]regStep{
	stepName:    {field: "full_name", next: stepGotram, nextPrompt: "Enter Gotram (or type no):"},
	stepGotram:  {field: "gotram", optional: true, next: stepAddress, nextPrompt: "Enter Address:"},
	stepAddress: {field: "address", next: stepMobile, nextPrompt: "Enter Mobile:"},
	stepMobile:  {field: "mobile", next: stepEmail, nextPrompt: "Enter Email (or type no):"},
	stepEmail:   {field: "email", optional: true, next: stepConfirm},
}

// startRegistration enters the registration flow unless the phone already
// holds an active profile.
func (e *Engine) startRegistration(ctx context.Context, phone string) ([]Reply, error) {
	devotee, err := e.store.Devotee(ctx, phone)
	if err != nil {
		return nil, err
	}
	lang, err := e.store.Language(ctx, phone)
	if err != nil {
		return nil, err
	}
	if devotee != nil && devotee.RegistrationStatus == models.RegistrationActive {
		return []Reply{
			Text(phone, "🙏 You are already registered."),
			mainMenu(phone, lang),
		}, nil
	}

	sess := &models.Session{
		Phone: phone,
		Flow:  models.FlowRegistration,
		Step:  stepName,
		Data:  datatypes.JSONMap{},
	}
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return []Reply{Text(phone, "📝 Enter Full Name:\n(Type 'cancel' anytime to stop)")}, nil
}

// handleRegistrationText advances the registration state machine by one
// turn. Cancellation is already handled by the caller.
func (e *Engine) handleRegistrationText(ctx context.Context, sess *models.Session, trimmed, lower string) ([]Reply, error) {
	phone := sess.Phone

	if sess.Step == stepConfirm {
		return e.finishRegistration(ctx, sess, lower)
	}

	step, ok := registrationSteps[sess.Step]
	if !ok {
		// Corrupt or legacy step tag: clear the record and let the
		// caller recover the turn as idle input.
		e.log.Error().Str("phone", phone).Str("step", sess.Step).Msg("unknown registration step")
		if err := e.store.DeleteSession(ctx, phone); err != nil {
			return nil, err
		}
		return nil, ErrNoActiveSession
	}

	if trimmed == "" {
		return []Reply{Text(phone, "Please type a value, or 'cancel' to stop.")}, nil
	}

	value := trimmed
	if step.optional && lower == "no" {
		value = notProvided
	}
	sess.Data[step.field] = value
	sess.Step = step.next
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}

	if step.next == stepConfirm {
		return []Reply{Text(phone, registrationSummary(sess.Data))}, nil
	}
	return []Reply{Text(phone, step.nextPrompt)}, nil
}

// finishRegistration handles the confirm step: an affirmative reply
// upserts the profile, anything else discards the collected data. The
// profile is written before the session is cleared, so a failed write
// leaves the confirm step intact for a retry.
func (e *Engine) finishRegistration(ctx context.Context, sess *models.Session, lower string) ([]Reply, error) {
	phone := sess.Phone

	if !isAffirmative(lower) {
		if err := e.store.DeleteSession(ctx, phone); err != nil {
			return nil, err
		}
		lang, err := e.store.Language(ctx, phone)
		if err != nil {
			return nil, err
		}
		return []Reply{
			Text(phone, "Registration discarded. Nothing was saved."),
			mainMenu(phone, lang),
		}, nil
	}

	devotee := &models.Devotee{
		Phone:              phone,
		FullName:           dataString(sess.Data, "full_name"),
		Gotram:             dataString(sess.Data, "gotram"),
		Address:            dataString(sess.Data, "address"),
		Mobile:             dataString(sess.Data, "mobile"),
		Email:              dataString(sess.Data, "email"),
		RegistrationStatus: models.RegistrationActive,
		RegisteredAt:       e.now(),
	}
	if err := e.store.UpsertDevotee(ctx, devotee); err != nil {
		return nil, err
	}
	if err := e.store.DeleteSession(ctx, phone); err != nil {
		return nil, err
	}
	lang, err := e.store.Language(ctx, phone)
	if err != nil {
		return nil, err
	}

	return []Reply{
		Text(phone, "🎉 Registration Successful!\nMay Lord Shiva bless you 🙏"),
		mainMenu(phone, lang),
	}, nil
}

func registrationSummary(data map[string]any) string {
	return fmt.Sprintf(
		"Please confirm your details:\n\nName: %s\nGotram: %s\nAddress: %s\nMobile: %s\nEmail: %s\n\nReply 'yes' to save, anything else to discard.",
		dataString(data, "full_name"),
		dataString(data, "gotram"),
		dataString(data, "address"),
		dataString(data, "mobile"),
		dataString(data, "email"),
	)
}

func dataString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
