package flow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/flow"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/store"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/tithi"
)

func TestUnknownSelectionNeverDeadEnds(t *testing.T) {
	e, _ := newEngine(t)

	replies, err := e.HandleSelection(context.Background(), testPhone, "bogus_option")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "Invalid option selected.", replies[0].Body)
	assert.Equal(t, flow.KindList, replies[1].Kind, "the menu must follow so the user has a next action")
}

func TestLanguageSwitchPersists(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()

	replies, err := e.HandleSelection(ctx, testPhone, "change_lang")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Choose Language")

	replies, err = e.HandleSelection(ctx, testPhone, "lang_tel")
	require.NoError(t, err)
	assert.Equal(t, "ప్రధాన మెను:", replies[0].Body)

	lang, err := st.Language(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, "tel", lang)

	// The preference survives into later turns.
	replies, err = e.HandleText(ctx, testPhone, "hi")
	require.NoError(t, err)
	assert.Equal(t, "ప్రధాన మెను:", replies[0].Body)
}

func TestNextTithiReportsBothTypes(t *testing.T) {
	st, err := store.OpenTest()
	require.NoError(t, err)
	calendar := tithi.New([]tithi.Event{
		{DateISO: "2026-03-19", TithiType: "amavasya"},
		{DateISO: "2026-03-03", TithiType: "pournami"},
	})
	e := flow.New(st, calendar, nil, nil, "SPJRSD")
	e.SetNow(func() time.Time { return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC) })

	replies, err := e.HandleSelection(context.Background(), testPhone, "next_tithi")
	require.NoError(t, err)
	body := replies[0].Body
	assert.Contains(t, body, "2026-03-19")
	assert.Contains(t, body, "2026-03-03")
}

func TestNextTithiWithoutCalendar(t *testing.T) {
	e, _ := newEngine(t)

	replies, err := e.HandleSelection(context.Background(), testPhone, "next_tithi")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "No upcoming tithis")
}

func TestHistorySendsImage(t *testing.T) {
	e, _ := newEngine(t)

	replies, err := e.HandleSelection(context.Background(), testPhone, "history")
	require.NoError(t, err)
	require.NotEmpty(t, replies)
	assert.Equal(t, flow.KindImage, replies[0].Kind)
	assert.NotEmpty(t, replies[0].ImageURL)
}

func TestMyBookingsEmpty(t *testing.T) {
	e, _ := newEngine(t)

	replies, err := e.HandleSelection(context.Background(), testPhone, "my_bookings")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "no bookings")
}

func TestIdleFreeTextWithoutAssistant(t *testing.T) {
	e, _ := newEngine(t)

	replies, err := e.HandleText(context.Background(), testPhone, "what are the timings")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "Please use menu options.", replies[0].Body)
	assert.Equal(t, flow.KindList, replies[1].Kind)
}

type fakeAssistant struct{ answer string }

func (f *fakeAssistant) Reply(_ context.Context, _ string) (string, error) {
	return f.answer, nil
}

func TestIdleFreeTextGoesToAssistant(t *testing.T) {
	st, err := store.OpenTest()
	require.NoError(t, err)
	e := flow.New(st, nil, nil, &fakeAssistant{answer: "The temple opens at 5 AM."}, "SPJRSD")

	replies, err := e.HandleText(context.Background(), testPhone, "when does the temple open")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "The temple opens at 5 AM.", replies[0].Body)
}
