package webhook

// WhatsApp Cloud API webhook payload, trimmed to the fields the bot
// consumes.

type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Messages         []Message `json:"messages"`
}

type Message struct {
	ID          string       `json:"id"`
	From        string       `json:"from"`
	Type        string       `json:"type"`
	Text        *TextBody    `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type        string     `json:"type"`
	ListReply   *SelectRef `json:"list_reply,omitempty"`
	ButtonReply *SelectRef `json:"button_reply,omitempty"`
}

type SelectRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SelectionID returns the selected identifier regardless of whether the
// user tapped a list row or a button.
func (m *Message) SelectionID() string {
	if m.Interactive == nil {
		return ""
	}
	if m.Interactive.ListReply != nil {
		return m.Interactive.ListReply.ID
	}
	if m.Interactive.ButtonReply != nil {
		return m.Interactive.ButtonReply.ID
	}
	return ""
}

// PaymentEvent is the payment collaborator's webhook-style callback.
type PaymentEvent struct {
	Event       string `json:"event"`
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
}
