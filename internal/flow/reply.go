package flow

// ReplyKind selects the outbound WhatsApp message shape.
type ReplyKind string

const (
	KindText  ReplyKind = "text"
	KindList  ReplyKind = "list"
	KindImage ReplyKind = "image"
)

// Row is one selectable entry of an interactive list message.
type Row struct {
	ID    string
	Title string
}

// Reply is an outbound message intent. The engine never talks to the
// transport; the messaging adapter consumes these.
type Reply struct {
	To       string
	Kind     ReplyKind
	Body     string
	Button   string
	Rows     []Row
	ImageURL string
	Caption  string
}

// Text builds a plain text reply intent.
func Text(to, body string) Reply {
	return Reply{To: to, Kind: KindText, Body: body}
}

// List builds an interactive list reply intent.
func List(to, body string, rows []Row) Reply {
	return Reply{To: to, Kind: KindList, Body: body, Button: "Select Option", Rows: rows}
}

// Image builds an image reply intent.
func Image(to, url, caption string) Reply {
	return Reply{To: to, Kind: KindImage, ImageURL: url, Caption: caption}
}
