package reply

// Type tags the payload carried by a Message.
type Type string

const (
	TypeText     Type = "text"
	TypeSticker  Type = "sticker"
	TypeImage    Type = "image"
	TypeVideo    Type = "video"
	TypeLocation Type = "location"
)

// Message is one outbound payload. Exactly one of the pointer fields matching
// Type is populated.
type Message struct {
	Type     Type
	Text     *Text
	Sticker  *Sticker
	Image    *Media
	Video    *Media
	Location *Location
}

// Text is a plain text bubble.
type Text struct {
	Body string
}

// Sticker references a platform sticker.
type Sticker struct {
	PackageID string
	StickerID string
}

// Media is an image or video hosted at a public URL.
type Media struct {
	ContentURL string
	PreviewURL string
}

// Location is a pinned map location.
type Location struct {
	Title     string
	Address   string
	Latitude  float64
	Longitude float64
}

func NewText(body string) Message {
	return Message{Type: TypeText, Text: &Text{Body: body}}
}

func NewSticker(s Sticker) Message {
	return Message{Type: TypeSticker, Sticker: &s}
}

func NewImage(m Media) Message {
	return Message{Type: TypeImage, Image: &m}
}

func NewVideo(m Media) Message {
	return Message{Type: TypeVideo, Video: &m}
}

func NewLocation(l Location) Message {
	return Message{Type: TypeLocation, Location: &l}
}

// FirstText returns the body of the first text message in msgs.
func FirstText(msgs []Message) (string, bool) {
	for _, msg := range msgs {
		if msg.Type == TypeText && msg.Text != nil {
			return msg.Text.Body, true
		}
	}
	return "", false
}
