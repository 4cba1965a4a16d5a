package event

// Kind enumerates the inbound message types the relay understands.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindVideo
	KindSticker
	KindLocation
	KindOther
)

// String returns a stable lowercase name, used in logs.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindSticker:
		return "sticker"
	case KindLocation:
		return "location"
	default:
		return "other"
	}
}

// Coordinates is a latitude/longitude pair shared by the user.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Inbound is a single chat message received from the platform.
// Text is set only for KindText, Coordinates only for KindLocation.
type Inbound struct {
	SenderID    string
	Kind        Kind
	Text        string
	Coordinates *Coordinates
	ReplyToken  string
}

// NewText builds a text event.
func NewText(senderID, replyToken, text string) Inbound {
	return Inbound{SenderID: senderID, Kind: KindText, Text: text, ReplyToken: replyToken}
}

// NewLocation builds a location event.
func NewLocation(senderID, replyToken string, lat, lon float64) Inbound {
	return Inbound{
		SenderID:    senderID,
		Kind:        KindLocation,
		Coordinates: &Coordinates{Latitude: lat, Longitude: lon},
		ReplyToken:  replyToken,
	}
}

// NewMedia builds an image, video, sticker or other media event.
func NewMedia(senderID, replyToken string, kind Kind) Inbound {
	return Inbound{SenderID: senderID, Kind: kind, ReplyToken: replyToken}
}
