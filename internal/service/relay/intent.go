package relay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zhouzirui/linebot-relay/internal/model/event"
)

// IntentKind is the classified purpose of an inbound event.
type IntentKind int

const (
	IntentSticker IntentKind = iota
	IntentImage
	IntentVideo
	IntentWeather
	IntentLocation
	IntentMediaEcho
	IntentFreeform
)

func (k IntentKind) String() string {
	switch k {
	case IntentSticker:
		return "sticker"
	case IntentImage:
		return "image"
	case IntentVideo:
		return "video"
	case IntentWeather:
		return "weather"
	case IntentLocation:
		return "location"
	case IntentMediaEcho:
		return "media_echo"
	case IntentFreeform:
		return "freeform"
	default:
		return "unknown"
	}
}

// Intent carries the data each kind needs. City is set for weather requests
// typed by the user; Coordinates is set instead when the user shared a
// location, and the city is resolved while composing.
type Intent struct {
	Kind        IntentKind
	City        string
	Coordinates *event.Coordinates
	Text        string
	Media       event.Kind
}

const weatherPrefix = "天氣"

type textRule struct {
	name  string
	match func(lowered, trimmed string) bool
	build func(trimmed, defaultCity string) Intent
}

func oneOf(values ...string) func(string) bool {
	return func(s string) bool {
		for _, v := range values {
			if s == v {
				return true
			}
		}
		return false
	}
}

var (
	isSticker  = oneOf("貼圖", "sticker")
	isImage    = oneOf("圖片", "image")
	isVideo    = oneOf("影片", "video")
	isLocation = oneOf("地址", "位置", "location")
)

// textRules are evaluated in order; the first match wins. The media and
// weather triggers compare the lowercased text, the location trigger is
// case-sensitive.
var textRules = []textRule{
	{
		name:  "sticker",
		match: func(lowered, _ string) bool { return isSticker(lowered) },
		build: func(string, string) Intent { return Intent{Kind: IntentSticker} },
	},
	{
		name:  "image",
		match: func(lowered, _ string) bool { return isImage(lowered) },
		build: func(string, string) Intent { return Intent{Kind: IntentImage} },
	},
	{
		name:  "video",
		match: func(lowered, _ string) bool { return isVideo(lowered) },
		build: func(string, string) Intent { return Intent{Kind: IntentVideo} },
	},
	{
		name:  "weather",
		match: func(lowered, _ string) bool { return strings.HasPrefix(lowered, weatherPrefix) },
		build: func(trimmed, defaultCity string) Intent {
			city := strings.TrimSpace(strings.TrimPrefix(trimmed, weatherPrefix))
			if city == "" {
				city = defaultCity
			}
			return Intent{Kind: IntentWeather, City: city}
		},
	},
	{
		name:  "location",
		match: func(_, trimmed string) bool { return isLocation(trimmed) },
		build: func(string, string) Intent { return Intent{Kind: IntentLocation} },
	},
}

// Classify maps an inbound event onto exactly one intent.
func Classify(ev event.Inbound, defaultCity string) Intent {
	switch ev.Kind {
	case event.KindText:
		trimmed := strings.TrimSpace(ev.Text)
		lowered := strings.ToLower(trimmed)
		for _, rule := range textRules {
			if rule.match(lowered, trimmed) {
				return rule.build(trimmed, defaultCity)
			}
		}
		return Intent{Kind: IntentFreeform, Text: trimmed}
	case event.KindLocation:
		if ev.Coordinates == nil {
			return Intent{Kind: IntentWeather, City: defaultCity}
		}
		coords := *ev.Coordinates
		return Intent{Kind: IntentWeather, Coordinates: &coords}
	case event.KindImage, event.KindVideo, event.KindSticker:
		return Intent{Kind: IntentMediaEcho, Media: ev.Kind}
	default:
		return Intent{Kind: IntentMediaEcho, Media: event.KindOther}
	}
}

// userRepr is what the history log records as the user's side of the exchange.
func userRepr(ev event.Inbound) string {
	switch ev.Kind {
	case event.KindText:
		return strings.TrimSpace(ev.Text)
	case event.KindLocation:
		if ev.Coordinates == nil {
			return "位置：(?, ?)"
		}
		return fmt.Sprintf("位置：(%s, %s)", formatCoordinate(ev.Coordinates.Latitude), formatCoordinate(ev.Coordinates.Longitude))
	case event.KindImage:
		return "圖片訊息"
	case event.KindVideo:
		return "影片訊息"
	case event.KindSticker:
		return "貼圖訊息"
	default:
		return "其他媒體訊息"
	}
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
