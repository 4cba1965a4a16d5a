package relay

import (
	"context"
	"log"

	"github.com/zhouzirui/linebot-relay/internal/model/event"
	"github.com/zhouzirui/linebot-relay/internal/model/history"
	"github.com/zhouzirui/linebot-relay/internal/model/reply"
	"github.com/zhouzirui/linebot-relay/internal/service/ai"
	"github.com/zhouzirui/linebot-relay/internal/service/weather"
)

// Generator produces a persona reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// WeatherFetcher retrieves a structured forecast for a city.
type WeatherFetcher interface {
	Fetch(ctx context.Context, city string) (weather.Forecast, error)
}

// Geocoder resolves coordinates to a city name.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// HistoryLog records each completed exchange.
type HistoryLog interface {
	Append(ctx context.Context, userID, userMessage, botMessage string) history.Entry
}

// Service classifies inbound events and composes the replies.
type Service struct {
	generator   Generator
	weather     WeatherFetcher
	geocoder    Geocoder
	history     HistoryLog
	defaultCity string
}

// NewService wires the router. A nil generator makes every generated reply
// the fallback text.
func NewService(gen Generator, forecasts WeatherFetcher, geocoder Geocoder, historyLog HistoryLog, defaultCity string) *Service {
	return &Service{
		generator:   gen,
		weather:     forecasts,
		geocoder:    geocoder,
		history:     historyLog,
		defaultCity: defaultCity,
	}
}

// Route handles one inbound event and returns the ordered replies. The
// first message is always text, and the exchange is recorded once.
func (s *Service) Route(ctx context.Context, ev event.Inbound) []reply.Message {
	intent := Classify(ev, s.defaultCity)
	messages := s.compose(ctx, intent)

	body, _ := reply.FirstText(messages)
	if s.history != nil {
		s.history.Append(ctx, ev.SenderID, userRepr(ev), body)
	}

	log.Printf("[relay] routed event sender=%s kind=%s intent=%s messages=%d", ev.SenderID, ev.Kind, intent.Kind, len(messages))
	return messages
}

func (s *Service) compose(ctx context.Context, intent Intent) []reply.Message {
	switch intent.Kind {
	case IntentSticker:
		return []reply.Message{reply.NewText(s.generate(ctx, promptSticker)), reply.NewSticker(cannedSticker)}
	case IntentImage:
		return []reply.Message{reply.NewText(s.generate(ctx, promptImage)), reply.NewImage(cannedImage)}
	case IntentVideo:
		return []reply.Message{reply.NewText(s.generate(ctx, promptVideo)), reply.NewVideo(cannedVideo)}
	case IntentWeather:
		city := intent.City
		if intent.Coordinates != nil {
			city = s.resolveCity(ctx, *intent.Coordinates)
		}
		return []reply.Message{reply.NewText(s.weatherReport(ctx, city))}
	case IntentLocation:
		return []reply.Message{reply.NewText(s.generate(ctx, promptLocation)), reply.NewLocation(cannedLocation)}
	case IntentMediaEcho:
		return []reply.Message{reply.NewText(s.generate(ctx, mediaEchoPrompt(intent.Media)))}
	case IntentFreeform:
		return []reply.Message{reply.NewText(s.generate(ctx, freeformPrompt(intent.Text)))}
	default:
		log.Printf("[relay] unhandled intent %d, answering as freeform", intent.Kind)
		return []reply.Message{reply.NewText(s.generate(ctx, freeformPrompt(intent.Text)))}
	}
}

func (s *Service) generate(ctx context.Context, prompt string) string {
	if s.generator == nil {
		return ai.FallbackReply
	}
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("[relay] generation failed: %v", err)
		return ai.FallbackReply
	}
	return text
}

func (s *Service) weatherReport(ctx context.Context, city string) string {
	if s.weather == nil {
		return weather.FallbackReport
	}
	forecast, err := s.weather.Fetch(ctx, city)
	if err != nil {
		log.Printf("[relay] weather lookup failed city=%s: %v", city, err)
		return weather.FallbackReport
	}
	return s.generate(ctx, weather.PhrasePrompt(forecast.Summary()))
}

func (s *Service) resolveCity(ctx context.Context, coords event.Coordinates) string {
	if s.geocoder == nil {
		return s.defaultCity
	}
	city, err := s.geocoder.ReverseGeocode(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		log.Printf("[relay] reverse geocode failed (%v, %v): %v", coords.Latitude, coords.Longitude, err)
		return s.defaultCity
	}
	return city
}
