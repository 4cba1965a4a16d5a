package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zhouzirui/linebot-relay/internal/config"
)

// FallbackReport replaces a weather reply when the forecast cannot be fetched.
const FallbackReport = "中央氣象局天氣查詢失敗，請稍後再試。"

// datasetPath is the 36-hour county forecast dataset.
const datasetPath = "/api/v1/rest/datastore/F-C0032-001"

var (
	ErrLocationNotFound  = errors.New("forecast location not found")
	ErrMalformedForecast = errors.New("forecast response is missing fields")
)

// Forecast is the subset of the dataset the relay reports.
type Forecast struct {
	City      string
	Condition string
	MinTemp   string
	MaxTemp   string
}

// Summary renders the forecast as a single line for the model to rephrase.
func (f Forecast) Summary() string {
	return fmt.Sprintf("%s目前天氣狀況：%s，氣溫範圍：%s°C - %s°C", f.City, f.Condition, f.MinTemp, f.MaxTemp)
}

// PhrasePrompt asks the model to retell a forecast summary in a friendly tone.
func PhrasePrompt(summary string) string {
	return "請用親切自然的方式告訴使用者以下天氣資訊：" + summary
}

// NormalizeCity maps colloquial spellings onto the names the dataset uses.
func NormalizeCity(city string) string {
	return strings.ReplaceAll(strings.TrimSpace(city), "台", "臺")
}

// Service queries the Central Weather Administration open data API.
type Service struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewService creates a weather client from configuration.
func NewService(cfg config.WeatherConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewServiceWithClient(cfg.APIKey, cfg.BaseURL, &http.Client{Timeout: timeout})
}

// NewServiceWithClient allows callers to supply their own HTTP client.
func NewServiceWithClient(apiKey, baseURL string, client *http.Client) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Fetch retrieves the current forecast for city.
func (s *Service) Fetch(ctx context.Context, city string) (Forecast, error) {
	query := url.Values{}
	query.Set("Authorization", s.apiKey)
	query.Set("locationName", NormalizeCity(city))
	query.Set("format", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+datasetPath+"?"+query.Encode(), nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("build forecast request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("request forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Forecast{}, fmt.Errorf("forecast status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}

	forecast, err := payload.extract(city)
	if err != nil {
		return Forecast{}, err
	}

	log.Printf("[weather] fetched forecast city=%s condition=%s", city, forecast.Condition)
	return forecast, nil
}

type forecastResponse struct {
	Records struct {
		Location []forecastLocation `json:"location"`
	} `json:"records"`
}

type forecastLocation struct {
	LocationName   string           `json:"locationName"`
	WeatherElement []weatherElement `json:"weatherElement"`
}

type weatherElement struct {
	ElementName string `json:"elementName"`
	Time        []struct {
		Parameter struct {
			ParameterName string `json:"parameterName"`
		} `json:"parameter"`
	} `json:"time"`
}

func (r forecastResponse) extract(city string) (Forecast, error) {
	if len(r.Records.Location) == 0 {
		return Forecast{}, fmt.Errorf("%w: %s", ErrLocationNotFound, city)
	}
	elements := r.Records.Location[0].WeatherElement

	condition, err := elementValue(elements, "Wx", 0)
	if err != nil {
		return Forecast{}, err
	}
	minTemp, err := elementValue(elements, "MinT", 2)
	if err != nil {
		return Forecast{}, err
	}
	maxTemp, err := elementValue(elements, "MaxT", 4)
	if err != nil {
		return Forecast{}, err
	}

	return Forecast{City: city, Condition: condition, MinTemp: minTemp, MaxTemp: maxTemp}, nil
}

// elementValue finds an element by name, falling back to its position when
// the response carries no element names.
func elementValue(elements []weatherElement, name string, index int) (string, error) {
	var found *weatherElement
	for i := range elements {
		if elements[i].ElementName == name {
			found = &elements[i]
			break
		}
	}
	if found == nil && index < len(elements) && elements[index].ElementName == "" {
		found = &elements[index]
	}
	if found == nil || len(found.Time) == 0 {
		return "", fmt.Errorf("%w: %s", ErrMalformedForecast, name)
	}

	value := strings.TrimSpace(found.Time[0].Parameter.ParameterName)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMalformedForecast, name)
	}
	return value, nil
}
