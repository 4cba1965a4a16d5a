package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/linebot-relay/internal/config"
)

// ErrNoLocality means the address carried no city, town or county.
var ErrNoLocality = errors.New("reverse geocode returned no locality")

// Service resolves coordinates to a locality via a Nominatim-compatible API.
type Service struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewService creates a geocoder from configuration.
func NewService(cfg config.GeocoderConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewServiceWithClient(cfg.BaseURL, cfg.UserAgent, &http.Client{Timeout: timeout})
}

// NewServiceWithClient allows callers to supply their own HTTP client.
func NewServiceWithClient(baseURL, userAgent string, client *http.Client) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

type reverseResponse struct {
	Address struct {
		City   string `json:"city"`
		Town   string `json:"town"`
		County string `json:"county"`
	} `json:"address"`
}

// ReverseGeocode returns the city, town or county containing the point.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("format", "json")
	query.Set("accept-language", "zh-TW")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build reverse request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("reverse geocode status %d", resp.StatusCode)
	}

	var payload reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode reverse geocode: %w", err)
	}

	for _, name := range []string{payload.Address.City, payload.Address.Town, payload.Address.County} {
		if name = strings.TrimSpace(name); name != "" {
			log.Printf("[geo] resolved (%v, %v) to %s", lat, lon, name)
			return name, nil
		}
	}
	return "", ErrNoLocality
}
