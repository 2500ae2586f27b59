package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNoCredential is returned when no API key is configured; the cache
// maps it to the fallback rate.
var ErrNoCredential = errors.New("no exchange rate API key configured")

// HTTPSource fetches the LRD rate from exchangerate-api.com.
type HTTPSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a source keyed by apiKey. An empty key is allowed;
// every fetch then fails with ErrNoCredential and callers fall back.
func NewHTTPSource(apiKey string) *HTTPSource {
	return &HTTPSource{
		apiKey:  apiKey,
		baseURL: "https://v6.exchangerate-api.com/v6",
		client:  &http.Client{},
	}
}

// FetchRate fetches the latest USD conversion table and returns the LRD rate
func (s *HTTPSource) FetchRate(ctx context.Context) (float64, error) {
	if s.apiKey == "" {
		return 0, ErrNoCredential
	}

	url := fmt.Sprintf("%s/%s/latest/USD", s.baseURL, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	var body struct {
		ConversionRates map[string]float64 `json:"conversion_rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode rate response: %w", err)
	}

	rate, ok := body.ConversionRates["LRD"]
	if !ok || rate <= 0 {
		return 0, errors.New("rate response missing LRD")
	}
	return rate, nil
}
