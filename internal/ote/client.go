// Package ote fetches day-ahead electricity market prices from the OTE
// (Czech market operator) public chart-data endpoint.
package ote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okalita/spot-optimizer/pkg/logger"
)

// DefaultBaseURL is the production OTE endpoint.
const DefaultBaseURL = "https://www.ote-cr.cz"

const chartDataPath = "/en/short-term-markets/electricity/day-ahead-market/@@chart-data"

// priceLineTitle identifies the hourly price series inside the chart payload.
const priceLineTitle = "Price (EUR/MWh)"

var (
	// ErrPriceDataNotFound is returned when the response carries no data
	// line with the hourly price title.
	ErrPriceDataNotFound = errors.New("price data not found in response")
	// ErrInvalidDataSize is returned when the price line does not contain
	// exactly 24 hourly points.
	ErrInvalidDataSize = errors.New("price data does not contain exactly 24 points")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status: %d", e.StatusCode)
}

// Client fetches day prices from the OTE chart-data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an OTE API client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// chart-data response shape: data.dataLine[].{title, point[].y}
type chartResponse struct {
	Data struct {
		DataLine []struct {
			Title string `json:"title"`
			Point []struct {
				Y float64 `json:"y"`
			} `json:"point"`
		} `json:"dataLine"`
	} `json:"data"`
}

// FetchDay retrieves the 24 hourly prices for one calendar date, in
// chronological hour order. date must be formatted 2006-01-02.
func (c *Client) FetchDay(ctx context.Context, date string) ([]float64, error) {
	url := fmt.Sprintf("%s%s?report_date=%s", c.baseURL, chartDataPath, date)

	logger.Info("Fetching day prices",
		logger.String("date", date),
	)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeFetch(start, "network_error")
		logger.Error("Price fetch failed",
			logger.String("date", date),
			logger.Duration("elapsed", time.Since(start)),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("price fetch failed: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Price fetch response",
		logger.String("date", date),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observeFetch(start, "bad_status")
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		observeFetch(start, "bad_payload")
		return nil, fmt.Errorf("failed to decode chart data: %w", err)
	}

	for _, line := range payload.Data.DataLine {
		if line.Title != priceLineTitle {
			continue
		}
		if len(line.Point) != 24 {
			observeFetch(start, "bad_payload")
			return nil, fmt.Errorf("%w: got %d", ErrInvalidDataSize, len(line.Point))
		}
		prices := make([]float64, len(line.Point))
		for i, point := range line.Point {
			prices[i] = point.Y
		}
		observeFetch(start, "ok")
		return prices, nil
	}

	observeFetch(start, "bad_payload")
	return nil, ErrPriceDataNotFound
}

func observeFetch(start time.Time, outcome string) {
	logger.PriceFetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	logger.PriceFetchTotal.WithLabelValues(outcome).Inc()
}
