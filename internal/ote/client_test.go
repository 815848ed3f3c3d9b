package ote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartDataPayload(title string, points int) string {
	type point struct {
		Y float64 `json:"y"`
	}
	pts := make([]point, points)
	for i := range pts {
		pts[i] = point{Y: float64(100 + i)}
	}
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"dataLine": []map[string]interface{}{
				{"title": "Volume (MWh)", "point": []point{{Y: 1}, {Y: 2}}},
				{"title": title, "point": pts},
			},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestFetchDay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, chartDataPath, r.URL.Path)
		assert.Equal(t, "2024-03-10", r.URL.Query().Get("report_date"))
		fmt.Fprint(w, chartDataPayload(priceLineTitle, 24))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	prices, err := client.FetchDay(context.Background(), "2024-03-10")
	require.NoError(t, err)
	require.Len(t, prices, 24)
	assert.Equal(t, 100.0, prices[0])
	assert.Equal(t, 123.0, prices[23])
}

func TestFetchDayBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.FetchDay(context.Background(), "2024-03-10")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestFetchDayMissingPriceLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartDataPayload("Volume (MWh)", 24))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.FetchDay(context.Background(), "2024-03-10")
	assert.ErrorIs(t, err, ErrPriceDataNotFound)
}

func TestFetchDayWrongPointCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartDataPayload(priceLineTitle, 23))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.FetchDay(context.Background(), "2024-03-10")
	assert.ErrorIs(t, err, ErrInvalidDataSize)
}

func TestFetchDayMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.FetchDay(context.Background(), "2024-03-10")
	assert.Error(t, err)
}

func TestFetchDayContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, chartDataPayload(priceLineTitle, 24))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	client := NewClient(server.URL, time.Second)
	_, err := client.FetchDay(ctx, "2024-03-10")
	assert.Error(t, err)
}
