package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultDirectionsBaseURL = "https://maps.googleapis.com"

// ErrNoRoute is returned when the directions provider finds no route between
// the requested points.
var ErrNoRoute = errors.New("no route found")

// RouteInfo is the traffic summary passed back to callers unchanged.
type RouteInfo struct {
	Duration        string `json:"duration"`
	Distance        string `json:"distance"`
	TrafficDuration string `json:"traffic_duration"`
}

// TrafficService proxies the directions provider's driving-with-traffic
// lookup. Failures never propagate past the handler as hard errors.
type TrafficService struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewTrafficService builds the adapter. baseURL is overridable for tests;
// pass "" for the real provider.
func NewTrafficService(apiKey, baseURL string) *TrafficService {
	if baseURL == "" {
		baseURL = defaultDirectionsBaseURL
	}
	return &TrafficService{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type textValue struct {
	Text string `json:"text"`
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Duration          textValue `json:"duration"`
			Distance          textValue `json:"distance"`
			DurationInTraffic textValue `json:"duration_in_traffic"`
		} `json:"legs"`
	} `json:"routes"`
}

// RouteWithTraffic fetches duration, distance and duration-in-traffic for a
// driving route. Transient provider failures are retried with exponential
// backoff before giving up.
func (s *TrafficService) RouteWithTraffic(ctx context.Context, origin, destination, departureTime string) (RouteInfo, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("mode", "driving")
	q.Set("departure_time", departureTime)
	q.Set("traffic_model", "best_guess")
	q.Set("key", s.apiKey)
	endpoint := s.baseURL + "/maps/api/directions/json?" + q.Encode()

	var parsed directionsResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		res, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("directions: status %d", res.StatusCode)
		}
		if res.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("directions: status %d", res.StatusCode))
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("directions: decode: %w", err))
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)); err != nil {
		return RouteInfo{}, fmt.Errorf("route with traffic: %w", err)
	}

	if parsed.Status != "" && parsed.Status != "OK" && parsed.Status != "ZERO_RESULTS" {
		return RouteInfo{}, fmt.Errorf("route with traffic: directions status %s", parsed.Status)
	}
	if len(parsed.Routes) == 0 || len(parsed.Routes[0].Legs) == 0 {
		return RouteInfo{}, ErrNoRoute
	}
	leg := parsed.Routes[0].Legs[0]
	return RouteInfo{
		Duration:        leg.Duration.Text,
		Distance:        leg.Distance.Text,
		TrafficDuration: leg.DurationInTraffic.Text,
	}, nil
}
