package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultGenerateBaseURL = "https://generativelanguage.googleapis.com"
	generateModel          = "gemini-2.0-flash"
)

// ExplainInput is the trip summary the explanation is generated from.
type ExplainInput struct {
	Mode        string
	DistanceKm  float64
	DurationMin float64
	TimeOfDay   string
	CO2Saved    float64
}

// ExplainService proxies the text-generation provider to produce a free-form
// explanation of a trip's environmental impact.
type ExplainService struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewExplainService builds the adapter. baseURL is overridable for tests;
// pass "" for the real provider.
func NewExplainService(apiKey, baseURL string) *ExplainService {
	if baseURL == "" {
		baseURL = defaultGenerateBaseURL
	}
	return &ExplainService{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// Explain asks the provider for a friendly explanation of the trip. The
// caller is expected to degrade gracefully when an error comes back.
func (s *ExplainService) Explain(ctx context.Context, in ExplainInput) (string, error) {
	prompt := fmt.Sprintf(`Explain why this transportation in detail with the following details:
- Mode: %s
- Distance: %g km
- Duration: %g min
- Time of Day: %s
- CO2 Saved: %g kg

Make this a detailed explanation, including the environmental impact, health benefits, and any other relevant information.
Provide a summary of the benefits of this mode of transportation.
Also, include a comparison with other modes of transportation.
Use a friendly and informative tone.
Do not include any code or technical jargon, simply provide a detailed explanation.

Also include a short summary at the end.`,
		in.Mode, in.DistanceKm, in.DurationMin, in.TimeOfDay, in.CO2Saved)

	body, err := json.Marshal(generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("explain: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, generateModel, s.apiKey)

	var parsed generateResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		res, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("explain: status %d", res.StatusCode)
		}
		if res.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("explain: status %d", res.StatusCode))
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("explain: decode: %w", err))
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)); err != nil {
		return "", err
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("explain: provider returned no text")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
