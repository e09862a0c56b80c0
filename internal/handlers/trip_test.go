package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecocommute/internal/carbon"
	"ecocommute/internal/models"
	"ecocommute/internal/store"
)

type fakeTripLedger struct {
	insertErr   error
	inserted    *store.NewTrip
	latest      models.Trip
	latestErr   error
	cheapest    models.Trip
	cheapestErr error
}

func (f *fakeTripLedger) Insert(ctx context.Context, t store.NewTrip) (models.Trip, error) {
	if f.insertErr != nil {
		return models.Trip{}, f.insertErr
	}
	f.inserted = &t
	return models.Trip{
		ID:          1,
		UserID:      t.UserID,
		Origin:      t.Origin,
		Destination: t.Destination,
		Mode:        t.Mode,
		DistanceKm:  t.DistanceKm,
		DurationMin: t.DurationMin,
		TimeOfDay:   t.TimeOfDay,
		CO2Emitted:  carbon.Emissions(t.DistanceKm, t.Mode),
		CO2Saved:    carbon.Savings(t.Mode, t.DistanceKm),
		Date:        t.Date,
	}, nil
}

func (f *fakeTripLedger) Latest(ctx context.Context, userID int) (models.Trip, error) {
	return f.latest, f.latestErr
}

func (f *fakeTripLedger) Cheapest(ctx context.Context, userID int, origin, destination string) (models.Trip, error) {
	return f.cheapest, f.cheapestErr
}

type fakeEvaluator struct {
	badge string
	err   error
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, userID int) (string, error) {
	return f.badge, f.err
}

func newTripRouter(h *TripHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/log_trip", h.LogTrip)
	r.Get("/recommend_mode/{distance_km}", h.RecommendMode)
	r.Get("/suggest_cleanest_route/{user_id}", h.CleanestRoute)
	r.Get("/latest_trip/{user_id}", h.LatestTrip)
	return r
}

const validTripBody = `{
	"user_id": 1,
	"origin": "Home",
	"destination": "Office",
	"mode": "bike",
	"distance_km": 10,
	"duration_min": 35,
	"time_of_day": "morning",
	"date": "2025-06-01"
}`

func TestLogTrip(t *testing.T) {
	ledger := &fakeTripLedger{}
	h := NewTripHandler(ledger, &fakeEvaluator{badge: "Eco Starter"})

	rec := httptest.NewRecorder()
	newTripRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/log_trip", strings.NewReader(validTripBody)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		CO2Emitted  float64 `json:"co2_emitted"`
		CO2Saved    float64 `json:"co2_saved"`
		BadgeEarned *string `json:"badge_earned"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.InDelta(t, 0.0, resp.CO2Emitted, 1e-9)
	assert.InDelta(t, 1.92, resp.CO2Saved, 1e-9)
	require.NotNil(t, resp.BadgeEarned)
	assert.Equal(t, "Eco Starter", *resp.BadgeEarned)

	require.NotNil(t, ledger.inserted)
	assert.Equal(t, "bike", ledger.inserted.Mode)
	assert.Equal(t, "2025-06-01", ledger.inserted.Date.Format("2006-01-02"))
}

func TestLogTripValidation(t *testing.T) {
	h := NewTripHandler(&fakeTripLedger{}, &fakeEvaluator{})
	r := newTripRouter(h)

	bodies := map[string]string{
		"malformed json":    `{`,
		"missing user":      `{"origin":"a","destination":"b","mode":"bus","distance_km":1,"duration_min":1,"time_of_day":"morning","date":"2025-06-01"}`,
		"bad time of day":   `{"user_id":1,"origin":"a","destination":"b","mode":"bus","distance_km":1,"duration_min":1,"time_of_day":"noonish","date":"2025-06-01"}`,
		"negative distance": `{"user_id":1,"origin":"a","destination":"b","mode":"bus","distance_km":-2,"duration_min":1,"time_of_day":"morning","date":"2025-06-01"}`,
		"bad date":          `{"user_id":1,"origin":"a","destination":"b","mode":"bus","distance_km":1,"duration_min":1,"time_of_day":"morning","date":"June 1st"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/log_trip", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogTripStorageFailure(t *testing.T) {
	h := NewTripHandler(&fakeTripLedger{insertErr: errors.New("connection refused")}, &fakeEvaluator{})

	rec := httptest.NewRecorder()
	newTripRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/log_trip", strings.NewReader(validTripBody)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogTripBadgeFailureDoesNotFailRequest(t *testing.T) {
	h := NewTripHandler(&fakeTripLedger{}, &fakeEvaluator{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	newTripRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/log_trip", strings.NewReader(validTripBody)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		CO2Saved    float64 `json:"co2_saved"`
		BadgeEarned *string `json:"badge_earned"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.InDelta(t, 1.92, resp.CO2Saved, 1e-9)
	assert.Nil(t, resp.BadgeEarned)
}

func TestLatestTrip(t *testing.T) {
	ledger := &fakeTripLedger{latest: models.Trip{
		ID: 7, UserID: 1, Mode: "train", DistanceKm: 42, DurationMin: 50,
		TimeOfDay: "evening", CO2Emitted: 4.2, CO2Saved: 6.342,
	}}
	h := NewTripHandler(ledger, &fakeEvaluator{})

	rec := httptest.NewRecorder()
	newTripRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/latest_trip/1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "train", resp["mode"])
	assert.InDelta(t, 42.0, resp["distance_km"].(float64), 1e-9)
	assert.InDelta(t, 50.0, resp["duration_min"].(float64), 1e-9)
	assert.Equal(t, "evening", resp["time_of_day"])
	assert.InDelta(t, 4.2, resp["co2_emitted"].(float64), 1e-9)
	assert.InDelta(t, 6.342, resp["co2_saved"].(float64), 1e-9)
}

func TestLatestTripNotFound(t *testing.T) {
	h := NewTripHandler(&fakeTripLedger{latestErr: store.ErrNotFound}, &fakeEvaluator{})

	rec := httptest.NewRecorder()
	newTripRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/latest_trip/1", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "No trips found", resp["error"])
}

func TestLatestTripInvalidUser(t *testing.T) {
	h := NewTripHandler(&fakeTripLedger{}, &fakeEvaluator{})

	rec := httptest.NewRecorder()
	newTripRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/latest_trip/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCleanestRoute(t *testing.T) {
	ledger := &fakeTripLedger{cheapest: models.Trip{
		ID: 2, UserID: 1, Origin: "Home", Destination: "Office",
		Mode: "bus", CO2Emitted: 2.0, DurationMin: 28,
	}}
	h := NewTripHandler(ledger, &fakeEvaluator{})

	rec := httptest.NewRecorder()
	newTripRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/suggest_cleanest_route/1?origin=Home&destination=Office", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "bus", resp["mode"])
	assert.InDelta(t, 2.0, resp["co2_emitted"].(float64), 1e-9)
	assert.InDelta(t, 28.0, resp["duration_min"].(float64), 1e-9)
}

func TestCleanestRouteNotFound(t *testing.T) {
	h := NewTripHandler(&fakeTripLedger{cheapestErr: store.ErrNotFound}, &fakeEvaluator{})

	rec := httptest.NewRecorder()
	newTripRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/suggest_cleanest_route/1?origin=Home&destination=Mars", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "No trips found for this route.", resp["message"])
}

func TestCleanestRouteRequiresQueryParams(t *testing.T) {
	h := NewTripHandler(&fakeTripLedger{}, &fakeEvaluator{})

	rec := httptest.NewRecorder()
	newTripRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/suggest_cleanest_route/1?origin=Home", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendMode(t *testing.T) {
	h := NewTripHandler(&fakeTripLedger{}, &fakeEvaluator{})
	r := newTripRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recommend_mode/5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "bus", resp["recommended_mode"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recommend_mode/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
