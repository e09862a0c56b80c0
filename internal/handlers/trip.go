package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"ecocommute/internal/carbon"
	"ecocommute/internal/models"
	"ecocommute/internal/store"
)

// TripLedger is the slice of the trip store the HTTP layer needs.
type TripLedger interface {
	Insert(ctx context.Context, t store.NewTrip) (models.Trip, error)
	Latest(ctx context.Context, userID int) (models.Trip, error)
	Cheapest(ctx context.Context, userID int, origin, destination string) (models.Trip, error)
}

// BadgeEvaluator checks whether the user's latest trip unlocked a badge.
type BadgeEvaluator interface {
	Evaluate(ctx context.Context, userID int) (string, error)
}

type TripHandler struct {
	ledger   TripLedger
	badges   BadgeEvaluator
	validate *validator.Validate
}

func NewTripHandler(ledger TripLedger, badges BadgeEvaluator) *TripHandler {
	return &TripHandler{ledger: ledger, badges: badges, validate: validator.New()}
}

type logTripRequest struct {
	UserID      int     `json:"user_id" validate:"required,gt=0"`
	Origin      string  `json:"origin" validate:"required"`
	Destination string  `json:"destination" validate:"required"`
	Mode        string  `json:"mode" validate:"required"`
	DistanceKm  float64 `json:"distance_km" validate:"gte=0"`
	DurationMin float64 `json:"duration_min" validate:"gte=0"`
	TimeOfDay   string  `json:"time_of_day" validate:"required,oneof=morning afternoon evening night"`
	Date        string  `json:"date" validate:"required"` // YYYY-MM-DD
}

type logTripResponse struct {
	CO2Emitted  float64 `json:"co2_emitted"`
	CO2Saved    float64 `json:"co2_saved"`
	BadgeEarned *string `json:"badge_earned"`
}

// LogTrip appends a trip with derived CO2 figures and runs badge evaluation.
// A badge-evaluation failure does not fail the call: the trip is already
// durable at that point, and evaluation safely re-runs on the user's next trip.
func (h *TripHandler) LogTrip(w http.ResponseWriter, r *http.Request) {
	var req logTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		http.Error(w, "invalid date format; expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	trip, err := h.ledger.Insert(r.Context(), store.NewTrip{
		UserID:      req.UserID,
		Origin:      req.Origin,
		Destination: req.Destination,
		Mode:        req.Mode,
		DistanceKm:  req.DistanceKm,
		DurationMin: req.DurationMin,
		TimeOfDay:   req.TimeOfDay,
		Date:        date,
	})
	if err != nil {
		slog.Error("could not insert trip", slog.Any("err", err))
		http.Error(w, "could not save trip", http.StatusInternalServerError)
		return
	}

	resp := logTripResponse{CO2Emitted: trip.CO2Emitted, CO2Saved: trip.CO2Saved}
	badge, err := h.badges.Evaluate(r.Context(), req.UserID)
	if err != nil {
		slog.Warn("badge evaluation failed", slog.Int("user_id", req.UserID), slog.Any("err", err))
	} else if badge != "" {
		resp.BadgeEarned = &badge
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type latestTripResponse struct {
	Mode        string  `json:"mode"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	TimeOfDay   string  `json:"time_of_day"`
	CO2Emitted  float64 `json:"co2_emitted"`
	CO2Saved    float64 `json:"co2_saved"`
}

func (h *TripHandler) LatestTrip(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "user_id"))
	if err != nil || userID <= 0 {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	trip, err := h.ledger.Latest(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "No trips found"})
		return
	}
	if err != nil {
		slog.Error("could not fetch latest trip", slog.Any("err", err))
		http.Error(w, "could not fetch latest trip", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(latestTripResponse{
		Mode:        trip.Mode,
		DistanceKm:  trip.DistanceKm,
		DurationMin: trip.DurationMin,
		TimeOfDay:   trip.TimeOfDay,
		CO2Emitted:  trip.CO2Emitted,
		CO2Saved:    trip.CO2Saved,
	})
}

type cleanestRouteResponse struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Mode        string  `json:"mode"`
	CO2Emitted  float64 `json:"co2_emitted"`
	DurationMin float64 `json:"duration_min"`
}

// CleanestRoute returns the user's lowest-emission past trip for an exact
// origin/destination pair.
func (h *TripHandler) CleanestRoute(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "user_id"))
	if err != nil || userID <= 0 {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	origin := q.Get("origin")
	destination := q.Get("destination")
	if origin == "" || destination == "" {
		http.Error(w, "origin and destination required", http.StatusBadRequest)
		return
	}

	trip, err := h.ledger.Cheapest(r.Context(), userID, origin, destination)
	if errors.Is(err, store.ErrNotFound) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "No trips found for this route."})
		return
	}
	if err != nil {
		slog.Error("could not fetch cleanest route", slog.Any("err", err))
		http.Error(w, "could not fetch cleanest route", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cleanestRouteResponse{
		Origin:      trip.Origin,
		Destination: trip.Destination,
		Mode:        trip.Mode,
		CO2Emitted:  trip.CO2Emitted,
		DurationMin: trip.DurationMin,
	})
}

func (h *TripHandler) RecommendMode(w http.ResponseWriter, r *http.Request) {
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance_km"), 64)
	if err != nil || distance < 0 {
		http.Error(w, "invalid distance_km", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"recommended_mode": carbon.RecommendMode(distance)})
}
