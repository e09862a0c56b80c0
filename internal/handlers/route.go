package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"ecocommute/internal/services"
)

// TrafficLookup is the traffic adapter as the HTTP layer sees it.
type TrafficLookup interface {
	RouteWithTraffic(ctx context.Context, origin, destination, departureTime string) (services.RouteInfo, error)
}

// RouteExplainer is the text-generation adapter as the HTTP layer sees it.
type RouteExplainer interface {
	Explain(ctx context.Context, in services.ExplainInput) (string, error)
}

type RouteHandler struct {
	traffic  TrafficLookup
	explain  RouteExplainer
	validate *validator.Validate
}

func NewRouteHandler(traffic TrafficLookup, explain RouteExplainer) *RouteHandler {
	return &RouteHandler{traffic: traffic, explain: explain, validate: validator.New()}
}

// RouteWithTraffic proxies the directions provider. Provider failures degrade
// to an informative message rather than failing the request.
func (h *RouteHandler) RouteWithTraffic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin := q.Get("origin")
	destination := q.Get("destination")
	if origin == "" || destination == "" {
		http.Error(w, "origin and destination required", http.StatusBadRequest)
		return
	}
	departureTime := q.Get("departure_time")
	if departureTime == "" {
		departureTime = "now"
	}

	info, err := h.traffic.RouteWithTraffic(r.Context(), origin, destination, departureTime)
	if errors.Is(err, services.ErrNoRoute) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "No route found."})
		return
	}
	if err != nil {
		slog.Warn("traffic lookup failed", slog.Any("err", err))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Could not fetch traffic data."})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

type explainRouteRequest struct {
	Mode        string  `json:"mode" validate:"required"`
	DistanceKm  float64 `json:"distance_km" validate:"gte=0"`
	DurationMin float64 `json:"duration_min" validate:"gte=0"`
	TimeOfDay   string  `json:"time_of_day" validate:"required"`
	CO2Saved    float64 `json:"co2_saved" validate:"gte=0"`
}

// ExplainRoute asks the text-generation provider for an explanation of the
// trip. Provider failures return a degraded-but-200 payload so the primary
// logging path stays available.
func (h *RouteHandler) ExplainRoute(w http.ResponseWriter, r *http.Request) {
	var req explainRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}

	text, err := h.explain.Explain(r.Context(), services.ExplainInput{
		Mode:        req.Mode,
		DistanceKm:  req.DistanceKm,
		DurationMin: req.DurationMin,
		TimeOfDay:   req.TimeOfDay,
		CO2Saved:    req.CO2Saved,
	})
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		slog.Warn("explanation failed", slog.Any("err", err))
		json.NewEncoder(w).Encode(map[string]string{
			"explanation": "The explanation service could not generate a response.",
			"error":       err.Error(),
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"explanation": text})
}
