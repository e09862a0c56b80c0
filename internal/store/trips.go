package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"ecocommute/internal/carbon"
	"ecocommute/internal/models"
)

// ErrNotFound is returned by read queries that match no trip.
var ErrNotFound = errors.New("not found")

const tripColumns = `id, user_id, origin, destination, mode, distance_km, duration_min, time_of_day, co2_emitted, co2_saved, date`

// NewTrip carries the caller-supplied fields of a trip submission. The CO2
// figures are derived at insert time and are deliberately absent here.
type NewTrip struct {
	UserID      int
	Origin      string
	Destination string
	Mode        string
	DistanceKm  float64
	DurationMin float64
	TimeOfDay   string
	Date        time.Time
}

// TripStore is the append-only ledger of trips, backed by Postgres.
type TripStore struct {
	db *sqlx.DB
}

func NewTripStore(db *sqlx.DB) *TripStore {
	return &TripStore{db: db}
}

// Insert appends an immutable trip record. The emitted and saved CO2 are
// computed here from (mode, distance); records are never updated afterwards.
func (s *TripStore) Insert(ctx context.Context, t NewTrip) (models.Trip, error) {
	trip := models.Trip{
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
	}
	err := s.db.QueryRowxContext(ctx, `INSERT INTO trips (user_id, origin, destination, mode, distance_km, duration_min, time_of_day, co2_emitted, co2_saved, date)
	                                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	                                    RETURNING id`,
		trip.UserID, trip.Origin, trip.Destination, trip.Mode, trip.DistanceKm,
		trip.DurationMin, trip.TimeOfDay, trip.CO2Emitted, trip.CO2Saved, trip.Date).Scan(&trip.ID)
	if err != nil {
		return models.Trip{}, fmt.Errorf("insert trip: %w", err)
	}
	return trip, nil
}

// Latest returns the most recently inserted trip for the user.
func (s *TripStore) Latest(ctx context.Context, userID int) (models.Trip, error) {
	var trip models.Trip
	err := s.db.GetContext(ctx, &trip, `SELECT `+tripColumns+` FROM trips WHERE user_id=$1 ORDER BY id DESC LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trip{}, ErrNotFound
	}
	if err != nil {
		return models.Trip{}, fmt.Errorf("latest trip: %w", err)
	}
	return trip, nil
}

// Cheapest returns the lowest-emission trip for an exact user/origin/destination
// match, ties broken by lowest id.
func (s *TripStore) Cheapest(ctx context.Context, userID int, origin, destination string) (models.Trip, error) {
	var trip models.Trip
	err := s.db.GetContext(ctx, &trip, `SELECT `+tripColumns+` FROM trips
	                                    WHERE user_id=$1 AND origin=$2 AND destination=$3
	                                    ORDER BY co2_emitted ASC, id ASC LIMIT 1`, userID, origin, destination)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trip{}, ErrNotFound
	}
	if err != nil {
		return models.Trip{}, fmt.Errorf("cheapest trip: %w", err)
	}
	return trip, nil
}

// SumSavings returns the user's cumulative saved CO2 in kg, 0 when the user
// has no trips.
func (s *TripStore) SumSavings(ctx context.Context, userID int) (float64, error) {
	var total float64
	err := s.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(co2_saved), 0) FROM trips WHERE user_id=$1`, userID)
	if err != nil {
		return 0, fmt.Errorf("sum savings: %w", err)
	}
	return total, nil
}
