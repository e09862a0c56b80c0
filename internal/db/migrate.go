package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func RunMigrations(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS trips (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL,
    origin TEXT NOT NULL,
    destination TEXT NOT NULL,
    mode TEXT NOT NULL,
    distance_km DOUBLE PRECISION NOT NULL CHECK (distance_km >= 0),
    duration_min DOUBLE PRECISION NOT NULL CHECK (duration_min >= 0),
    time_of_day TEXT NOT NULL,
    co2_emitted DOUBLE PRECISION NOT NULL,
    co2_saved DOUBLE PRECISION NOT NULL,
    date DATE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trips_user_latest ON trips (user_id, id DESC);
CREATE INDEX IF NOT EXISTS idx_trips_user_route ON trips (user_id, origin, destination);

CREATE TABLE IF NOT EXISTS badges (
    user_id INTEGER NOT NULL,
    badge TEXT NOT NULL,
    awarded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, badge)
);
`
	_, err := db.ExecContext(context.Background(), schema)
	return err
}
