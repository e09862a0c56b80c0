package models

import "time"

type Trip struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	Origin      string    `db:"origin" json:"origin"`
	Destination string    `db:"destination" json:"destination"`
	Mode        string    `db:"mode" json:"mode"`
	DistanceKm  float64   `db:"distance_km" json:"distance_km"`
	DurationMin float64   `db:"duration_min" json:"duration_min"`
	TimeOfDay   string    `db:"time_of_day" json:"time_of_day"`
	CO2Emitted  float64   `db:"co2_emitted" json:"co2_emitted"` // Derived from (mode, distance) at insert
	CO2Saved    float64   `db:"co2_saved" json:"co2_saved"`     // Derived from (mode, distance) at insert
	Date        time.Time `db:"date" json:"date"`
}

type Badge struct {
	UserID int    `db:"user_id" json:"user_id"`
	Badge  string `db:"badge" json:"badge"`
}
