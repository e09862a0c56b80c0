package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// BadgeStore persists one-time badge awards, backed by Postgres.
type BadgeStore struct {
	db *sqlx.DB
}

func NewBadgeStore(db *sqlx.DB) *BadgeStore {
	return &BadgeStore{db: db}
}

// Earned returns the set of badge names already recorded for the user.
func (s *BadgeStore) Earned(ctx context.Context, userID int) (map[string]bool, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT badge FROM badges WHERE user_id=$1`, userID); err != nil {
		return nil, fmt.Errorf("earned badges: %w", err)
	}
	earned := make(map[string]bool, len(names))
	for _, n := range names {
		earned[n] = true
	}
	return earned, nil
}

// Award records a badge for the user. The UNIQUE (user_id, badge) constraint
// makes the insert conditional: the returned bool is false when another
// request already recorded the same badge.
func (s *BadgeStore) Award(ctx context.Context, userID int, badge string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO badges (user_id, badge) VALUES ($1, $2)
	                                   ON CONFLICT (user_id, badge) DO NOTHING`, userID, badge)
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	return rows > 0, nil
}
