package services

import (
	"context"
)

// SavingsLedger exposes the single aggregate the awarder needs from the trip
// ledger.
type SavingsLedger interface {
	SumSavings(ctx context.Context, userID int) (float64, error)
}

// BadgeRecorder persists badge awards. Award must be conditional on the
// storage-level (user_id, badge) uniqueness constraint so that concurrent
// evaluations cannot record the same badge twice.
type BadgeRecorder interface {
	Earned(ctx context.Context, userID int) (map[string]bool, error)
	Award(ctx context.Context, userID int, badge string) (bool, error)
}

type badgeTier struct {
	threshold float64 // cumulative saved CO2 in kg
	name      string
}

var badgeTiers = []badgeTier{
	{10, "Eco Starter"},
	{50, "Green Hero"},
	{100, "Climate Champion"},
}

// BadgeService decides when a user's cumulative savings first cross a tier.
type BadgeService struct {
	ledger SavingsLedger
	badges BadgeRecorder
}

func NewBadgeService(ledger SavingsLedger, badges BadgeRecorder) *BadgeService {
	return &BadgeService{ledger: ledger, badges: badges}
}

// Evaluate awards at most one badge per call: the lowest tier the user has
// cleared but not yet earned. Tiers crossed in the same jump surface on
// subsequent calls. Returns "" when no new badge qualifies.
func (s *BadgeService) Evaluate(ctx context.Context, userID int) (string, error) {
	total, err := s.ledger.SumSavings(ctx, userID)
	if err != nil {
		return "", err
	}
	earned, err := s.badges.Earned(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, tier := range badgeTiers {
		if total < tier.threshold {
			break
		}
		if earned[tier.name] {
			continue
		}
		inserted, err := s.badges.Award(ctx, userID, tier.name)
		if err != nil {
			return "", err
		}
		if !inserted {
			// A concurrent request recorded this tier between our read and
			// the insert; treat it as already earned.
			continue
		}
		return tier.name, nil
	}
	return "", nil
}
