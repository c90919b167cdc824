package reorder

import (
	"context"
	"fmt"
	"time"
)

// checkWeeklyLimit rejects the whole submission when the address has
// already spent past its weekly cap. The check runs against committed
// history only; the submission being processed does not count toward it.
func (s *Submitter) checkWeeklyLimit(ctx context.Context) error {
	if !s.settings.CheckWeeklyCap {
		return nil
	}

	spend, err := s.store.WeeklySpend(ctx, s.addressID, weekStart(s.now()))
	if err != nil {
		return fmt.Errorf("check weekly limit: %w", err)
	}

	if spend.GreaterThan(s.settings.WeeklyCap) {
		return &PermissionError{
			Code:        CodeOrdersForbidden,
			UserMessage: fmt.Sprintf("Weekly order limit exceeded (already ordered for %s).", spend.StringFixed(2)),
			Diagnostic: fmt.Sprintf("address %d spent %s since week start, cap %s",
				s.addressID, spend.String(), s.settings.WeeklyCap.String()),
		}
	}
	return nil
}

// weekStart returns Monday 00:00 UTC of the calendar week containing t.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -daysSinceMonday)
}
