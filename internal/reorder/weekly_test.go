package reorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infarma/ordergate/internal/store"
)

func TestCheckWeeklyLimit_Exceeded(t *testing.T) {
	st := newTestStore(t)
	seedPriorOrder(t, st, 9, "2026-01-06 10:00:00", testLine(1, 501, 100, 1, "150"))

	s := New(st, testClientID, testUserID, testAddressID, WithClock(fixedClock()))
	s.settings = store.AccountSettings{CheckWeeklyCap: true, WeeklyCap: dec("100")}

	err := s.checkWeeklyLimit(context.Background())
	require.Error(t, err)
	assert.True(t, IsPermissionError(err))
	assert.Contains(t, err.Error(), "150.00")
}

func TestCheckWeeklyLimit_UnderCap(t *testing.T) {
	st := newTestStore(t)
	seedPriorOrder(t, st, 9, "2026-01-06 10:00:00", testLine(1, 501, 100, 1, "150"))

	s := New(st, testClientID, testUserID, testAddressID, WithClock(fixedClock()))
	s.settings = store.AccountSettings{CheckWeeklyCap: true, WeeklyCap: dec("1000")}

	require.NoError(t, s.checkWeeklyLimit(context.Background()))
}

func TestCheckWeeklyLimit_Disabled(t *testing.T) {
	st := newTestStore(t)
	seedPriorOrder(t, st, 9, "2026-01-06 10:00:00", testLine(1, 501, 100, 1, "150"))

	s := New(st, testClientID, testUserID, testAddressID, WithClock(fixedClock()))
	s.settings = store.AccountSettings{CheckWeeklyCap: false, WeeklyCap: dec("100")}

	require.NoError(t, s.checkWeeklyLimit(context.Background()))
}

func TestCheckWeeklyLimit_IgnoresPreviousWeek(t *testing.T) {
	st := newTestStore(t)
	// Saturday before the Monday week start.
	seedPriorOrder(t, st, 9, "2026-01-03 10:00:00", testLine(1, 501, 100, 1, "150"))

	s := New(st, testClientID, testUserID, testAddressID, WithClock(fixedClock()))
	s.settings = store.AccountSettings{CheckWeeklyCap: true, WeeklyCap: dec("100")}

	require.NoError(t, s.checkWeeklyLimit(context.Background()))
}

func TestWeekStart(t *testing.T) {
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   time.Time
	}{
		{"wednesday", testNow},
		{"monday itself", time.Date(2026, 1, 5, 0, 0, 1, 0, time.UTC)},
		{"sunday end of week", time.Date(2026, 1, 11, 23, 59, 59, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, monday, weekStart(tt.in))
		})
	}
}
