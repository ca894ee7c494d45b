package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Time
		interval RecurringInterval
		want     time.Time
	}{
		{
			name:     "daily adds exactly one day",
			base:     date(2024, time.March, 15),
			interval: IntervalDaily,
			want:     date(2024, time.March, 16),
		},
		{
			name:     "daily across month boundary",
			base:     date(2024, time.April, 30),
			interval: IntervalDaily,
			want:     date(2024, time.May, 1),
		},
		{
			name:     "weekly adds seven days",
			base:     date(2024, time.March, 15),
			interval: IntervalWeekly,
			want:     date(2024, time.March, 22),
		},
		{
			name:     "monthly preserves day of month",
			base:     date(2024, time.March, 15),
			interval: IntervalMonthly,
			want:     date(2024, time.April, 15),
		},
		{
			name:     "monthly from jan 31 normalizes past february",
			base:     date(2024, time.January, 31),
			interval: IntervalMonthly,
			want:     date(2024, time.January, 31).AddDate(0, 1, 0),
		},
		{
			name:     "yearly keeps calendar date",
			base:     date(2024, time.February, 28),
			interval: IntervalYearly,
			want:     date(2025, time.February, 28),
		},
		{
			name:     "yearly from leap day normalizes",
			base:     date(2024, time.February, 29),
			interval: IntervalYearly,
			want:     date(2025, time.March, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.base, tt.interval)
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%v, %s) = %v, want %v", tt.base, tt.interval, got, tt.want)
			}
			if !got.After(tt.base) {
				t.Errorf("NextOccurrence(%v, %s) = %v is not after base", tt.base, tt.interval, got)
			}
		})
	}
}

func TestNextOccurrenceDeterministic(t *testing.T) {
	base := date(2024, time.June, 1)
	for _, interval := range []RecurringInterval{IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly} {
		a := NextOccurrence(base, interval)
		b := NextOccurrence(base, interval)
		if !a.Equal(b) {
			t.Errorf("NextOccurrence(%v, %s) not deterministic: %v vs %v", base, interval, a, b)
		}
	}
}
