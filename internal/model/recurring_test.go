package model

import (
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFrequency_Advance(t *testing.T) {
	tests := []struct {
		from      time.Time
		want      time.Time
		name      string
		freq      Frequency
		anchorDay int
	}{
		{name: "daily crosses year", freq: FrequencyDaily, from: date(2024, 12, 31), anchorDay: 31, want: date(2025, 1, 1)},
		{name: "weekly", freq: FrequencyWeekly, from: date(2024, 2, 26), anchorDay: 26, want: date(2024, 3, 4)},
		{name: "biweekly", freq: FrequencyBiweekly, from: date(2024, 1, 1), anchorDay: 1, want: date(2024, 1, 15)},
		{name: "monthly into leap february", freq: FrequencyMonthly, from: date(2024, 1, 31), anchorDay: 31, want: date(2024, 2, 29)},
		{name: "monthly into short february", freq: FrequencyMonthly, from: date(2023, 1, 31), anchorDay: 31, want: date(2023, 2, 28)},
		{name: "monthly re-anchors after february", freq: FrequencyMonthly, from: date(2024, 2, 29), anchorDay: 31, want: date(2024, 3, 31)},
		{name: "monthly into 30 day month", freq: FrequencyMonthly, from: date(2024, 3, 31), anchorDay: 31, want: date(2024, 4, 30)},
		{name: "monthly mid month", freq: FrequencyMonthly, from: date(2024, 11, 15), anchorDay: 15, want: date(2024, 12, 15)},
		{name: "monthly crosses year", freq: FrequencyMonthly, from: date(2024, 12, 31), anchorDay: 31, want: date(2025, 1, 31)},
		{name: "quarterly clamps", freq: FrequencyQuarterly, from: date(2024, 11, 30), anchorDay: 30, want: date(2025, 2, 28)},
		{name: "quarterly re-anchors", freq: FrequencyQuarterly, from: date(2025, 2, 28), anchorDay: 30, want: date(2025, 5, 30)},
		{name: "yearly from leap day", freq: FrequencyYearly, from: date(2024, 2, 29), anchorDay: 29, want: date(2025, 2, 28)},
		{name: "yearly back to leap day", freq: FrequencyYearly, from: date(2027, 2, 28), anchorDay: 29, want: date(2028, 2, 29)},
		{name: "time of day dropped", freq: FrequencyDaily, from: time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC), anchorDay: 1, want: date(2024, 5, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.freq.Advance(tt.from, tt.anchorDay))
		})
	}
}

func TestRecurringDefinition_MonthlySeriesFromThe31st(t *testing.T) {
	def := RecurringDefinition{
		Frequency:   FrequencyMonthly,
		StartDate:   date(2024, 1, 31),
		NextRunDate: date(2024, 1, 31),
	}

	var got []time.Time
	for i := 0; i < 5; i++ {
		def.NextRunDate = def.Next()
		got = append(got, def.NextRunDate)
	}

	assert.Equal(t, []time.Time{
		date(2024, 2, 29),
		date(2024, 3, 31),
		date(2024, 4, 30),
		date(2024, 5, 31),
		date(2024, 6, 30),
	}, got)
}

func TestRecurringDefinition_IsDue(t *testing.T) {
	end := date(2024, 3, 31)
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		def  RecurringDefinition
		want bool
	}{
		{name: "due today", def: RecurringDefinition{IsActive: true, NextRunDate: date(2024, 3, 10)}, want: true},
		{name: "overdue", def: RecurringDefinition{IsActive: true, NextRunDate: date(2024, 2, 1)}, want: true},
		{name: "future", def: RecurringDefinition{IsActive: true, NextRunDate: date(2024, 3, 11)}, want: false},
		{name: "paused", def: RecurringDefinition{IsActive: false, NextRunDate: date(2024, 3, 1)}, want: false},
		{name: "within end date", def: RecurringDefinition{IsActive: true, NextRunDate: date(2024, 3, 1), EndDate: &end}, want: true},
		{name: "past end date", def: RecurringDefinition{IsActive: true, NextRunDate: date(2024, 3, 1), EndDate: ptr(date(2024, 2, 28))}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.def.IsDue(now))
		})
	}
}

func TestRecurringDefinition_Validate(t *testing.T) {
	valid := func() RecurringDefinition {
		return RecurringDefinition{
			OwnerID:    "alice",
			Kind:       KindExpense,
			Amount:     decimal.NewFromInt(15),
			Frequency:  FrequencyMonthly,
			WalletID:   1,
			CategoryID: 2,
			StartDate:  date(2024, 1, 1),
		}
	}

	d := valid()
	require.NoError(t, d.Validate())

	d = valid()
	d.OwnerID = ""
	assert.ErrorIs(t, d.Validate(), common.ErrUnauthorized)

	d = valid()
	d.Kind = KindTransferOut
	assert.ErrorIs(t, d.Validate(), common.ErrValidation)

	d = valid()
	d.Amount = decimal.Zero
	assert.ErrorIs(t, d.Validate(), common.ErrValidation)

	d = valid()
	d.EndDate = ptr(date(2023, 12, 31))
	assert.ErrorIs(t, d.Validate(), common.ErrValidation)
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" biweekly ")
	require.NoError(t, err)
	assert.Equal(t, FrequencyBiweekly, f)

	_, err = ParseFrequency("hourly")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func ptr[T any](v T) *T {
	return &v
}
