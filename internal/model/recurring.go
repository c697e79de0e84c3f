package model

import (
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/shopspring/decimal"
)

// Frequency is how often a recurring definition repeats.
type Frequency string

// Supported frequencies.
const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyBiweekly  Frequency = "BIWEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// ParseFrequency parses a case-insensitive frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", common.Validationf("unknown frequency %q", s)
	}
	return f, nil
}

// Advance returns the occurrence after from. Month-based frequencies land on
// anchorDay, clamped to the end of shorter months, so a series anchored on the 31st
// runs Jan 31, Feb 29, Mar 31, Apr 30.
func (f Frequency) Advance(from time.Time, anchorDay int) time.Time {
	d := Day(from)
	switch f {
	case FrequencyDaily:
		return d.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return d.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return d.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return AddMonths(d, 1, anchorDay)
	case FrequencyQuarterly:
		return AddMonths(d, 3, anchorDay)
	case FrequencyYearly:
		return AddMonths(d, 12, anchorDay)
	default:
		return d
	}
}

// RecurringDefinition describes a charge or income that repeats on a schedule.
// NextRunDate is always the earliest occurrence not yet materialized.
type RecurringDefinition struct {
	StartDate   time.Time
	NextRunDate time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastRunAt   *time.Time
	EndDate     *time.Time
	Amount      decimal.Decimal
	OwnerID     string
	Kind        TransactionKind
	Frequency   Frequency
	Description string
	ID          int64
	WalletID    int64
	CategoryID  int64
	IsActive    bool
}

// AnchorDay is the day of month month-based stepping returns to.
func (r *RecurringDefinition) AnchorDay() int {
	return Day(r.StartDate).Day()
}

// Next returns the occurrence following the current NextRunDate.
func (r *RecurringDefinition) Next() time.Time {
	return r.Frequency.Advance(r.NextRunDate, r.AnchorDay())
}

// PastEnd reports whether t falls after the definition's end date.
func (r *RecurringDefinition) PastEnd(t time.Time) bool {
	return r.EndDate != nil && Day(t).After(Day(*r.EndDate))
}

// IsDue reports whether the definition has an occurrence to materialize at now.
func (r *RecurringDefinition) IsDue(now time.Time) bool {
	return r.IsActive && !r.NextRunDate.After(now) && !r.PastEnd(r.NextRunDate)
}

// Validate checks the definition's fields.
func (r *RecurringDefinition) Validate() error {
	if err := common.RequireOwner(r.OwnerID); err != nil {
		return err
	}
	if r.Kind != KindIncome && r.Kind != KindExpense {
		return common.Validationf("recurring kind must be INCOME or EXPENSE, got %q", r.Kind)
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if !r.Frequency.Valid() {
		return common.Validationf("unknown frequency %q", r.Frequency)
	}
	if r.WalletID == 0 || r.CategoryID == 0 {
		return common.Validationf("wallet and category are required")
	}
	if r.StartDate.IsZero() {
		return common.Validationf("start date is required")
	}
	if r.EndDate != nil && Day(*r.EndDate).Before(Day(r.StartDate)) {
		return common.Validationf("end date %s is before start date %s",
			r.EndDate.Format(time.DateOnly), r.StartDate.Format(time.DateOnly))
	}
	return nil
}
