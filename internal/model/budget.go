package model

import (
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/shopspring/decimal"
)

// BudgetPeriod is the length of a budget's spend window.
type BudgetPeriod string

// Budget periods.
const (
	PeriodWeekly    BudgetPeriod = "WEEKLY"
	PeriodMonthly   BudgetPeriod = "MONTHLY"
	PeriodQuarterly BudgetPeriod = "QUARTERLY"
	PeriodYearly    BudgetPeriod = "YEARLY"
)

// Valid reports whether p is a known period.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// ParseBudgetPeriod parses a case-insensitive budget period.
func ParseBudgetPeriod(s string) (BudgetPeriod, error) {
	p := BudgetPeriod(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", common.Validationf("unknown budget period %q", s)
	}
	return p, nil
}

// Budget limits spending in a set of categories over a repeating period. Spend is
// never stored; it is recomputed from the ledger for the current window.
type Budget struct {
	StartDate   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	EndDate     *time.Time
	Amount      decimal.Decimal
	OwnerID     string
	Name        string
	Period      BudgetPeriod
	CategoryIDs []int64
	ID          int64
	IsActive    bool
}

// Validate checks the budget's fields.
func (b *Budget) Validate() error {
	if err := common.RequireOwner(b.OwnerID); err != nil {
		return err
	}
	if strings.TrimSpace(b.Name) == "" {
		return common.Validationf("budget name is required")
	}
	if b.Amount.IsNegative() {
		return common.Validationf("budget amount cannot be negative")
	}
	if !b.Period.Valid() {
		return common.Validationf("unknown budget period %q", b.Period)
	}
	if b.StartDate.IsZero() {
		return common.Validationf("start date is required")
	}
	if b.EndDate != nil && Day(*b.EndDate).Before(Day(b.StartDate)) {
		return common.Validationf("end date is before start date")
	}
	if len(b.CategoryIDs) == 0 {
		return common.Validationf("budget needs at least one category")
	}
	return nil
}

// Ended reports whether the budget's end date is before now's day.
func (b *Budget) Ended(now time.Time) bool {
	return b.EndDate != nil && Day(*b.EndDate).Before(Day(now))
}

// Started reports whether the budget's start date has been reached.
func (b *Budget) Started(now time.Time) bool {
	return !Day(b.StartDate).After(Day(now))
}

// Window is a half-open [Start, End) range of days.
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDay returns the final day included in the window.
func (w Window) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowAt returns the period window containing now. Weekly windows start on the
// start date's weekday, monthly windows on its day of month (clamped), quarterly and
// yearly windows follow the calendar. The window never begins before StartDate nor
// runs past EndDate.
func (b *Budget) WindowAt(now time.Time) Window {
	today := Day(now)
	var w Window

	switch b.Period {
	case PeriodWeekly:
		back := (int(today.Weekday()) - int(Day(b.StartDate).Weekday()) + 7) % 7
		w.Start = today.AddDate(0, 0, -back)
		w.End = w.Start.AddDate(0, 0, 7)
	case PeriodMonthly:
		anchor := Day(b.StartDate).Day()
		w.Start = clampedDate(today.Year(), today.Month(), anchor)
		if today.Before(w.Start) {
			w.Start = clampedDate(today.Year(), today.Month()-1, anchor)
		}
		w.End = clampedDate(w.Start.Year(), w.Start.Month()+1, anchor)
	case PeriodQuarterly:
		first := time.Month((int(today.Month())-1)/3*3 + 1)
		w.Start = time.Date(today.Year(), first, 1, 0, 0, 0, 0, time.UTC)
		w.End = w.Start.AddDate(0, 3, 0)
	default:
		w.Start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		w.End = w.Start.AddDate(1, 0, 0)
	}

	if start := Day(b.StartDate); w.Start.Before(start) {
		w.Start = start
	}
	if b.EndDate != nil {
		if end := Day(*b.EndDate).AddDate(0, 0, 1); end.Before(w.End) {
			w.End = end
		}
	}
	if w.End.Before(w.Start) {
		w.End = w.Start
	}
	return w
}

// PercentUsed returns 100 * spent / limit, or zero for a zero limit.
func PercentUsed(spent, limit decimal.Decimal) decimal.Decimal {
	if limit.IsZero() {
		return decimal.Zero
	}
	return spent.Mul(decimal.NewFromInt(100)).Div(limit)
}

// BudgetProgress is a budget's spend within one window.
type BudgetProgress struct {
	Window      Window
	Spent       decimal.Decimal
	Remaining   decimal.Decimal
	PercentUsed decimal.Decimal
	Budget      Budget
}
