package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveLoanStatus(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)
	yesterday := date(2024, 6, 14)
	today := date(2024, 6, 15)
	hundred := decimal.NewFromInt(100)

	tests := []struct {
		due         *time.Time
		outstanding decimal.Decimal
		name        string
		want        LoanStatus
	}{
		{name: "untouched", outstanding: hundred, want: LoanOpen},
		{name: "partially repaid", outstanding: decimal.NewFromInt(60), want: LoanPartial},
		{name: "fully repaid", outstanding: decimal.Zero, want: LoanPaid},
		{name: "paid wins over overdue", outstanding: decimal.Zero, due: &yesterday, want: LoanPaid},
		{name: "partial but overdue", outstanding: decimal.NewFromInt(50), due: &yesterday, want: LoanOverdue},
		{name: "open but overdue", outstanding: hundred, due: &yesterday, want: LoanOverdue},
		{name: "due today is not overdue", outstanding: hundred, due: &today, want: LoanOpen},
		{name: "negative clamps to paid", outstanding: decimal.NewFromInt(-1), want: LoanPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveLoanStatus(hundred, tt.outstanding, tt.due, now))
		})
	}
}

func TestOutstanding(t *testing.T) {
	assert.True(t, Outstanding(decimal.NewFromInt(100), decimal.NewFromInt(40)).Equal(decimal.NewFromInt(60)))
	assert.True(t, Outstanding(decimal.NewFromInt(100), decimal.NewFromInt(100)).IsZero())
	assert.True(t, Outstanding(decimal.NewFromInt(100), decimal.RequireFromString("100.004")).IsZero())
}
