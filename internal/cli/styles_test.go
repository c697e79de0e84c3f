package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{amount: "12.5", currency: "USD", want: "12.50 USD"},
		{amount: "-3", currency: "", want: "-3.00"},
		{amount: "0", currency: "EUR", want: "0.00 EUR"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := FormatAmount(decimal.RequireFromString(tt.amount), tt.currency)
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestFormatSigned(t *testing.T) {
	expense := &model.Transaction{Kind: model.KindExpense, Amount: decimal.NewFromInt(40)}
	assert.Contains(t, FormatSigned(expense), "-40.00")

	in := &model.Transaction{Kind: model.KindTransferIn, Amount: decimal.NewFromInt(40)}
	assert.Contains(t, FormatSigned(in), "40.00")
	assert.NotContains(t, FormatSigned(in), "-")
}

func TestFormatLoanStatusAndNotification(t *testing.T) {
	for _, status := range []model.LoanStatus{model.LoanOpen, model.LoanPartial, model.LoanOverdue, model.LoanPaid} {
		assert.Contains(t, FormatLoanStatus(status), string(status))
	}

	note := &model.Notification{Type: model.NotificationError, Title: "Budget exceeded"}
	assert.Contains(t, FormatNotification(note), ErrorIcon)
	assert.Contains(t, FormatNotification(note), "Budget exceeded")
}

func TestTable(t *testing.T) {
	var out bytes.Buffer
	table := NewTable(&out, "ID", "Name")
	table.Row(1, "Checking")
	table.Row(22, "Savings")
	require.NoError(t, table.Flush())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, lines[1], "----")
	assert.Contains(t, lines[2], "Checking")
	assert.Contains(t, lines[3], "Savings")
}

func TestProgress(t *testing.T) {
	var out syncBuffer
	progress := NewProgress(&out, "Running")

	progress.Report(0, 0)
	assert.Equal(t, 0, progress.Done())

	progress.Report(1, 3)
	progress.Report(3, 3)
	progress.Report(2, 3)
	assert.Equal(t, 3, progress.Done())
	assert.NotEmpty(t, out.String())
}
