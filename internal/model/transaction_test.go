package model

import (
	"testing"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_SignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("12.34")

	tests := []struct {
		kind TransactionKind
		want string
	}{
		{kind: KindIncome, want: "12.34"},
		{kind: KindExpense, want: "-12.34"},
		{kind: KindTransferIn, want: "12.34"},
		{kind: KindTransferOut, want: "-12.34"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			txn := Transaction{Kind: tt.kind, Amount: amount}
			assert.Equal(t, tt.want, txn.SignedAmount().String())
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := func() Transaction {
		return Transaction{
			OwnerID:    "alice",
			Kind:       KindExpense,
			Amount:     decimal.NewFromInt(5),
			WalletID:   1,
			CategoryID: 1,
			Date:       date(2024, 1, 1),
		}
	}

	txn := valid()
	assert.NoError(t, txn.Validate())

	txn = valid()
	txn.Amount = decimal.NewFromInt(-5)
	assert.ErrorIs(t, txn.Validate(), common.ErrValidation)

	txn = valid()
	txn.Kind = KindTransferOut
	assert.ErrorIs(t, txn.Validate(), common.ErrValidation, "transfer half without transfer id")

	txn.TransferID = "abc"
	assert.NoError(t, txn.Validate())

	txn = valid()
	txn.OwnerID = ""
	assert.ErrorIs(t, txn.Validate(), common.ErrUnauthorized)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("expense")
	assert.NoError(t, err)
	assert.Equal(t, KindExpense, k)

	_, err = ParseKind("TRANSFER_IN")
	assert.ErrorIs(t, err, common.ErrValidation)
}
