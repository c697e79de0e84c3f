package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestValidateOwner(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, validateOwner(context.Background(), "alice"))
	assert.NoError(t, validateOwner(canceled, "alice"), "cancellation is left to the driver")
	assert.ErrorIs(t, validateOwner(context.Background(), ""), common.ErrUnauthorized)
	//nolint:staticcheck // nil context is the case under test
	assert.ErrorIs(t, validateOwner(nil, "alice"), ErrNilContext)
}

func TestValidateString(t *testing.T) {
	assert.NoError(t, validateString(" ledger.db ", "dbPath"))

	err := validateString("   ", "dbPath")
	assert.ErrorIs(t, err, ErrEmptyString)
	assert.Contains(t, err.Error(), "dbPath")
}

func TestValidateNotNil(t *testing.T) {
	var w *model.Wallet
	err := validateNotNil(context.Background(), w, "wallet")
	assert.ErrorIs(t, err, ErrNilParameter)
	assert.Contains(t, err.Error(), "wallet")

	assert.NoError(t, validateNotNil(context.Background(), &model.Wallet{}, "wallet"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.True(t, isUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}))
	assert.False(t, isUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}))
	assert.False(t, isUniqueViolation(errors.New("unique")))
}

func TestDBError(t *testing.T) {
	busy := dbError("update wallet", sqlite3.Error{Code: sqlite3.ErrBusy})
	assert.ErrorIs(t, busy, common.ErrPersistence)
	assert.True(t, common.IsRetryable(busy))

	locked := dbError("commit transaction", sqlite3.Error{Code: sqlite3.ErrLocked})
	assert.True(t, common.IsRetryable(locked))

	full := dbError("insert transaction", sqlite3.Error{Code: sqlite3.ErrFull})
	assert.ErrorIs(t, full, common.ErrPersistence)
	assert.False(t, common.IsRetryable(full))
}

func TestDBError_BusyRerunsUnit(t *testing.T) {
	calls := 0
	err := common.WithRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return dbError("begin transaction", sqlite3.Error{Code: sqlite3.ErrBusy})
		}
		return nil
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTimeHelpers(t *testing.T) {
	local := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, time.UTC, utc(local).Location())
	assert.True(t, utc(local).Equal(local))

	assert.Nil(t, utcPtr(nil))
	assert.Equal(t, local.UTC(), utcPtr(&local))

	assert.Nil(t, timePtr(sql.NullTime{}))
	got := timePtr(sql.NullTime{Time: local, Valid: true})
	if assert.NotNil(t, got) {
		assert.Equal(t, time.UTC, got.Location())
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
