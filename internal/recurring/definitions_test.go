package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()
	salary := f.db.MustCategory(owner, "Salary", model.CategoryTypeIncome)
	before := testutil.Date(2023, 12, 31)

	valid := DefinitionInput{
		OwnerID: owner, WalletID: f.wallet.ID, CategoryID: f.category.ID, Kind: model.KindExpense,
		Amount: testutil.Dec("10"), Frequency: model.FrequencyMonthly, StartDate: testutil.Date(2024, 1, 1),
	}

	tests := []struct {
		mutate  func(in *DefinitionInput)
		wantErr error
		name    string
	}{
		{name: "zero amount", mutate: func(in *DefinitionInput) { in.Amount = testutil.Dec("0") }, wantErr: common.ErrValidation},
		{name: "unknown frequency", mutate: func(in *DefinitionInput) { in.Frequency = "HOURLY" }, wantErr: common.ErrValidation},
		{name: "transfer kind", mutate: func(in *DefinitionInput) { in.Kind = model.KindTransferOut }, wantErr: common.ErrValidation},
		{name: "end before start", mutate: func(in *DefinitionInput) { in.EndDate = &before }, wantErr: common.ErrValidation},
		{name: "category type mismatch", mutate: func(in *DefinitionInput) { in.CategoryID = salary.ID }, wantErr: common.ErrValidation},
		{name: "missing wallet", mutate: func(in *DefinitionInput) { in.WalletID = 404 }, wantErr: common.ErrNotFound},
		{name: "no owner", mutate: func(in *DefinitionInput) { in.OwnerID = "" }, wantErr: common.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := f.scheduler.Create(ctx, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	defs, err := f.scheduler.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestPauseResume_SkipsPausedOccurrences(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	def := f.define(t, model.FrequencyWeekly, testutil.Date(2024, 3, 1), nil)

	_, err := f.scheduler.ProcessDue(ctx, testutil.Date(2024, 3, 1))
	require.NoError(t, err)

	paused, err := f.scheduler.Pause(ctx, owner, def.ID)
	require.NoError(t, err)
	assert.False(t, paused.IsActive)

	result, err := f.scheduler.ProcessDue(ctx, testutil.Date(2024, 3, 20))
	require.NoError(t, err)
	assert.Zero(t, result.Materialized)

	resumed, err := f.scheduler.Resume(ctx, owner, def.ID, testutil.Date(2024, 3, 20))
	require.NoError(t, err)
	assert.True(t, resumed.IsActive)
	assert.Equal(t, testutil.Date(2024, 3, 22), resumed.NextRunDate)

	result, err = f.scheduler.ProcessDue(ctx, testutil.Date(2024, 3, 22))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Materialized)
	assert.Equal(t, []string{"2024-03-01", "2024-03-22"}, f.dates(t))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	def := f.define(t, model.FrequencyMonthly, testutil.Date(2024, 1, 15), nil)
	_, err := f.scheduler.ProcessDue(ctx, testutil.Date(2024, 1, 15))
	require.NoError(t, err)

	amount := testutil.Dec("12.50")
	freq := model.FrequencyQuarterly
	updated, err := f.scheduler.Update(ctx, owner, def.ID, DefinitionEdit{Amount: &amount, Frequency: &freq})
	require.NoError(t, err)
	assert.Equal(t, "12.5", updated.Amount.String())
	assert.True(t, updated.IsActive)

	// An end date before the pending occurrence retires the definition.
	end := testutil.Date(2024, 2, 1)
	updated, err = f.scheduler.Update(ctx, owner, def.ID, DefinitionEdit{EndDate: &end})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	updated, err = f.scheduler.Update(ctx, owner, def.ID, DefinitionEdit{ClearEnd: true})
	require.NoError(t, err)
	assert.Nil(t, updated.EndDate)

	// The transaction already recorded keeps its original amount.
	txns, err := f.db.Storage.ListTransactions(ctx, owner, model.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "10", txns[0].Amount.String())
}

func TestDelete_KeepsTransactions(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	def := f.define(t, model.FrequencyDaily, testutil.Date(2024, 3, 1), nil)
	_, err := f.scheduler.ProcessDue(ctx, testutil.Date(2024, 3, 2))
	require.NoError(t, err)

	require.NoError(t, f.scheduler.Delete(ctx, owner, def.ID))

	_, err = f.scheduler.Get(ctx, owner, def.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, 2, f.db.TransactionCount(owner))
	f.db.AssertBalancesConsistent(owner)
}

func TestRunner(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	_, err := NewRunner(f.scheduler, "not a schedule")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	runner, err := NewRunner(f.scheduler, "@every 1h")
	require.NoError(t, err)
	runner.now = func() time.Time { return time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC) }

	f.define(t, model.FrequencyDaily, testutil.Date(2024, 3, 1), nil)

	result, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Materialized)

	ctx, cancel := context.WithCancel(context.Background())
	runner.Start(ctx)
	cancel()
}
