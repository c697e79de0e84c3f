package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCmd(parent *cobra.Command, name string) *cobra.Command {
	for _, sub := range parent.Commands() {
		if sub.Name() == name {
			return sub
		}
	}
	return nil
}

func TestRootCmd_Tree(t *testing.T) {
	root := newRootCmd()

	tree := map[string][]string{
		"wallets":       {"list", "add", "archive", "restore", "delete", "reconcile"},
		"categories":    {"list", "add", "delete"},
		"tx":            {"list", "add", "edit", "delete"},
		"recurring":     {"list", "add", "pause", "resume", "delete", "run"},
		"loans":         {"list", "show", "add", "repay", "delete-repayment", "delete"},
		"budgets":       {"list", "add", "progress", "evaluate", "delete"},
		"notifications": {"list", "read", "read-all"},
		"auth":          {"token", "whoami"},
	}
	for parent, children := range tree {
		cmd := findCmd(root, parent)
		require.NotNil(t, cmd, "%s command should exist", parent)
		for _, child := range children {
			assert.NotNil(t, findCmd(cmd, child), "%s %s should exist", parent, child)
		}
	}

	for _, name := range []string{"migrate", "transfer", "serve", "version"} {
		assert.NotNil(t, findCmd(root, name), "%s command should exist", name)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"config", "log-level", "log-format", "db", "token"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "--%s should exist", name)
	}
	assert.Equal(t, "info", root.PersistentFlags().Lookup("log-level").DefValue)
}

func TestAddBudgetCmd_Flags(t *testing.T) {
	cmd := addBudgetCmd()

	flag := cmd.Flag("period")
	require.NotNil(t, flag)
	assert.Equal(t, "MONTHLY", flag.DefValue)
	assert.NotNil(t, cmd.Flag("category"))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.Validationf("bad"), 2},
		{fmt.Errorf("%w: no token", common.ErrUnauthorized), 3},
		{common.NotFoundf("wallet 1"), 4},
		{fmt.Errorf("update: %w", common.ErrConflict), 5},
		{fmt.Errorf("%w: disk", common.ErrPersistence), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), tt.err.Error())
	}
}

func TestParseHelpers(t *testing.T) {
	id, err := parseID(" 42 ", "wallet")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseID("0", "wallet")
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = parseID("abc", "wallet")
	assert.ErrorIs(t, err, common.ErrValidation)

	amount, err := parseAmount("12.50")
	require.NoError(t, err)
	assert.Equal(t, "12.5", amount.String())
	_, err = parseAmount("twelve")
	assert.ErrorIs(t, err, common.ErrValidation)

	day, err := parseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), day)
	_, err = parseDate("29/02/2024")
	assert.ErrorIs(t, err, common.ErrValidation)

	today, err := parseDate("today")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), today, time.Minute)

	none, err := optionalDate("")
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Equal(t, "-", formatOptionalDay(none))
}

// run executes the CLI with args against dbPath and returns its output.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_Flow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("LEDGER_AUTH_SECRET", "cli-test-secret-0123456789")
	t.Setenv("LEDGER_AUTH_TOKEN", "")
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	out, err := run(t, dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version")

	out, err = run(t, dbPath, "auth", "token", "alice")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	as := func(args ...string) (string, error) {
		return run(t, dbPath, append([]string{"--token", token}, args...)...)
	}

	out, err = as("auth", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")

	_, err = as("wallets", "add", "Cash")
	require.NoError(t, err)
	_, err = as("wallets", "add", "Bank")
	require.NoError(t, err)
	_, err = as("categories", "add", "Food", "--type", "EXPENSE")
	require.NoError(t, err)
	_, err = as("categories", "add", "Salary", "--type", "INCOME")
	require.NoError(t, err)

	categories, err := as("categories", "list")
	require.NoError(t, err)
	foodID, salaryID := idFor(t, categories, "Food"), idFor(t, categories, "Salary")

	_, err = as("tx", "add", "100", "--wallet", "1", "--category", salaryID, "--kind", "INCOME", "-d", "pay")
	require.NoError(t, err)
	_, err = as("tx", "add", "30", "--wallet", "1", "--category", foodID, "-d", "lunch")
	require.NoError(t, err)
	_, err = as("transfer", "20", "--from", "1", "--to", "2")
	require.NoError(t, err)

	out, err = as("wallets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "50.00 USD")
	assert.Contains(t, out, "20.00 USD")

	out, err = as("wallets", "reconcile", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "50.00")

	_, err = as("tx", "add", "0", "--wallet", "2", "--category", foodID)
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	_, err = as("budgets", "add", "Eating", "35", "--category", foodID, "--start", time.Now().UTC().AddDate(0, 0, -1).Format(time.DateOnly))
	require.NoError(t, err)
	out, err = as("budgets", "evaluate")
	require.NoError(t, err)
	assert.Contains(t, out, "Eating")

	out, err = as("notifications", "list", "--unread")
	require.NoError(t, err)
	assert.Contains(t, out, "Eating")

	_, err = as("loans", "add", "Bob", "100")
	require.NoError(t, err)
	out, err = as("loans", "repay", "1", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "60.00")
	_, err = as("loans", "repay", "1", "100")
	assert.Equal(t, 2, exitCode(err))

	_, err = as("wallets", "delete", "1")
	require.Error(t, err, "a wallet with transactions cannot be deleted")
}

func TestCLI_RequiresToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("LEDGER_AUTH_SECRET", "cli-test-secret-0123456789")
	t.Setenv("LEDGER_AUTH_TOKEN", "")
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	_, err := run(t, dbPath, "wallets", "list")
	require.Error(t, err)
	assert.Equal(t, 3, exitCode(err))
	assert.Contains(t, errorMessage(err), "ledger auth token")

	_, err = run(t, dbPath, "--token", "not-a-token", "wallets", "list")
	require.Error(t, err)
	assert.Equal(t, 3, exitCode(err))
	assert.Contains(t, errorMessage(err), "token rejected")
}

func TestErrorMessage(t *testing.T) {
	userErr := common.NewUserError("no owner token", common.ErrUnauthorized)
	assert.Equal(t, "no owner token", errorMessage(fmt.Errorf("wallets list: %w", userErr)))
	assert.Equal(t, 3, exitCode(userErr))

	plain := common.Validationf("amount must be greater than zero")
	assert.Equal(t, plain.Error(), errorMessage(plain))
}

// idFor returns the id column of the table row naming name.
func idFor(t *testing.T, table, name string) string {
	t.Helper()
	for _, line := range strings.Split(table, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return fields[0]
		}
	}
	t.Fatalf("no row for %q in:\n%s", name, table)
	return ""
}
