package identity

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123"

func TestNewIssuer_ShortSecret(t *testing.T) {
	_, err := NewIssuer("short")
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer(secret)
	require.NoError(t, err)

	token, err := issuer.Issue("owner-1", time.Hour)
	require.NoError(t, err)

	owner, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", owner)
}

func TestIssue_Validation(t *testing.T) {
	issuer, err := NewIssuer(secret)
	require.NoError(t, err)

	_, err = issuer.Issue("", time.Hour)
	require.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = issuer.Issue("owner-1", 0)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestVerify_Rejects(t *testing.T) {
	issuer, err := NewIssuer(secret)
	require.NoError(t, err)
	other, err := NewIssuer("a-completely-different-secret")
	require.NoError(t, err)

	foreign, err := other.Issue("owner-1", time.Hour)
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return start }
	stale, err := issuer.Issue("owner-1", time.Minute)
	require.NoError(t, err)
	issuer.now = func() time.Time { return start.Add(time.Hour) }

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "wrong secret", token: foreign},
		{name: "expired", token: stale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			require.ErrorIs(t, err, common.ErrUnauthorized)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer  abc ", want: "abc"},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer", wantErr: true},
		{header: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOwnerContext(t *testing.T) {
	_, err := OwnerFrom(context.Background())
	require.ErrorIs(t, err, common.ErrUnauthorized)

	ctx := WithOwner(context.Background(), "owner-9")
	owner, err := OwnerFrom(ctx)
	require.NoError(t, err)
	assert.Equal(t, "owner-9", owner)
}
