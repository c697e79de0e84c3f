// Package identity carries the owner identity through requests. Owners are
// authenticated elsewhere; this package only signs and verifies the bearer tokens
// that name them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 16

const issuerName = "spice-ledger"

// Issuer signs and verifies owner tokens with a shared HS256 secret.
type Issuer struct {
	now    func() time.Time
	secret []byte
}

// NewIssuer creates an Issuer for secret.
func NewIssuer(secret string) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: auth.secret must be at least %d characters", common.ErrInvalidConfig, MinSecretLength)
	}
	return &Issuer{secret: []byte(secret), now: time.Now}, nil
}

// Issue returns a token naming ownerID that expires after ttl.
func (i *Issuer) Issue(ownerID string, ttl time.Duration) (string, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", common.Validationf("token ttl must be positive")
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuerName,
		Subject:   ownerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks token and returns the owner it names.
func (i *Issuer) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: missing token", common.ErrUnauthorized)
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", common.ErrUnauthorized)
		}
		return "", fmt.Errorf("%w: invalid token: %w", common.ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: token names no owner", common.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: expected bearer token", common.ErrUnauthorized)
	}
	return strings.TrimSpace(token), nil
}

type ownerKey struct{}

// WithOwner returns a copy of ctx carrying ownerID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFrom returns the owner carried by ctx, or an Unauthorized error.
func OwnerFrom(ctx context.Context) (string, error) {
	ownerID, ok := ctx.Value(ownerKey{}).(string)
	if !ok || ownerID == "" {
		return "", fmt.Errorf("%w: no owner in context", common.ErrUnauthorized)
	}
	return ownerID, nil
}
