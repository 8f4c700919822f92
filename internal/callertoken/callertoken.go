// Package callertoken mints and validates the bearer tokens that carry a caller's
// ledger identity. The registry never authenticates callers itself: whoever holds a
// token signed with the shared key speaks for the address in its "addr" claim.
package callertoken

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/requestcontext"
)

// Claims are the JWT claims of a caller token.
type Claims struct {
	Addr string `json:"addr"`
	jwt.RegisteredClaims
}

// Service handles caller token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
}

func NewService(signingKey, issuer, audience string, tokenTTL time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// Issue signs a token asserting that the bearer acts as caller.
func (s *Service) Issue(ctx context.Context, caller domain.Address) (string, error) {
	if caller.IsZero() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "caller cannot be the zero address")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	now := requestcontext.Now(ctx)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Addr: caller.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        hex.EncodeToString(b),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken checks signature, algorithm, expiry, issuer and audience, then
// returns the caller identity.
func (s *Service) ValidateToken(tokenString string) (domain.Address, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ZeroAddress, dErrors.New(dErrors.CodeUnauthenticated, "token expired")
		}
		return domain.ZeroAddress, dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}
	if !parsed.Valid {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}

	caller, err := domain.ParseAddress(claims.Addr)
	if err != nil || caller.IsZero() {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeUnauthenticated, "invalid caller claim")
	}
	return caller, nil
}
