package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/viajes-nova/viajes-api/internal/shared"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = time.Hour

const tokenIssuer = "viajes-api"

// Claims is the wire form of a token. The identity fields are pointers so a
// token lacking one of them can be told apart from one carrying a zero value.
type Claims struct {
	ID    *int64  `json:"id,omitempty"`
	Email *string `json:"email,omitempty"`
	Rol   *string `json:"rol,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the identity snapshot and whether all of id, email and
// rol were present.
func (c *Claims) Identity() (shared.Identity, bool) {
	if c == nil || c.ID == nil || c.Email == nil || c.Rol == nil {
		return shared.Identity{}, false
	}
	return shared.Identity{ID: *c.ID, Email: *c.Email, Rol: *c.Rol}, true
}

// TokenCodec signs and verifies HS256 identity tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec builds a codec. A blank secret yields a codec whose Issue
// and Verify always fail with shared.ErrServerMisconfigured.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	codec := &TokenCodec{ttl: ttl, now: time.Now}
	if strings.TrimSpace(secret) != "" {
		codec.secret = []byte(secret)
	}
	return codec
}

// WithClock replaces the time source.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

// Configured reports whether a signing secret is available.
func (c *TokenCodec) Configured() bool {
	return c != nil && len(c.secret) > 0
}

// Issue signs a token carrying id, email and rol valid for the codec TTL.
func (c *TokenCodec) Issue(identity shared.Identity) (string, error) {
	if !c.Configured() {
		return "", shared.ErrServerMisconfigured
	}
	issuedAt := c.now()
	id, email, rol := identity.ID, identity.Email, identity.Rol
	claims := Claims{
		ID:    &id,
		Email: &email,
		Rol:   &rol,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks structure, signature and expiry. Every failure is reported
// as shared.ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	if !c.Configured() {
		return nil, shared.ErrServerMisconfigured
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, shared.ErrInvalidToken
	}
	return claims, nil
}
