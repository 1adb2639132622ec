package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/arunakai/care-home-saas/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the session lifetime when none is configured.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrNoSecret       = errors.New("secret not configured")
	ErrNoTokenSubject = errors.New("user has no id")
)

// Claims wraps jwt.RegisteredClaims with the identity fields the session
// needs. Subject holds the decimal user id.
type Claims struct {
	Email      string      `json:"email"`
	FirstName  string      `json:"firstName,omitempty"`
	LastName   string      `json:"lastName,omitempty"`
	Role       models.Role `json:"role"`
	FacilityID *int64      `json:"facilityId,omitempty"`
	jwt.RegisteredClaims
}

// SubjectInt returns the user id, or 0 when the subject is not numeric.
func (c *Claims) SubjectInt() int64 {
	v, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// User rebuilds the caller identity carried by the token.
func (c *Claims) User() *models.User {
	return &models.User{
		ID:         c.SubjectInt(),
		Email:      c.Email,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Role:       c.Role,
		FacilityID: c.FacilityID,
	}
}

// TokenIssuer signs and verifies session tokens with a server-held secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the validity window of issued tokens.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// WithClock returns a copy of t that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

func (t *TokenIssuer) Issue(u *models.User) (string, error) {
	if len(t.secret) == 0 {
		return "", ErrNoSecret
	}
	if u == nil || u.ID <= 0 {
		return "", ErrNoTokenSubject
	}

	now := t.now()
	claims := Claims{
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		FacilityID: u.FacilityID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
// Every failure wraps ErrTokenInvalid.
func (t *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	if len(t.secret) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrNoSecret)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	var claims Claims
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(_ *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.SubjectInt() <= 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}

	return &claims, nil
}
