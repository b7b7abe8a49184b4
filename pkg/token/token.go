package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/visagate/visa-processing-backend/internal/models"
)

// PrincipalKind distinguishes the two principal populations
type PrincipalKind string

const (
	KindAdmin    PrincipalKind = "admin"
	KindCustomer PrincipalKind = "customer"
)

// Verification failures. Expired is distinguished from every other defect.
var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token expired")
)

// Claims is the self-describing session token payload. Permissions is set
// only for subadmins; it rides in the token but the access guard re-fetches
// the live set on every request.
type Claims struct {
	PrincipalID uuid.UUID           `json:"principal_id"`
	Kind        PrincipalKind       `json:"kind"`
	Role        string              `json:"role"`
	Permissions *models.Permissions `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Service mints and verifies signed session tokens. There is no revocation
// list; a token stays valid for its full lifetime until the principal lookup
// behind the access guard fails.
type Service struct {
	secret []byte
	expiry time.Duration
}

// NewService creates a new session token service. The secret must come from
// configuration; an empty secret is a programming error caught at startup.
func NewService(secret string, expiry time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Issue produces a signed session token for the given principal.
func (s *Service) Issue(principalID uuid.UUID, kind PrincipalKind, role string, permissions *models.Permissions) (string, error) {
	now := time.Now()
	claims := Claims{
		PrincipalID: principalID,
		Kind:        kind,
		Role:        role,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "visagate-visa-backend",
			Subject:   principalID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Verify validates a session token and returns its claims. Returns
// ErrExpiredToken for a well-formed but stale token and ErrInvalidToken for
// everything else.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if claims.Kind != KindAdmin && claims.Kind != KindCustomer {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Expiry returns the configured token lifetime.
func (s *Service) Expiry() time.Duration {
	return s.expiry
}
