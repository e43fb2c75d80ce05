package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Roles carried in the token's role claim.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject")
	ErrMissingExpiry  = errors.New("token has no expiry")
)

// Principal is the authenticated caller of a request.
type Principal struct {
	BuyerID string
	Email   string
	Role    string
}

// IsAdmin is the single capability check for back-office operations.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Claims represents the JWT claims issued by the identity provider.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

// TokenManager verifies and issues HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	issuer string
}

// NewTokenManager creates a TokenManager. When issuer is non-empty, parsed
// tokens must carry a matching iss claim.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Parse validates tokenStr and returns the principal it names.
func (m *TokenManager) Parse(tokenStr string) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// jwt-go treats an absent exp as valid forever.
	if claims.ExpiresAt == 0 {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrMissingExpiry)
	}

	if m.issuer != "" && !claims.VerifyIssuer(m.issuer, true) {
		return Principal{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}

	if claims.Subject == "" {
		return Principal{}, ErrMissingSubject
	}

	role := claims.Role
	if role == "" {
		role = RoleCustomer
	}

	return Principal{
		BuyerID: claims.Subject,
		Email:   claims.Email,
		Role:    role,
	}, nil
}

// Issue signs a token for p that expires after ttl.
func (m *TokenManager) Issue(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: p.Email,
		Role:  p.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   p.BuyerID,
			Issuer:    m.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal attached by the authentication middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok && p.BuyerID != ""
}
