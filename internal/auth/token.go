package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Access tokens authenticate API requests; email tokens
// are single-purpose links sent by mail and must never be interchangeable
// with access tokens.
const (
	PurposeAccess        = "access"
	PurposeVerifyEmail   = "verify_email"
	PurposePasswordReset = "password_reset"
)

var (
	// ErrInvalidToken indicates the token failed signature or claim validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongPurpose indicates a token was presented for the wrong use.
	ErrWrongPurpose = errors.New("token purpose mismatch")
)

// Claims are the JWT claims carried by all tokens issued by this service.
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 JWTs.
type TokenManager struct {
	secret []byte
}

// NewTokenManager creates a TokenManager with the given signing secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// IssueAccessToken creates an access token for the given user email.
// The subject is the user's email, matching the lookup key used by the
// auth middleware.
func (m *TokenManager) IssueAccessToken(email string, ttl time.Duration) (string, error) {
	return m.issue(email, PurposeAccess, ttl)
}

// IssueEmailToken creates a purpose-scoped token for email links
// (verification or password reset).
func (m *TokenManager) IssueEmailToken(email, purpose string, ttl time.Duration) (string, error) {
	if purpose != PurposeVerifyEmail && purpose != PurposePasswordReset {
		return "", fmt.Errorf("issue email token: unknown purpose %q", purpose)
	}
	return m.issue(email, purpose, ttl)
}

func (m *TokenManager) issue(subject, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken validates the token signature and expiry, and checks that it
// was issued for the expected purpose. Returns the subject (user email).
func (m *TokenManager) VerifyToken(tokenString, purpose string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return "", ErrWrongPurpose
	}

	return claims.Subject, nil
}
