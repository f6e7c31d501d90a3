package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/01moynul/artisansloom-golang/internal/models"
)

// Claims is the payload of a caller identity token.
type Claims struct {
	Role  models.Role `json:"role"`
	Email string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 identity tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager. ttl bounds the lifetime of issued tokens.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// GenerateToken creates a signed token for the caller.
func (m *TokenManager) GenerateToken(caller models.Caller) (string, error) {
	if caller.UID == "" {
		return "", errors.New("caller uid is required")
	}
	if !caller.Role.Valid() {
		return "", errors.New("invalid caller role")
	}

	now := m.now()
	claims := Claims{
		Role:  caller.Role,
		Email: caller.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UID, // "sub" is the uid
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses tokenString and returns the caller it identifies.
func (m *TokenManager) ValidateToken(tokenString string) (models.Caller, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		// Only accept the algorithm we sign with.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return models.Caller{}, err
	}
	if !token.Valid {
		return models.Caller{}, errors.New("invalid token")
	}

	if claims.Subject == "" {
		return models.Caller{}, errors.New("invalid subject claim")
	}
	if !claims.Role.Valid() {
		return models.Caller{}, errors.New("invalid role claim")
	}

	return models.Caller{UID: claims.Subject, Role: claims.Role, Email: claims.Email}, nil
}
