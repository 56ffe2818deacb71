package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/yourusername/dealership-api/internal/domain/entity"
)

// JWTCustomClaims carries the application claims inside the access token.
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService issues and parses HMAC-signed access tokens.
type JWTService struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
}

// NewJWTService creates a token service. expirationHrs <= 0 falls back to
// one week, matching the reference token lifetime.
func NewJWTService(secret, issuer, audience string, expirationHrs int) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if expirationHrs <= 0 {
		expirationHrs = 7 * 24
	}
	return &JWTService{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		expiry:   time.Duration(expirationHrs) * time.Hour,
	}, nil
}

// GenerateToken signs a new access token for the user.
func (s *JWTService) GenerateToken(user *entity.User) (string, error) {
	if user == nil {
		return "", fmt.Errorf("user is required to generate a token")
	}

	now := time.Now()
	claims := JWTCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.FullName(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Expiry returns the configured access-token lifetime.
func (s *JWTService) Expiry() time.Duration {
	return s.expiry
}

// ParseToken validates a token string and returns its claims.
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
