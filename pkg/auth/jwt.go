package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID     uuid.UUID  `json:"user_id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	PharmacyID *uuid.UUID `json:"pharmacy_id,omitempty"`
}

type JWTConfig struct {
	Secret        string
	RefreshSecret string
	Expiry        time.Duration
	RefreshExpiry time.Duration
}

type JWTService struct {
	cfg JWTConfig
}

func NewJWTService(cfg JWTConfig) *JWTService {
	return &JWTService{cfg: cfg}
}

func (s *JWTService) GenerateAccessToken(userID uuid.UUID, email, role string, pharmacyID *uuid.UUID) (string, error) {
	return s.generate(userID, email, role, pharmacyID, s.cfg.Secret, s.cfg.Expiry)
}

func (s *JWTService) GenerateRefreshToken(userID uuid.UUID, email, role string, pharmacyID *uuid.UUID) (string, error) {
	return s.generate(userID, email, role, pharmacyID, s.cfg.RefreshSecret, s.cfg.RefreshExpiry)
}

func (s *JWTService) generate(userID uuid.UUID, email, role string, pharmacyID *uuid.UUID, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		UserID:     userID,
		Email:      email,
		Role:       role,
		PharmacyID: pharmacyID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.cfg.Secret)
}

func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.cfg.RefreshSecret)
}

func (s *JWTService) validate(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}
