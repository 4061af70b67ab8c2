package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess = "access"

	RoleAdmin = "admin"
)

// Claims represents JWT claims structure
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"` // chỉ chấp nhận "access"
	jwt.RegisteredClaims
}

// Manager handles JWT operations
//
// Service này không login user: token được phát hành bởi identity service,
// Manager chỉ verify chữ ký HS256 và issuer.
type Manager struct {
	secret    string
	issuer    string
	accessTTL time.Duration
}

// NewManager creates new JWT manager
func NewManager(secret, issuer string) *Manager {
	return &Manager{
		secret:    secret,
		issuer:    issuer,
		accessTTL: 24 * time.Hour,
	}
}

// GenerateAccessToken ký access token với TTL mặc định 24h
func (m *Manager) GenerateAccessToken(userID, role string) (string, error) {
	return m.GenerateAccessTokenWithTTL(userID, role, m.accessTTL)
}

// GenerateAccessTokenWithTTL ký access token với TTL tùy chọn
func (m *Manager) GenerateAccessTokenWithTTL(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secret))
}

// ValidateToken validates and parses token
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// ValidateAccessToken validates access token specifically
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Type != TokenTypeAccess {
		return nil, fmt.Errorf("invalid token type: expected access, got %s", claims.Type)
	}

	return claims, nil
}
