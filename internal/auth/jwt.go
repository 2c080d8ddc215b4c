package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type UserRole string

const (
	RoleAdmin      UserRole = "PLAZA_ADMIN"
	RoleStallOwner UserRole = "STALL_OWNER"
	RoleStallStaff UserRole = "STALL_STAFF"
	RoleCustomer   UserRole = "CUSTOMER"
)

type Claims struct {
	UserID    string   `json:"userId"`
	SessionID string   `json:"sessionId"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	StallID   *string  `json:"stallId,omitempty"`
	Name      *string  `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func ParseBearerToken(authHeader string) string {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func VerifyAccessToken(tokenString string, secret string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token required")
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}

func SignAccessToken(claims *Claims, secret string, ttlSeconds int64) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(ttlSeconds) * time.Second))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
