// Package token issues and checks the signed operator tokens that guard the
// HTTP API.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrTokenNotValid = errors.New("token is not valid")
	ErrNoOperator    = errors.New("token has no operator")
)

type Claims struct {
	jwt.RegisteredClaims
	Operator string `json:"operator"`
}

// BuildJWTString signs a token for operator valid for ttl.
func BuildJWTString(secret string, operator string, ttl time.Duration) (string, error) {
	if operator == "" {
		return "", ErrNoOperator
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Operator: operator,
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// GetOperator checks tokenString and returns the operator it was issued to.
func GetOperator(secret string, tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", errors.Join(ErrTokenNotValid, err)
	}
	if !token.Valid {
		return "", ErrTokenNotValid
	}
	if claims.Operator == "" {
		return "", ErrNoOperator
	}
	return claims.Operator, nil
}
