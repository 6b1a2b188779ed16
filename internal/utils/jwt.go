package utils

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type jwtCustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for the provided user ID.
func GenerateToken(secret string, userID uint, ttl time.Duration) (string, error) {
	id := strconv.FormatUint(uint64(userID), 10)
	claims := &jwtCustomClaims{
		UserID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the embedded user ID.
func ParseToken(secret, tokenString string) (uint, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(*jwtCustomClaims); ok && token.Valid {
		id, err := strconv.ParseUint(claims.UserID, 10, 64)
		if err != nil {
			return 0, jwt.ErrTokenInvalidClaims
		}
		return uint(id), nil
	}

	return 0, jwt.ErrTokenInvalidClaims
}
