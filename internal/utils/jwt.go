package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	jwtSecret   = []byte("change-me-in-production")
	tokenExpiry = 240 * time.Hour
)

// Configure sets the signing secret and token lifetime from config.
// Call once at startup before any token is issued or parsed.
func Configure(secret string, hours int) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if hours > 0 {
		tokenExpiry = time.Duration(hours) * time.Hour
	}
}

type Claims struct {
	UserID uint `json:"user_id"`
	jwt.StandardClaims
}

// GenerateToken issues a signed token for the given user.
func GenerateToken(userID uint) (string, error) {
	nowTime := time.Now()

	claims := Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: nowTime.Add(tokenExpiry).Unix(),
			IssuedAt:  nowTime.Unix(),
		},
	}

	tokenClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenClaims.SignedString(jwtSecret)
}

// ParseToken validates a token and returns its claims.
func ParseToken(token string) (*Claims, error) {
	tokenClaims, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})

	if tokenClaims != nil {
		if claims, ok := tokenClaims.Claims.(*Claims); ok && tokenClaims.Valid {
			return claims, nil
		}
	}

	if err == nil {
		err = errors.New("invalid token")
	}
	return nil, err
}
