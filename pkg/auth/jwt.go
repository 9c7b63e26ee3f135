package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken    = errors.New("invalid bearer token")
	ErrExpiredToken    = errors.New("bearer token expired")
	ErrUnauthenticated = errors.New("authentication required")
)

// Claims carries the account identity inside a bearer token. Tokens are
// stateless: validity is determined purely by signature and expiry.
type Claims struct {
	Username string `json:"sub_name"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed bearer token for the given account identity
func GenerateToken(username string, secret []byte, ttl time.Duration) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a bearer token and returns the account identity it
// carries. Expired and forged tokens produce distinct errors for logging, but
// callers must surface both as the same authentication failure.
func ValidateToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify the signing method to prevent algorithm confusion attacks
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		username := claims.Username
		if username == "" {
			username = claims.Subject
		}
		if username == "" {
			return "", ErrInvalidToken
		}
		return username, nil
	}

	return "", ErrInvalidToken
}
