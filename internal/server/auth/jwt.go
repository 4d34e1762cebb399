// Package auth mints and parses the signed tokens carried by the session
// cookie. The token only names a server-side session; it grants nothing by
// itself without the matching nonce/verification state held by the server.
package auth

import (
	"time"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// Claims includes the standard registered claims plus the session identifier.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string
}

func GenerateToken(sessionID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		SessionID: sessionID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func GetSessionIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", shared.ErrorInvalidToken
	}

	return claims.SessionID, nil
}
