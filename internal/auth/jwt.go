// Package auth issues and validates the bearer credentials accepted by the
// API: short-lived HS256 JWTs and an optional static API key for
// service-to-service callers.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

type Authenticator struct {
	secret []byte
	apiKey string
}

// NewAuthenticator builds an authenticator. An empty apiKey disables the
// static key path entirely.
func NewAuthenticator(secret, apiKey string) *Authenticator {
	return &Authenticator{secret: []byte(secret), apiKey: apiKey}
}

func (a *Authenticator) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Validate resolves a bearer credential to a user id. The static API key is
// checked first and maps to the service identity.
func (a *Authenticator) Validate(credential string) (string, error) {
	if a.apiKey != "" && credential == a.apiKey {
		return "api-key-user", nil
	}
	return a.validateJWT(credential)
}

func (a *Authenticator) validateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if sub, ok := claims["sub"].(string); ok {
			return sub, nil
		}
	}
	return "", fmt.Errorf("invalid token")
}
