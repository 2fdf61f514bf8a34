// Package auth mints and verifies the HS256 session tokens that protect the
// admin API and authorize media uploads.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dcampelo/storefront/internal/common"
)

// Claims extends the registered claims with the authenticated user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies the signature and expiry of tokenString and
// returns the user id it carries.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrSessionInvalid
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}

// TokenSource adapts a bearer token captured from a request into the
// credential source the submission workflow checks before uploading.
type TokenSource struct {
	Token  string
	Secret []byte
}

// AccessToken re-verifies the captured token and returns it. An expired or
// malformed token fails the whole upload precondition.
func (s TokenSource) AccessToken(ctx context.Context) (string, error) {
	if s.Token == "" {
		return "", common.ErrSessionInvalid
	}
	if _, err := GetUserIDFromToken(s.Token, s.Secret); err != nil {
		return "", err
	}
	return s.Token, nil
}
