// Package auth implements the credential hasher and the stateless token
// service: signed, time-limited JWTs for sessions and for email actions
// (confirmation and password reset). Tokens are never stored server-side.
package auth

import (
	"errors"
	"time"

	"contactbook/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// EmailTokenTTL is the fixed validity window of email-action tokens.
// The 7-day window balances usability against the exposure window.
const EmailTokenTTL = 7 * 24 * time.Hour

// GenerateToken issues a session token for the given subject (username).
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
	})
	return token.SignedString(secretKey)
}

// GenerateEmailToken issues an email-action token for the given subject
// (the target email address). The caller cannot shorten or extend the TTL.
func GenerateEmailToken(subject string, secretKey []byte) (string, error) {
	return GenerateToken(subject, secretKey, EmailTokenTTL)
}

// GetSubjectFromToken validates the signature and expiry of a token and
// returns the embedded subject. Any failure, including a tampered payload,
// an unexpected signing method or a passed expiry, yields ErrInvalidToken;
// callers learn nothing about whether the subject exists.
func GetSubjectFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return "", common.ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
