package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed is returned when a token cannot be split or its
	// payload cannot be decoded into Claims.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrInvalidConfig is returned by NewManager for unusable configuration.
	ErrInvalidConfig = errors.New("invalid jwt configuration")
)

// Decode parses the payload of token without verifying its signature or
// validating any claim. Every call decodes from scratch.
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return claims, nil
}
