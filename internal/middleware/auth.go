// Package middleware provides the Fiber middleware shared by every route:
// caller identity, request context propagation, logging, metrics and tracing.
package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken means the request carried no bearer token.
	ErrNoToken = errors.New("authorization header required")
	// ErrBadHeader means the Authorization header is not "Bearer <token>".
	ErrBadHeader = errors.New("invalid authorization header format")
	// ErrInvalidToken covers bad signatures, expiry and malformed claims.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrBadHeader
	}
	return parts[1], nil
}

// ParseUserID verifies an HS256 token against secret and returns the user id
// carried in its subject claim.
func ParseUserID(tokenString, secret string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	// Subject claim per RFC 7519
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, ErrInvalidToken
	}
	return uint(userID), nil
}

// UserIDFromRequest resolves the caller of a Fiber request from its bearer token.
func UserIDFromRequest(c *fiber.Ctx, secret string) (uint, error) {
	tokenString, err := BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return 0, err
	}
	return ParseUserID(tokenString, secret)
}
