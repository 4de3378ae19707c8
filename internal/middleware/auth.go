// Package middleware provides request-scoped middleware: sessions, logging, tracing, metrics and rate limiting.
package middleware

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quill/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "session"
	// LoginPath is where anonymous visitors of protected pages are sent.
	LoginPath = "/auth/login/"

	tokenIssuer = "quill"
)

var cfg *config.Config

// InitMiddleware initializes session middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// SignSessionToken issues an HMAC-signed token whose subject is the user ID.
func SignSessionToken(userID uint, ttl time.Duration) (string, error) {
	if cfg == nil {
		return "", errors.New("middleware not initialized")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// ParseSessionToken validates a token and returns the user ID in its subject.
func ParseSessionToken(tokenString string) (uint, error) {
	if cfg == nil {
		return 0, errors.New("middleware not initialized")
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return 0, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, errors.New("invalid token structure - missing subject")
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return 0, errors.New("invalid user ID in token")
	}
	return uint(userID), nil
}

// LoadSession resolves the session cookie (or a Bearer header) into
// c.Locals("userID"). Anonymous and invalid sessions pass through untouched.
func LoadSession(c *fiber.Ctx) error {
	token := c.Cookies(SessionCookie)
	if token == "" {
		if parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		return c.Next()
	}

	userID, err := ParseSessionToken(token)
	if err != nil {
		Logger.DebugContext(c.UserContext(), "ignoring invalid session", "error", err)
		return c.Next()
	}
	c.Locals("userID", userID)
	return c.Next()
}

// LoginRequired redirects anonymous visitors to the login page, preserving
// the requested URL in the next parameter.
func LoginRequired(c *fiber.Ctx) error {
	if _, ok := CurrentUserID(c); ok {
		return c.Next()
	}
	return c.Redirect(LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
}

// CurrentUserID returns the authenticated user, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals("userID").(uint)
	return userID, ok && userID != 0
}
