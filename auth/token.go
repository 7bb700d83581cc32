package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken  = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingSecret = errors.New("AUTH_JWT_SECRET is not configured")
)

// Claims are the fields the auth provider puts in session tokens.
type Claims struct {
	UserID   string
	Username string
	Email    string
	Role     string
}

func (c Claims) IsAdmin() bool { return c.Role == "admin" }

var signingKey atomic.Pointer[[]byte]

// SetSecret installs the HS256 key shared with the auth provider. It is
// called once at startup from the loaded configuration.
func SetSecret(s string) {
	key := []byte(strings.TrimSpace(s))
	signingKey.Store(&key)
}

func secret() ([]byte, error) {
	key := signingKey.Load()
	if key == nil || len(*key) == 0 {
		return nil, ErrMissingSecret
	}
	return *key, nil
}

// CreateToken signs a session token. The auth provider issues real tokens;
// this is used by seed data and tests.
func CreateToken(c Claims, ttl time.Duration) (string, error) {
	key, err := secret()
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"sub":      c.UserID,
		"username": c.Username,
		"email":    c.Email,
		"role":     c.Role,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func ExtractToken(r *http.Request) string {
	bearer := r.Header.Get("Authorization")
	if parts := strings.Fields(bearer); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return r.URL.Query().Get("token")
}

// ParseToken validates an HS256 session token and returns its claims.
func ParseToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	key, err := secret()
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{UserID: sub}
	claims.Username, _ = mc["username"].(string)
	claims.Email, _ = mc["email"].(string)
	claims.Role, _ = mc["role"].(string)
	return claims, nil
}
