package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// HashToken computes a SHA-256 hash of the token string, used as the cache
// key so raw session tokens never land in Redis.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Server tokens authenticate service-to-service calls. They carry the server
// name as subject and an "svr" marker claim, signed with the shared server
// secret.

// GenerateServerToken mints a signed server token valid for the duration.
func GenerateServerToken(serverName, secret string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": serverName,
		"svr": "yes",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseServerToken validates a server token and returns the server name. Any
// token not signed with the secret, expired, or missing the server marker is
// rejected.
func ParseServerToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid server token")
	}
	if svr, _ := claims["svr"].(string); svr != "yes" {
		return "", errors.New("not a server token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("server token has no subject")
	}
	return sub, nil
}
