// Package middleware provides HTTP middleware components
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is used for context values
type ContextKey string

const (
	ContextCaller    ContextKey = "caller"
	ContextRequestID ContextKey = "requestID"
)

// InternalClaims are the JWT claims carried by internal service
// tokens.
type InternalClaims struct {
	Service string `json:"service"`
	jwt.RegisteredClaims
}

// InternalAuth guards internal endpoints. Callers present an HS256
// bearer token signed with the shared internal secret; the signing
// service name is placed on the request context.
func InternalAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, `{"error":"invalid authorization format"}`, http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			claims := &InternalClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextCaller, claims.Service)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GenerateInternalToken signs a short-lived token for calling internal
// endpoints.
func GenerateInternalToken(secret []byte, service string, expiry time.Duration) (string, error) {
	claims := &InternalClaims{
		Service: service,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GetCaller extracts the calling service name from context.
func GetCaller(ctx context.Context) string {
	if caller, ok := ctx.Value(ContextCaller).(string); ok {
		return caller
	}
	return ""
}
