package jwt

import (
	"context"
	"net/http"
	"strings"

	"eventlive/internal/pkg/logx"
)

// Define Context Key for storing the Claims struct, preventing key collisions with other packages.
type contextKey string

const (
	// ContextAuthClaimsKey is the key used to store the verified Claims (user identity) in the request Context.
	ContextAuthClaimsKey contextKey = "auth_claims"
)

// IdentityExtractorMiddleware attempts to extract and validate a JWT from the request header.
// It injects the Claims into the Context upon success. It does NOT interrupt the request
// (no 401 response) on failure or missing token, treating the user as anonymous instead;
// handlers that require identity check for nil claims themselves.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			tokenString := BearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, verifyErr := VerifyToken(tokenString, secretKey)
			if verifyErr != nil {
				// Token exists but is invalid (e.g., expired, wrong signature).
				// We log the warning but treat the user as anonymous and continue.
				logx.Warn("Invalid or expired JWT provided, treating as anonymous", "error", verifyErr.Message)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the bearer token from the Authorization header, falling back
// to the "token" query parameter used by browser WebSocket clients, which cannot set
// custom headers on the upgrade request.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	return r.URL.Query().Get("token")
}

// GetClaimsFromContext safely extracts the authenticated Claims from the request Context.
// In contexts where IdentityExtractorMiddleware is used, a nil return means the user is anonymous.
func GetClaimsFromContext(r *http.Request) *Claims {
	claims, ok := r.Context().Value(ContextAuthClaimsKey).(*Claims)

	if !ok {
		return nil
	}

	return claims
}
