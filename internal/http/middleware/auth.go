package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	accessorClaimsKey contextKey = "accessorClaims"
	adminClaimsKey    contextKey = "adminClaims"
)

// AccessorJWT enforces an HMAC-signed JWT for report read endpoints. The
// token's subject is the accessor identity the report service authorizes
// against and audits.
func AccessorJWT(secret string) func(http.Handler) http.Handler {
	return jwtAuth(secret, accessorClaimsKey)
}

// AdminJWT enforces an HMAC-signed JWT for operational endpoints such as
// retention purges.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return jwtAuth(secret, adminClaimsKey)
}

func jwtAuth(secret string, key contextKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), key, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessorClaimsFromContext returns accessor JWT claims if present.
func AccessorClaimsFromContext(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(accessorClaimsKey).(jwt.RegisteredClaims)
	return claims, ok
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(jwt.RegisteredClaims)
	return claims, ok
}
