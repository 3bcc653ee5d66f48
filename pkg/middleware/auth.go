package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "creatorclub/pkg/errors"
	apphttp "creatorclub/pkg/http"
	"creatorclub/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
)

const (
	HolderIDKey   contextKey = "holder_id"
	HolderRoleKey contextKey = "holder_role"

	HolderIDHeader   = "X-Holder-ID"
	HolderRoleHeader = "X-Holder-Role"
)

// Authenticate resolves the caller identity and stores it in the request context.
//
// With a secret, identity comes from an HS256 bearer token ("sub" or "uid" claim, optional
// "role" claim) and a malformed or expired token is rejected. Without a secret the service
// sits behind a gateway and trusts the X-Holder-ID and X-Holder-Role headers.
// A request without any identity passes through; operations that need one fail on their own.
func Authenticate(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var holderID, role string

			if secret == "" {
				holderID = strings.TrimSpace(r.Header.Get(HolderIDHeader))
				role = strings.TrimSpace(r.Header.Get(HolderRoleHeader))
			} else if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
				if !found {
					rejectAuth(w, log, r, "Invalid Authorization header format")
					return
				}

				claims, err := ParseToken(tokenString, secret)
				if err != nil {
					rejectAuth(w, log, r, err.Error())
					return
				}
				holderID, role = claims.HolderID(), claims.Role
			}

			ctx := r.Context()
			if holderID != "" {
				ctx = context.WithValue(ctx, HolderIDKey, holderID)
			}
			if role != "" {
				ctx = context.WithValue(ctx, HolderRoleKey, role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type HolderClaims struct {
	UID  string `json:"uid,omitempty"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *HolderClaims) HolderID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UID
}

func ParseToken(tokenString, secret string) (*HolderClaims, error) {
	claims := &HolderClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	if claims.HolderID() == "" {
		return nil, fmt.Errorf("token carries no subject")
	}
	return claims, nil
}

// IssueToken signs a token for holderID. Used by operators and tests.
func IssueToken(holderID, role, secret string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = holderID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &HolderClaims{Role: role, RegisteredClaims: claims})
	return token.SignedString([]byte(secret))
}

func HolderFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(HolderIDKey).(string); ok {
		return id
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(HolderRoleKey).(string); ok {
		return role
	}
	return ""
}

func rejectAuth(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Authentication failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
	)

	apphttp.WriteError(w, apperrors.Unauthenticated("Invalid or expired token"))
}
