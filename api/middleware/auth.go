package middleware

import (
	"context"
	"net/http"
	"strings"

	pkgAuth "github.com/dnofulla/marketcove-backend/pkg/auth"
	"github.com/dnofulla/marketcove-backend/pkg/config"
	"github.com/dnofulla/marketcove-backend/pkg/enums"
	pkgerrors "github.com/dnofulla/marketcove-backend/pkg/errors"
	"github.com/dnofulla/marketcove-backend/pkg/logger"
)

// Auth parses a bearer access token and seeds the request context with the
// session claims. A missing or invalid token is logged and the request
// proceeds unauthenticated; RequireRole gates make the final access call.
// Refresh tokens never authenticate a request, they are only good for the
// refresh endpoint.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseToken(cfg, token)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "reason", err.Error()), "auth.token.rejected")
				}
				next.ServeHTTP(w, r)
				return
			}
			if claims.Kind != enums.TokenKindAccess {
				if logg != nil {
					logg.Warn(r.Context(), "auth.token.rejected")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			if claims.ProfileID != nil {
				ctx = context.WithValue(ctx, ctxProfileID, claims.ProfileID.String())
			}

			if logg != nil {
				fields := map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				}
				if claims.ProfileID != nil {
					fields["profile_id"] = claims.ProfileID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}
