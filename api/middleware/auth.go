package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/bakery-backend/api/responses"
	pkgAuth "github.com/angelmondragon/bakery-backend/pkg/auth"
	"github.com/angelmondragon/bakery-backend/pkg/auth/session"
	"github.com/angelmondragon/bakery-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/telemetry"
)

const (
	msgLoginRequired  = "יש להתחבר כדי להמשיך"
	msgSessionExpired = "פג תוקף ההתחברות. יש להתחבר מחדש"
)

// Auth validates a bearer token and seeds the request context with the claims.
// The access id must still map to a refresh session, so logout takes effect
// before the token expires.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgLoginRequired))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg := msgLoginRequired
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = msgSessionExpired
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgSessionExpired))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgSessionExpired))
					return
				}
			}

			userID := claims.UserID.String()
			ctx := WithPrincipal(r.Context(), Principal{
				UserID:   userID,
				Role:     string(claims.Role),
				AccessID: claims.ID,
			})
			ctx = telemetry.WithActor(ctx, userID)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    userID,
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = raw[7:]
	}
	return strings.TrimSpace(raw)
}
