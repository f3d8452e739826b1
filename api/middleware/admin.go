package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/bakery-backend/api/responses"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
)

const msgAdminOnly = "אין הרשאות מנהל"

// RoleReader loads the stored role of a profile.
type RoleReader interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (enums.ProfileRole, error)
}

// RequireAdmin admits only users whose profile row currently carries the
// admin role. The role claim inside the access token is ignored.
func RequireAdmin(roles RoleReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgLoginRequired))
				return
			}

			role, err := roles.RoleOf(r.Context(), actor)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, msgAdminOnly))
					return
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !role.IsAdmin() {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "stored_role", string(role)), "admin.denied")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, msgAdminOnly))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
