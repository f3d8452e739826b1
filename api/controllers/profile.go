package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/bakery-backend/api/middleware"
	"github.com/angelmondragon/bakery-backend/api/responses"
	"github.com/angelmondragon/bakery-backend/api/validators"
	"github.com/angelmondragon/bakery-backend/internal/profiles"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
)

const msgProfileLogin = "יש להתחבר כדי לצפות בפרופיל"

func ProfileGet(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		if actor == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgProfileLogin))
			return
		}

		profile, err := svc.Get(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ProfileUpdate applies a partial update to the caller's own profile. The
// body has no role field and unknown fields are rejected, so a client
// cannot promote itself.
func ProfileUpdate(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		if actor == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgProfileLogin))
			return
		}

		var body profiles.UpdateProfileInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Update(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
