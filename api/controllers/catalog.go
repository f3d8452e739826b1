package controllers

import (
	"net/http"

	"github.com/angelmondragon/bakery-backend/api/middleware"
	"github.com/angelmondragon/bakery-backend/api/responses"
	"github.com/angelmondragon/bakery-backend/api/validators"
	"github.com/angelmondragon/bakery-backend/internal/catalog"
	"github.com/angelmondragon/bakery-backend/pkg/delivery"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/telemetry"
)

// PublicCatalog serves the active catalog to the storefront.
func PublicCatalog(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := svc.Active(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=60")
		responses.WriteSuccess(w, active)
	}
}

// DeliveryOptions lists the delivery days currently offered.
func DeliveryOptions(cal *delivery.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"today":   cal.Today().Format(delivery.DateLayout),
			"options": cal.Options(),
		})
	}
}

func AdminCatalogRevisions(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		revs, err := svc.Revisions(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, revs)
	}
}

// AdminCatalogSave replaces the catalog with the submitted categories and
// publishes it as a new revision.
func AdminCatalogSave(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := telemetry.WithAction(r.Context(), "catalog.save")

		var body catalog.SaveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		saved, err := svc.Save(ctx, catalog.SaveInput{
			ActorUserID: middleware.ActorFromContext(ctx),
			Categories:  body.Categories,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, saved)
	}
}

// AdminCatalogEdit applies editor operations against base_revision.
func AdminCatalogEdit(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := telemetry.WithAction(r.Context(), "catalog.edit")

		var body catalog.EditRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		saved, err := svc.ApplyEdits(ctx, catalog.EditInput{
			ActorUserID:  middleware.ActorFromContext(ctx),
			BaseRevision: body.BaseRevision,
			Ops:          body.Ops,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, saved)
	}
}
