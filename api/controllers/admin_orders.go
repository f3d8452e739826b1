package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bakery-backend/api/responses"
	"github.com/angelmondragon/bakery-backend/api/validators"
	"github.com/angelmondragon/bakery-backend/internal/orders"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/telemetry"
)

// AdminOrdersList lists orders for the dashboard. Supported filters:
// status, slot, archived, plus limit/cursor pagination.
func AdminOrdersList(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseAdminFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListOrders(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseAdminFilter(r *http.Request) (orders.AdminListFilter, error) {
	var filter orders.AdminListFilter

	params, err := validators.ParsePagination(r)
	if err != nil {
		return filter, err
	}
	filter.Params = params

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "סטטוס לא תקין").
				WithDetails(map[string]any{"field": "status"})
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("slot")); raw != "" {
		slot, err := enums.ParseDeliverySlot(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "יום משלוח לא תקין").
				WithDetails(map[string]any{"field": "slot"})
		}
		filter.Slot = &slot
	}
	archived, err := validators.ParseQueryBool(r, "archived")
	if err != nil {
		return filter, err
	}
	filter.Archived = archived
	return filter, nil
}

func AdminOrdersStats(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// AdminOrderStatus sets the status of one order and returns the stored row.
func AdminOrderStatus(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := telemetry.WithAction(r.Context(), "orders.admin.status")

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body orders.UpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(ctx, orderID, body.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AdminOrderArchive(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := telemetry.WithAction(r.Context(), "orders.admin.archive")

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body orders.SetArchivedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.SetArchived(ctx, orderID, *body.Archived)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
