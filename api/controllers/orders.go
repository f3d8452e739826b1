package controllers

import (
	"net/http"

	"github.com/angelmondragon/bakery-backend/api/middleware"
	"github.com/angelmondragon/bakery-backend/api/responses"
	"github.com/angelmondragon/bakery-backend/api/validators"
	"github.com/angelmondragon/bakery-backend/internal/orders"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/telemetry"
)

// OrdersCreate submits a delivery order for the authenticated caller. Field
// checks are left to the service so their order and messages stay fixed.
func OrdersCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := telemetry.WithAction(r.Context(), "orders.create")

		var body orders.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CreateOrder(ctx, orders.CreateOrderInput{
			ActorUserID:        middleware.ActorFromContext(ctx),
			CreateOrderRequest: body,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrdersList returns the caller's order history, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForUser(r.Context(), middleware.ActorFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func OrdersCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := telemetry.WithAction(r.Context(), "orders.cancel")

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CancelOrder(ctx, orders.CancelOrderInput{
			OrderID:     orderID,
			ActorUserID: middleware.ActorFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
