package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendibase/vendibase-backend/api/responses"
	"github.com/vendibase/vendibase-backend/api/validators"
	inventorysvc "github.com/vendibase/vendibase-backend/internal/inventory"
	"github.com/vendibase/vendibase-backend/pkg/enums"
	"github.com/vendibase/vendibase-backend/pkg/logger"
)

type initialStockRequest struct {
	Quantity   int             `json:"quantity" validate:"required,min=1"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	ReceivedAt time.Time       `json:"received_at"`
	Reason     string          `json:"reason"`
}

// SetInitialStock records opening stock for a product. Unit cost defaults to
// zero when the caller has no acquisition cost for the opening balance.
func SetInitialStock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload initialStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.ReceiveBatch(r.Context(), inventorysvc.ReceiveBatchInput{
			ProductID:  id,
			Quantity:   payload.Quantity,
			UnitCost:   payload.UnitCost,
			ReceivedAt: payload.ReceivedAt,
			Cause:      enums.MovementCauseInitial,
			Reason:     strings.TrimSpace(payload.Reason),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, batch)
	}
}

func CurrentStock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stock, err := svc.CurrentStock(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_id": id, "stock": stock})
	}
}

func StockHistory(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movements, next, err := svc.History(r.Context(), id, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listEnvelope{Items: movements, NextCursor: next})
	}
}
