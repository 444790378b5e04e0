package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendibase/vendibase-backend/api/responses"
	"github.com/vendibase/vendibase-backend/api/validators"
	adjustmentsvc "github.com/vendibase/vendibase-backend/internal/adjustments"
	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
	"github.com/vendibase/vendibase-backend/pkg/logger"
)

type adjustStockRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Delta     int             `json:"delta" validate:"required"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Reason    string          `json:"reason" validate:"required"`
}

func AdjustStock(svc adjustmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		result, err := svc.Adjust(r.Context(), adjustmentsvc.AdjustInput{
			ProductID: productID,
			Delta:     payload.Delta,
			UnitCost:  payload.UnitCost,
			Reason:    strings.TrimSpace(payload.Reason),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
