package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendibase/vendibase-backend/api/responses"
	"github.com/vendibase/vendibase-backend/api/validators"
	purchasesvc "github.com/vendibase/vendibase-backend/internal/purchases"
	"github.com/vendibase/vendibase-backend/pkg/enums"
	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
	"github.com/vendibase/vendibase-backend/pkg/logger"
)

type receivePurchaseRequest struct {
	Supplier     string               `json:"supplier" validate:"required"`
	Currency     string               `json:"currency" validate:"required"`
	ExchangeRate decimal.Decimal      `json:"exchange_rate"`
	FreightTotal decimal.Decimal      `json:"freight_total"`
	PurchasedAt  time.Time            `json:"purchased_at" validate:"required"`
	Lines        []receiveLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type receiveLineRequest struct {
	ProductID      string          `json:"product_id" validate:"required,uuid"`
	Quantity       int             `json:"quantity" validate:"required,min=1"`
	UnitCostSource decimal.Decimal `json:"unit_cost_source"`
}

func (r receivePurchaseRequest) toInput() (purchasesvc.ReceiveInput, error) {
	currency, err := enums.ParseCurrency(strings.TrimSpace(r.Currency))
	if err != nil {
		return purchasesvc.ReceiveInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}

	lines := make([]purchasesvc.ReceiveLineInput, 0, len(r.Lines))
	for _, line := range r.Lines {
		productID, err := uuid.Parse(strings.TrimSpace(line.ProductID))
		if err != nil {
			return purchasesvc.ReceiveInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		lines = append(lines, purchasesvc.ReceiveLineInput{
			ProductID:      productID,
			Quantity:       line.Quantity,
			UnitCostSource: line.UnitCostSource,
		})
	}

	return purchasesvc.ReceiveInput{
		Supplier:     strings.TrimSpace(r.Supplier),
		Currency:     currency,
		ExchangeRate: r.ExchangeRate,
		FreightTotal: r.FreightTotal,
		PurchasedAt:  r.PurchasedAt,
		Lines:        lines,
	}, nil
}

func ReceivePurchase(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload receivePurchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.Receive(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, purchase)
	}
}

func GetPurchase(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		purchase, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchase)
	}
}

func ListPurchases(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		purchases, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listEnvelope{Items: purchases, NextCursor: next})
	}
}
