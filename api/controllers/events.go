package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendibase/vendibase-backend/api/responses"
	"github.com/vendibase/vendibase-backend/api/validators"
	eventsvc "github.com/vendibase/vendibase-backend/internal/events"
	"github.com/vendibase/vendibase-backend/pkg/logger"
)

type createEventRequest struct {
	Name      string          `json:"name" validate:"required"`
	Venue     string          `json:"venue,omitempty"`
	StartsAt  time.Time       `json:"starts_at" validate:"required"`
	EndsAt    time.Time       `json:"ends_at" validate:"required"`
	FixedCost decimal.Decimal `json:"fixed_cost"`
}

type updateEventRequest struct {
	Name      *string          `json:"name,omitempty"`
	Venue     *string          `json:"venue,omitempty"`
	StartsAt  *time.Time       `json:"starts_at,omitempty"`
	EndsAt    *time.Time       `json:"ends_at,omitempty"`
	FixedCost *decimal.Decimal `json:"fixed_cost,omitempty"`
}

func CreateEvent(svc eventsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createEventRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Create(r.Context(), eventsvc.CreateInput{
			Name:      payload.Name,
			Venue:     payload.Venue,
			StartsAt:  payload.StartsAt,
			EndsAt:    payload.EndsAt,
			FixedCost: payload.FixedCost,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

func UpdateEvent(svc eventsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateEventRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Update(r.Context(), eventsvc.UpdateInput{
			ID:        id,
			Name:      payload.Name,
			Venue:     payload.Venue,
			StartsAt:  payload.StartsAt,
			EndsAt:    payload.EndsAt,
			FixedCost: payload.FixedCost,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

func GetEvent(svc eventsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

func ListEvents(svc eventsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		events, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listEnvelope{Items: events, NextCursor: next})
	}
}

func EventProfit(svc eventsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profit, err := svc.Profit(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profit)
	}
}
