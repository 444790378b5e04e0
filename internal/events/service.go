package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendibase/vendibase-backend/pkg/db/models"
	"github.com/vendibase/vendibase-backend/pkg/enums"
	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
	"github.com/vendibase/vendibase-backend/pkg/pagination"
)

// MoneyPrecision rounds reported money figures.
const MoneyPrecision int32 = 2

type salesLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Sale, error)
}

type expenseSummer interface {
	SumExpensesByEvent(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error)
}

// CreateInput carries a new event.
type CreateInput struct {
	Name      string
	Venue     string
	StartsAt  time.Time
	EndsAt    time.Time
	FixedCost decimal.Decimal
}

// UpdateInput carries partial event changes.
type UpdateInput struct {
	ID        uuid.UUID
	Name      *string
	Venue     *string
	StartsAt  *time.Time
	EndsAt    *time.Time
	FixedCost *decimal.Decimal
}

// EventView is an event with its derived status.
type EventView struct {
	models.Event
	Status enums.EventStatus
}

// Profit aggregates the financial outcome of one event.
type Profit struct {
	EventID       uuid.UUID
	TotalSales    decimal.Decimal
	TotalTax      decimal.Decimal
	GrossProfit   decimal.Decimal
	TotalExpenses decimal.Decimal
	NetProfit     decimal.Decimal
	ROI           decimal.Decimal
}

// Service manages events and their profit reporting.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*EventView, error)
	Update(ctx context.Context, input UpdateInput) (*EventView, error)
	Get(ctx context.Context, id uuid.UUID) (*EventView, error)
	List(ctx context.Context, params pagination.Params) ([]EventView, string, error)
	Profit(ctx context.Context, eventID uuid.UUID) (*Profit, error)
}

type service struct {
	repo     *Repository
	sales    salesLister
	expenses expenseSummer
	now      func() time.Time
}

// NewService builds the event service. The nowFn override keeps status
// derivation deterministic in tests; pass nil for wall-clock time.
func NewService(repo *Repository, sales salesLister, expenses expenseSummer, nowFn func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sales reader required")
	}
	if expenses == nil {
		return nil, fmt.Errorf("expense reader required")
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &service{repo: repo, sales: sales, expenses: expenses, now: nowFn}, nil
}

// Status derives the event lifecycle state from its window. It is computed
// on every read and never stored.
func Status(event *models.Event, now time.Time) enums.EventStatus {
	switch {
	case now.Before(event.StartsAt):
		return enums.EventStatusPlanned
	case now.After(event.EndsAt):
		return enums.EventStatusCompleted
	default:
		return enums.EventStatusActive
	}
}

func (s *service) Create(ctx context.Context, input CreateInput) (*EventView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event window required")
	}
	if input.EndsAt.Before(input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event must end after it starts")
	}
	if input.FixedCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed cost must not be negative")
	}

	event := &models.Event{
		ID:        uuid.New(),
		Name:      name,
		Venue:     strings.TrimSpace(input.Venue),
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
		FixedCost: input.FixedCost,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
	}
	return s.view(event), nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*EventView, error) {
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}

	event, err := s.load(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
		}
		event.Name = name
	}
	if input.Venue != nil {
		event.Venue = strings.TrimSpace(*input.Venue)
	}
	if input.StartsAt != nil {
		event.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		event.EndsAt = *input.EndsAt
	}
	if event.EndsAt.Before(event.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event must end after it starts")
	}
	if input.FixedCost != nil {
		if input.FixedCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed cost must not be negative")
		}
		event.FixedCost = *input.FixedCost
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event")
	}
	return s.view(event), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*EventView, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(event), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]EventView, string, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, "", err
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}
	views := make([]EventView, 0, len(rows))
	for i := range rows {
		views = append(views, *s.view(&rows[i]))
	}
	return views, next, nil
}

// Profit derives the event's financial outcome. Tax is a pass-through and
// is excluded from gross profit; ROI is 0 when there are no expenses.
func (s *service) Profit(ctx context.Context, eventID uuid.UUID) (*Profit, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	sales, err := s.sales.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list event sales")
	}

	totalSales := decimal.Zero
	totalTax := decimal.Zero
	lineProfit := decimal.Zero
	for _, sale := range sales {
		totalSales = totalSales.Add(sale.Total)
		totalTax = totalTax.Add(sale.Tax)
		for _, line := range sale.Lines {
			lineProfit = lineProfit.Add(line.Profit())
		}
	}

	expenses, err := s.expenses.SumExpensesByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum event expenses")
	}

	grossProfit := lineProfit.Sub(totalTax)
	totalExpenses := event.FixedCost.Add(expenses)
	netProfit := grossProfit.Sub(totalExpenses)

	roi := decimal.Zero
	if totalExpenses.Sign() > 0 {
		roi = netProfit.Div(totalExpenses).Mul(decimal.NewFromInt(100)).Round(MoneyPrecision)
	}

	return &Profit{
		EventID:       eventID,
		TotalSales:    totalSales.Round(MoneyPrecision),
		TotalTax:      totalTax.Round(MoneyPrecision),
		GrossProfit:   grossProfit.Round(MoneyPrecision),
		TotalExpenses: totalExpenses.Round(MoneyPrecision),
		NetProfit:     netProfit.Round(MoneyPrecision),
		ROI:           roi,
	}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	return event, nil
}

func (s *service) view(event *models.Event) *EventView {
	return &EventView{Event: *event, Status: Status(event, s.now())}
}
