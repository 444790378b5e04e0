package transactions

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

// CreateInput carries a new income or expense record.
type CreateInput struct {
	Kind       enums.TransactionKind
	Amount     decimal.Decimal
	Category   string
	Note       string
	EventID    *uuid.UUID
	OccurredAt time.Time
}

// Service manages standalone finance records.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, kind *enums.TransactionKind, params pagination.Params) ([]models.Transaction, string, error)
}

type service struct {
	repo *Repository
}

// NewService builds the transaction service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Transaction, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction kind %q", input.Kind))
	}
	if input.Amount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	txn := &models.Transaction{
		ID:         uuid.New(),
		Kind:       input.Kind,
		Amount:     input.Amount.Round(2),
		Category:   strings.TrimSpace(input.Category),
		Note:       strings.TrimSpace(input.Note),
		EventID:    input.EventID,
		OccurredAt: occurredAt,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}
	return txn, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, kind *enums.TransactionKind, params pagination.Params) ([]models.Transaction, string, error) {
	rows, next, err := s.repo.List(ctx, kind, params)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, "", err
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return rows, next, nil
}
