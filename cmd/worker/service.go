package main

import (
	"context"
	"errors"
	"time"

	"github.com/vendibase/vendibase-backend/pkg/config"
	"github.com/vendibase/vendibase-backend/pkg/logger"
	"github.com/vendibase/vendibase-backend/pkg/metrics"
)

const retentionSweepInterval = time.Hour

type outboxPublisher interface {
	Run(ctx context.Context) error
}

type outboxRetention interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ServiceParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Outbox    outboxRetention
	Publisher outboxPublisher
	Jobs      *metrics.JobMetrics
}

// Service runs the background side of the platform: the outbox drain loop
// and the periodic sweep that deletes published rows past retention.
type Service struct {
	cfg       *config.Config
	logg      *logger.Logger
	outbox    outboxRetention
	publisher outboxPublisher
	jobs      *metrics.JobMetrics
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("outbox publisher is required")
	}
	return &Service{
		cfg:       params.Config,
		logg:      params.Logger,
		outbox:    params.Outbox,
		publisher: params.Publisher,
		jobs:      params.Jobs,
		now:       time.Now,
	}, nil
}

// Run blocks until the context is canceled. The publisher loop and the
// retention sweep share the context; the first terminal error wins.
func (s *Service) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.publisher.Run(ctx)
	}()

	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return <-errCh
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.sweepRetention(ctx)
		}
	}
}

func (s *Service) sweepRetention(ctx context.Context) {
	start := s.now()
	cutoff := start.Add(-s.cfg.Outbox.Retention)

	deleted, err := s.outbox.DeletePublishedBefore(ctx, cutoff)
	s.jobs.ObserveDuration("outbox_retention", s.now().Sub(start))
	if err != nil {
		s.jobs.IncFailure("outbox_retention")
		s.logg.Error(ctx, "outbox retention sweep failed", err)
		return
	}
	s.jobs.IncSuccess("outbox_retention")
	if deleted > 0 {
		sweepCtx := s.logg.WithFields(ctx, map[string]any{"deleted": deleted})
		s.logg.Info(sweepCtx, "outbox retention sweep complete")
	}
}
