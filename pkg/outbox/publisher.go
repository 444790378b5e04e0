package outbox

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/vendibase/vendibase-backend/pkg/config"
	"github.com/vendibase/vendibase-backend/pkg/logger"
	"github.com/vendibase/vendibase-backend/pkg/redis"
)

// Publisher drains unpublished outbox rows and forwards them over the redis
// pub/sub channel. Rows that keep failing stay in the table with their
// attempt count and last error for inspection.
type Publisher struct {
	repo    *Repository
	redis   *redis.Client
	logg    *logger.Logger
	channel string
	batch   int
	poll    time.Duration
	maxTry  int
}

func NewPublisher(repo *Repository, redisClient *redis.Client, logg *logger.Logger, cfg config.OutboxConfig) (*Publisher, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if redisClient == nil {
		return nil, fmt.Errorf("redis client required")
	}
	poll := time.Duration(cfg.PollIntervalMS) * time.Millisecond
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 50
	}
	return &Publisher{
		repo:    repo,
		redis:   redisClient,
		logg:    logg,
		channel: cfg.Channel,
		batch:   batch,
		poll:    poll,
		maxTry:  cfg.MaxAttempts,
	}, nil
}

// Run polls until the context is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.DrainOnce(ctx); err != nil && p.logg != nil {
				p.logg.Error(ctx, "outbox drain failed", err)
			}
		}
	}
}

// DrainOnce publishes a single batch of unpublished events.
func (p *Publisher) DrainOnce(ctx context.Context) error {
	rows, err := p.repo.FetchUnpublished(p.batch)
	if err != nil {
		return fmt.Errorf("fetch unpublished: %w", err)
	}

	var errs []error
	for _, row := range rows {
		if p.maxTry > 0 && row.AttemptCount >= p.maxTry {
			continue
		}
		if err := p.redis.Publish(ctx, p.channel, []byte(row.Payload)); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", row.ID, err))
			if markErr := p.repo.MarkFailed(row.ID, err); markErr != nil {
				errs = append(errs, markErr)
			}
			continue
		}
		if err := p.repo.MarkPublished(row.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}
