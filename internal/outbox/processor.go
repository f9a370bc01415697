package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, message interface{}) error
}

// Processor drains unpublished outbox events in batches and ships them
// to the broker. Batches are claimed with FOR UPDATE SKIP LOCKED so
// multiple replicas never double-publish from the same rows.
type Processor struct {
	pool      *pgxpool.Pool
	repo      Repository
	producer  Producer
	logger    *zap.Logger
	batchSize int
	interval  time.Duration
	tracer    trace.Tracer
}

func NewProcessor(pool *pgxpool.Pool, repo Repository, producer Producer, logger *zap.Logger) *Processor {
	return &Processor{
		pool:      pool,
		repo:      repo,
		producer:  producer,
		logger:    logger,
		batchSize: 50,
		interval:  500 * time.Millisecond,
		tracer:    otel.Tracer("outbox-worker"),
	}
}

func (p *Processor) Start(ctx context.Context) {
	mylogger.Info(ctx, p.logger, "Starting outbox processor")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(ctx, p.logger, "Outbox processor stopping")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				mylogger.Error(ctx, p.logger, "Error processing outbox batch", zap.Error(err))
			}
		}
	}
}

func (p *Processor) processBatch(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "OutboxProcessor.processBatch")
	defer span.End()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Error(cleanupCtx, p.logger, "Outbox worker failed to rollback transaction",
				zap.Error(err),
			)
		}
	}()

	events, err := p.repo.GetUnpublished(ctx, tx, p.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	mylogger.Debug(ctx, p.logger, "Processing outbox events", zap.Int("count", len(events)))

	for _, event := range events {
		err := p.producer.ProduceMessage(ctx, event.Topic, event.Payload)
		if err != nil {
			mylogger.Error(ctx, p.logger, "Outbox worker produce message failed",
				zap.Int64("id", event.Id),
				zap.Error(err),
			)

			if dbErr := p.repo.MarkFailed(ctx, tx, event.Id, err.Error()); dbErr != nil {
				mylogger.Error(ctx, p.logger, "Outbox worker mark event failed",
					zap.Int64("id", event.Id),
					zap.Error(dbErr),
				)
			}
			continue
		}

		if dbErr := p.repo.MarkPublished(ctx, tx, event.Id); dbErr != nil {
			mylogger.Error(ctx, p.logger, "Outbox worker mark event published failed",
				zap.Int64("id", event.Id),
				zap.Error(dbErr),
			)

			return dbErr
		}
	}

	return tx.Commit(ctx)
}
