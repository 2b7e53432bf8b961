// Package worker runs the usage archive consumer: usage events read from the
// message queue are written to object storage.
package worker

import (
	"context"
	"errors"

	"github.com/eduwrite/apiserver/internal/mq"
	"github.com/eduwrite/apiserver/types"
	"github.com/sirupsen/logrus"
)

type UsageSubscriber interface {
	SubscribeUsage(ctx context.Context, handler mq.UsageHandler) error
}

type UsageArchiver interface {
	Archive(ctx context.Context, record types.UsageRecord) (string, error)
}

type Worker struct {
	subscriber UsageSubscriber
	archiver   UsageArchiver
	logger     logrus.FieldLogger
}

func New(subscriber UsageSubscriber, archiver UsageArchiver, logger logrus.FieldLogger) *Worker {
	return &Worker{
		subscriber: subscriber,
		archiver:   archiver,
		logger:     logger,
	}
}

// Run consumes until ctx is cancelled. Cancellation is not an error.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("usage archive worker started")
	err := w.subscriber.SubscribeUsage(ctx, w.handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	w.logger.Info("usage archive worker stopped")
	return nil
}

// handle returns the archive error so the broker redelivers the event.
func (w *Worker) handle(ctx context.Context, event mq.UsageEvent) error {
	log := w.logger.WithFields(logrus.Fields{
		"usage_id": event.RecordID,
		"user_id":  event.UserID,
	})
	if event.RecordID == 0 || event.UserID == 0 {
		log.Warn("skipping usage event without ids")
		return nil
	}

	if _, err := w.archiver.Archive(ctx, event.Record()); err != nil {
		log.WithError(err).Error("archive usage record")
		return err
	}
	return nil
}
