package events

import (
	"context"
	"errors"

	"billing-service/internal/application"
	"billing-service/internal/domain"

	"go.uber.org/zap"
)

// LogSink records update events in the service log.
type LogSink struct{ Log *zap.Logger }

var _ application.EventSink = LogSink{}

func (s LogSink) UpdateFinished(_ context.Context, ev domain.UpdateFinished) error {
	s.Log.Info("update.finished", zap.String("installed", ev.Installed), zap.String("version", ev.Version))
	return nil
}

// Multi fans an event out to every sink and joins their errors.
type Multi []application.EventSink

func (m Multi) UpdateFinished(ctx context.Context, ev domain.UpdateFinished) error {
	var errs []error
	for _, s := range m {
		if err := s.UpdateFinished(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
