package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
)

const activityChannel = "activity_inserts"

// SubscribeActivityInserts listens on the activity_inserts channel and loads each
// notified row. Reconnection is left to pq.Listener; rows inserted while it is
// disconnected are not replayed.
func (s *Store) SubscribeActivityInserts(ctx context.Context) (repository.Subscription, error) {
	logger := s.logger
	listener := pq.NewListener(s.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			logger.Warn("activity listener disconnected", zap.Error(err))
		case pq.ListenerEventReconnected:
			logger.Info("activity listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("activity listener connection attempt failed", zap.Error(err))
		}
	})
	if err := listener.Listen(activityChannel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", activityChannel, err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	sub := &listenerSubscription{
		events:   make(chan models.Activity),
		listener: listener,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go sub.pump(listenCtx, s)
	return sub, nil
}

type listenerSubscription struct {
	events   chan models.Activity
	listener *pq.Listener
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

func (l *listenerSubscription) Events() <-chan models.Activity { return l.events }

func (l *listenerSubscription) Close() error {
	l.once.Do(l.cancel)
	<-l.done
	return nil
}

func (l *listenerSubscription) pump(ctx context.Context, s *Store) {
	defer close(l.done)
	defer close(l.events)
	defer func() { _ = l.listener.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-l.listener.Notify:
			if !ok {
				return
			}
			// nil after a reconnect
			if n == nil {
				continue
			}
			a, err := s.findActivity(ctx, n.Extra)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Warn("failed to load notified activity", zap.String("id", n.Extra), zap.Error(err))
				}
				continue
			}
			select {
			case l.events <- a:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Store) findActivity(ctx context.Context, id string) (models.Activity, error) {
	a, err := scanActivity(s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` `+activityFrom+` WHERE a.id = $1`, id))
	if err != nil {
		return models.Activity{}, fmt.Errorf("activity %s: %w", id, err)
	}
	return a, nil
}
