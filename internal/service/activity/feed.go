package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
)

// DefaultSize is the number of entries the feed keeps.
const DefaultSize = 10

var errAlreadyStarted = errors.New("activity feed already started")

// Feed holds the most recent activities, newest first, and follows the store's
// insert notifications. A dropped subscription is not retried.
type Feed struct {
	store  repository.ActivityStore
	size   int
	logger *zap.Logger

	mu        sync.RWMutex
	items     []models.Activity
	loading   bool
	listeners []func(models.Activity)

	sub  repository.Subscription
	done chan struct{}
}

// NewFeed builds a feed of at most size entries.
func NewFeed(store repository.ActivityStore, size int, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Feed{store: store, size: size, logger: logger.Named("svc.activity")}
}

// OnActivity registers fn to receive every pushed activity after it was added.
// Register listeners before Start.
func (f *Feed) OnActivity(fn func(models.Activity)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Start subscribes to inserts, performs the initial bounded fetch and begins
// applying pushed rows. A failed fetch is logged and leaves the feed empty.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.done != nil {
		f.mu.Unlock()
		return errAlreadyStarted
	}
	f.loading = true
	f.mu.Unlock()

	sub, err := f.store.SubscribeActivityInserts(ctx)
	if err != nil {
		f.setLoading(false)
		return fmt.Errorf("subscribe to activity inserts: %w", err)
	}

	rows, err := f.store.RecentActivities(ctx, f.size)
	if err != nil {
		f.logger.Error("failed to fetch activities", zap.Error(err))
	}

	f.mu.Lock()
	if err == nil {
		f.items = rows
	}
	f.loading = false
	f.sub = sub
	f.done = make(chan struct{})
	f.mu.Unlock()

	go f.pump(sub, f.done)
	return nil
}

// Close ends the subscription and waits for the pump to exit.
func (f *Feed) Close() error {
	f.mu.RLock()
	sub, done := f.sub, f.done
	f.mu.RUnlock()
	if sub == nil {
		return nil
	}

	err := sub.Close()
	<-done
	return err
}

// Snapshot returns a copy of the feed, newest first.
func (f *Feed) Snapshot() []models.Activity {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]models.Activity(nil), f.items...)
}

// Loading reports whether the initial fetch is in flight.
func (f *Feed) Loading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loading
}

func (f *Feed) setLoading(v bool) {
	f.mu.Lock()
	f.loading = v
	f.mu.Unlock()
}

func (f *Feed) pump(sub repository.Subscription, done chan struct{}) {
	defer close(done)
	for a := range sub.Events() {
		if !f.push(a) {
			continue
		}
		f.mu.RLock()
		listeners := f.listeners
		f.mu.RUnlock()
		for _, fn := range listeners {
			fn(a)
		}
	}
	f.logger.Debug("activity subscription ended")
}

// push prepends a and truncates to the feed size. Rows already present, which
// happens when an insert lands between subscribing and fetching, are skipped.
func (f *Feed) push(a models.Activity) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.items {
		if existing.ID == a.ID {
			return false
		}
	}

	items := make([]models.Activity, 0, f.size)
	items = append(items, a)
	items = append(items, f.items...)
	if len(items) > f.size {
		items = items[:f.size]
	}
	f.items = items
	return true
}
