package records

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/notify"
	"github.com/mamadbah2/logidash/pkg/events"
)

const defaultPublishTimeout = 5 * time.Second

// Repository is the store surface a Collection mirrors.
type Repository[T Keyed, C any, P any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, input C) (T, error)
	Update(ctx context.Context, id string, patch P) (T, error)
	Delete(ctx context.Context, id string) error
}

// Options carries the collaborators shared by every collection.
type Options struct {
	Notifier        notify.Notifier
	Publisher       events.Publisher
	Logger          *zap.Logger
	StrictLifecycle bool
	PublishTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Notifier == nil {
		o.Notifier = notify.Discard
	}
	if o.Publisher == nil {
		o.Publisher = events.Nop{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = defaultPublishTimeout
	}
	return o
}

// messages are the fixed operator-facing texts of one record type.
type messages struct {
	entity       string
	listFailed   string
	created      string
	createFailed string
	updated      string
	updateFailed string
	deleted      string
	deleteFailed string
}

func messagesFor(singular, title, plural string) messages {
	return messages{
		entity:       singular,
		listFailed:   "Failed to fetch " + plural,
		created:      title + " created successfully",
		createFailed: "Failed to create " + singular,
		updated:      title + " updated successfully",
		updateFailed: "Failed to update " + singular,
		deleted:      title + " deleted successfully",
		deleteFailed: "Failed to delete " + singular,
	}
}

// Collection mirrors one record type: every successful mutation is reflected
// in the cache, every failure leaves it untouched.
type Collection[T Keyed, C any, P any] struct {
	repo      Repository[T, C, P]
	cache     *Mirror[T]
	msgs      messages
	notifier  notify.Notifier
	publisher events.Publisher
	logger    *zap.Logger
	timeout   time.Duration

	onCreate func(ctx context.Context, row T)
	onDelete func(id string)
	merge    func(prev, next T) T
	guard    func(current T, patch P) error

	// find loads a row the guard needs but the cache does not hold.
	find func(ctx context.Context, id string) (T, error)
}

func newCollection[T Keyed, C any, P any](repo Repository[T, C, P], msgs messages, opts Options) *Collection[T, C, P] {
	opts = opts.withDefaults()
	return &Collection[T, C, P]{
		repo:      repo,
		cache:     &Mirror[T]{},
		msgs:      msgs,
		notifier:  opts.Notifier,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		timeout:   opts.PublishTimeout,
	}
}

// List reloads the cache from the store. On failure the previous cache is kept.
func (c *Collection[T, C, P]) List(ctx context.Context) error {
	c.cache.beginLoad()
	defer c.cache.endLoad()

	rows, err := c.repo.List(ctx)
	if err != nil {
		return c.fail(ctx, "list", c.msgs.listFailed, err)
	}
	c.cache.Reset(rows)
	c.logger.Debug("cache refreshed", zap.Int("rows", len(rows)))
	return nil
}

// Create inserts a record and prepends the stored row to the cache.
func (c *Collection[T, C, P]) Create(ctx context.Context, input C) (T, error) {
	row, err := c.repo.Create(ctx, input)
	if err != nil {
		var zero T
		return zero, c.fail(ctx, "create", c.msgs.createFailed, err)
	}

	c.cache.Prepend(row)
	if c.onCreate != nil {
		c.onCreate(ctx, row)
	}
	c.notifier.Notify(notify.Success(c.msgs.created))
	c.publish(ctx, "created", row.Key(), row)
	return row, nil
}

// Update applies patch to the record and replaces its cached row.
func (c *Collection[T, C, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	var zero T
	if c.guard != nil {
		current, err := c.current(ctx, id)
		if err != nil {
			return zero, c.fail(ctx, "update", c.msgs.updateFailed, err)
		}
		if err := c.guard(current, patch); err != nil {
			c.notifier.Notify(notify.Error(c.msgs.updateFailed))
			c.logger.Warn("update rejected", zap.String("id", id), zap.Error(err))
			return zero, err
		}
	}

	row, err := c.repo.Update(ctx, id, patch)
	if err != nil {
		return zero, c.fail(ctx, "update", c.msgs.updateFailed, err)
	}

	if !c.cache.Replace(row, c.merge) {
		c.logger.Debug("updated row not cached", zap.String("id", id))
	}
	c.notifier.Notify(notify.Success(c.msgs.updated))
	c.publish(ctx, "updated", id, row)
	return row, nil
}

// Delete removes the record and its cached row.
func (c *Collection[T, C, P]) Delete(ctx context.Context, id string) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return c.fail(ctx, "delete", c.msgs.deleteFailed, err)
	}

	c.cache.Remove(id)
	if c.onDelete != nil {
		c.onDelete(id)
	}
	c.notifier.Notify(notify.Success(c.msgs.deleted))
	c.publish(ctx, "deleted", id, nil)
	return nil
}

// Snapshot returns a copy of the cached rows.
func (c *Collection[T, C, P]) Snapshot() []T { return c.cache.Snapshot() }

// Get returns the cached row with the given identity.
func (c *Collection[T, C, P]) Get(id string) (T, bool) { return c.cache.Get(id) }

// Loading reports whether a list request is in flight.
func (c *Collection[T, C, P]) Loading() bool { return c.cache.Loading() }

// current returns the cached row, reading through to the store on a miss.
func (c *Collection[T, C, P]) current(ctx context.Context, id string) (T, error) {
	if row, ok := c.cache.Get(id); ok {
		return row, nil
	}
	return c.find(ctx, id)
}

func (c *Collection[T, C, P]) fail(ctx context.Context, op, message string, cause error) error {
	c.notifier.Notify(notify.Error(message))
	if ctx.Err() == nil {
		c.logger.Error("store operation failed", zap.String("op", op), zap.Error(cause))
	}
	return &StoreError{Op: op, Entity: c.msgs.entity, Err: cause}
}

func (c *Collection[T, C, P]) publish(ctx context.Context, action, id string, data any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	if err := c.publisher.Publish(ctx, events.New(c.msgs.entity, action, id, data)); err != nil {
		c.logger.Warn("failed to publish change event", zap.String("action", action), zap.String("id", id), zap.Error(err))
	}
}
