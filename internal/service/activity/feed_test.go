package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func insert(t *testing.T, store *memory.Store, title string) models.Activity {
	t.Helper()
	a, err := store.InsertActivity(context.Background(), models.ActivityInput{Type: models.ActivityAlert, Title: title})
	require.NoError(t, err)
	return a
}

func TestFeedInitialFetchIsBounded(t *testing.T) {
	store := memory.NewStore()
	defer store.Close(context.Background())
	for i := 0; i < 12; i++ {
		insert(t, store, fmt.Sprintf("alert %d", i))
	}

	feed := NewFeed(store, DefaultSize, nil)
	require.NoError(t, feed.Start(context.Background()))
	defer feed.Close()

	items := feed.Snapshot()
	require.Len(t, items, 10)
	assert.Equal(t, "alert 11", items[0].Title)
	assert.Equal(t, "alert 2", items[9].Title)
	assert.False(t, feed.Loading())
}

func TestFeedPrependsPushedInsertsAndStaysBounded(t *testing.T) {
	store := memory.NewStore()
	defer store.Close(context.Background())

	var mu sync.Mutex
	var heard []string
	feed := NewFeed(store, DefaultSize, nil)
	feed.OnActivity(func(a models.Activity) {
		mu.Lock()
		heard = append(heard, a.Title)
		mu.Unlock()
	})
	require.NoError(t, feed.Start(context.Background()))

	for i := 0; i < 15; i++ {
		insert(t, store, fmt.Sprintf("push %d", i))
	}

	require.Eventually(t, func() bool {
		items := feed.Snapshot()
		return len(items) > 0 && items[0].Title == "push 14"
	}, time.Second, 5*time.Millisecond)

	items := feed.Snapshot()
	assert.Len(t, items, 10)
	assert.Equal(t, "push 5", items[9].Title)

	require.NoError(t, feed.Close())
	mu.Lock()
	assert.Len(t, heard, 15)
	mu.Unlock()
}

func TestFeedFetchFailureStillSubscribes(t *testing.T) {
	store := memory.NewStore()
	defer store.Close(context.Background())

	failing := &flakyRecent{Store: store}
	feed := NewFeed(failing, 3, nil)
	require.NoError(t, feed.Start(context.Background()))
	defer feed.Close()

	assert.Empty(t, feed.Snapshot())

	insert(t, store, "late")
	require.Eventually(t, func() bool { return len(feed.Snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestFeedSubscribeFailure(t *testing.T) {
	store := memory.NewStore()
	defer store.Close(context.Background())
	store.FailWith(errors.New("offline"))

	feed := NewFeed(store, DefaultSize, nil)
	err := feed.Start(context.Background())
	require.Error(t, err)
	assert.False(t, feed.Loading())
	assert.NoError(t, feed.Close())
}

func TestFeedStopsWhenContextCancelled(t *testing.T) {
	store := memory.NewStore()
	defer store.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	feed := NewFeed(store, DefaultSize, nil)
	require.NoError(t, feed.Start(ctx))

	cancel()
	require.NoError(t, feed.Close())
}

func TestFeedSkipsDuplicates(t *testing.T) {
	feed := NewFeed(nil, 2, nil)
	assert.True(t, feed.push(models.Activity{ID: "a"}))
	assert.False(t, feed.push(models.Activity{ID: "a"}))
	assert.True(t, feed.push(models.Activity{ID: "b"}))
	assert.True(t, feed.push(models.Activity{ID: "c"}))

	items := feed.Snapshot()
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
}

// flakyRecent fails the bounded fetch but keeps the push feed working.
type flakyRecent struct {
	*memory.Store
}

func (f *flakyRecent) RecentActivities(context.Context, int) ([]models.Activity, error) {
	return nil, errors.New("query timeout")
}
