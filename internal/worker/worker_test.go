package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"socialnet/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// recordingDeleter remembers every key it was asked to delete.
type recordingDeleter struct {
	mu      sync.Mutex
	deleted []string
	failOn  map[string]error
	block   chan struct{}
}

func (d *recordingDeleter) Delete(ctx context.Context, key string) error {
	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failOn[key]; err != nil {
		return err
	}
	d.deleted = append(d.deleted, key)
	return nil
}

func (d *recordingDeleter) keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := append([]string(nil), d.deleted...)
	sort.Strings(out)
	return out
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestHandler_DeletesUniqueNonEmptyKeys(t *testing.T) {
	deleter := &recordingDeleter{}
	h := worker.NewHandler(deleter, time.Second, zap.NewNop())

	failed := h.Handle(context.Background(), worker.CleanupJob{
		Keys:   []string{"posts/a.jpg", "", "posts/a.jpg", "avatars/b.jpg"},
		Reason: "user_deleted",
	})

	assert.Zero(t, failed)
	assert.Equal(t, []string{"avatars/b.jpg", "posts/a.jpg"}, deleter.keys())
}

func TestHandler_FailuresAreCountedNotFatal(t *testing.T) {
	deleter := &recordingDeleter{failOn: map[string]error{"posts/bad.jpg": errors.New("access denied")}}
	h := worker.NewHandler(deleter, time.Second, zap.NewNop())

	failed := h.Handle(context.Background(), worker.CleanupJob{
		Keys:   []string{"posts/bad.jpg", "posts/good.jpg"},
		Reason: "post_deleted",
	})

	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"posts/good.jpg"}, deleter.keys())
}

func TestHandler_PerKeyTimeout(t *testing.T) {
	deleter := &recordingDeleter{block: make(chan struct{})}
	h := worker.NewHandler(deleter, 20*time.Millisecond, zap.NewNop())

	failed := h.Handle(context.Background(), worker.CleanupJob{Keys: []string{"posts/slow.jpg"}})

	assert.Equal(t, 1, failed)
	assert.Empty(t, deleter.keys())
}

// =============================================================================
// Manager Tests
// =============================================================================

func TestManager_StopDrainsQueuedJobs(t *testing.T) {
	deleter := &recordingDeleter{}
	h := worker.NewHandler(deleter, time.Second, zap.NewNop())
	m := worker.NewManager(h, worker.ManagerConfig{WorkerCount: 2, QueueSize: 16}, zap.NewNop())
	m.Start()

	m.Enqueue(worker.CleanupJob{Keys: []string{"posts/1.jpg", "posts/2.jpg"}, Reason: "user_deleted"})
	m.Enqueue(worker.CleanupJob{Keys: []string{"avatars/3.jpg"}, Reason: "avatar_replaced"})
	m.Enqueue(worker.CleanupJob{Reason: "nothing"})
	m.Stop()

	assert.Equal(t, []string{"avatars/3.jpg", "posts/1.jpg", "posts/2.jpg"}, deleter.keys())
}

func TestManager_FullQueueRunsDetached(t *testing.T) {
	deleter := &recordingDeleter{}
	h := worker.NewHandler(deleter, time.Second, zap.NewNop())
	// Not started: the single buffer slot fills and the rest must not block.
	m := worker.NewManager(h, worker.ManagerConfig{WorkerCount: 1, QueueSize: 1}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i, key := range []string{"posts/1.jpg", "posts/2.jpg", "posts/3.jpg"} {
			m.Enqueue(worker.CleanupJob{Keys: []string{key}, Reason: string(rune('a' + i))})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	m.Start()
	m.Stop()

	require.Len(t, deleter.keys(), 3)
}

func TestManager_EnqueueAfterStop(t *testing.T) {
	deleter := &recordingDeleter{}
	h := worker.NewHandler(deleter, time.Second, zap.NewNop())
	m := worker.NewManager(h, worker.DefaultManagerConfig(), zap.NewNop())
	m.Start()
	m.Stop()

	assert.NotPanics(t, func() {
		m.Enqueue(worker.CleanupJob{Keys: []string{"posts/late.jpg"}})
	})

	// Runs inline, so the key is gone before Enqueue returns.
	assert.Equal(t, []string{"posts/late.jpg"}, deleter.keys())
	m.Stop()
}

func TestManager_EnqueueRacingStop(t *testing.T) {
	deleter := &recordingDeleter{}
	h := worker.NewHandler(deleter, time.Second, zap.NewNop())
	// A one-slot queue forces most jobs onto the detached path while Stop runs.
	m := worker.NewManager(h, worker.ManagerConfig{WorkerCount: 1, QueueSize: 1}, zap.NewNop())
	m.Start()

	const producers, perProducer = 8, 25
	var wg sync.WaitGroup
	start := make(chan struct{})
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			<-start
			for i := 0; i < perProducer; i++ {
				m.Enqueue(worker.CleanupJob{Keys: []string{fmt.Sprintf("posts/%d-%d.jpg", p, i)}, Reason: "race"})
			}
		}(p)
	}

	close(start)
	m.Stop()
	wg.Wait()

	assert.Len(t, deleter.keys(), producers*perProducer)
}
