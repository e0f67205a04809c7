package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultQueueSize is how many jobs may wait before Enqueue detaches
	DefaultQueueSize = 256

	// DefaultKeyTimeout bounds a single object deletion
	DefaultKeyTimeout = 10 * time.Second
)

// CleanupJob is a batch of storage keys left behind by a database delete.
type CleanupJob struct {
	Keys   []string
	Reason string
}

// Manager runs worker goroutines that drain cleanup jobs from a buffered channel.
type Manager struct {
	handler     *Handler
	workerCount int
	jobs        chan CleanupJob
	log         *zap.Logger

	mu      sync.RWMutex
	stopped bool

	wg       sync.WaitGroup
	detached sync.WaitGroup
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount int
	QueueSize   int
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount: DefaultWorkerCount,
		QueueSize:   DefaultQueueSize,
	}
}

func NewManager(handler *Handler, cfg ManagerConfig, log *zap.Logger) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	return &Manager{
		handler:     handler,
		workerCount: cfg.WorkerCount,
		jobs:        make(chan CleanupJob, cfg.QueueSize),
		log:         log,
	}
}

// Start spins up the worker goroutines. Call Stop to drain and shut down.
func (m *Manager) Start() {
	m.log.Info("starting cleanup workers",
		zap.Int("workers", m.workerCount),
		zap.Int("queue_size", cap(m.jobs)))

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i + 1)
	}
}

// Enqueue hands a job to the pool without blocking the caller.
// When the queue is full the job runs on its own goroutine. Once the pool is stopped
// the job runs inline on the caller's goroutine.
func (m *Manager) Enqueue(job CleanupJob) {
	if len(job.Keys) == 0 {
		return
	}

	m.mu.RLock()
	if m.stopped {
		m.mu.RUnlock()
		m.log.Warn("cleanup pool stopped, running job inline",
			zap.String("reason", job.Reason),
			zap.Int("keys", len(job.Keys)))
		m.handler.Handle(context.Background(), job)
		return
	}
	defer m.mu.RUnlock()

	select {
	case m.jobs <- job:
		return
	default:
		m.log.Warn("cleanup queue full, running job detached",
			zap.String("reason", job.Reason),
			zap.Int("keys", len(job.Keys)))
	}

	// stopped is false under the read lock, so this Add happens before Stop's Wait.
	m.detached.Add(1)
	go func() {
		defer m.detached.Done()
		m.handler.Handle(context.Background(), job)
	}()
}

// Stop closes the queue, lets workers finish what is buffered, and waits for detached jobs.
func (m *Manager) Stop() {
	m.mu.Lock()
	alreadyStopped := m.stopped
	if !alreadyStopped {
		m.stopped = true
		close(m.jobs)
	}
	m.mu.Unlock()

	if !alreadyStopped {
		m.log.Info("stopping cleanup workers")
	}
	m.wg.Wait()
	m.detached.Wait()
	if !alreadyStopped {
		m.log.Info("all cleanup workers stopped")
	}
}

func (m *Manager) runWorker(workerID int) {
	defer m.wg.Done()

	log := m.log.With(zap.Int("worker", workerID))
	log.Debug("cleanup worker started")

	for job := range m.jobs {
		m.handler.Handle(context.Background(), job)
	}

	log.Debug("cleanup worker shutting down")
}
