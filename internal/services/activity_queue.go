package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/taskhive/backend/internal/config"
	"github.com/taskhive/backend/pkg/logger"
)

const TaskTypeActivity = "activity:record"

// ActivityEntry is the payload of a queued activity append.
type ActivityEntry struct {
	ProjectID uint   `json:"project_id"`
	TaskID    *uint  `json:"task_id,omitempty"`
	UserID    uint   `json:"user_id"`
	Action    string `json:"action"`
}

// ActivityQueue decouples activity appends from the mutating request.
// Enqueue must never block the caller on persistence.
type ActivityQueue interface {
	// Enqueue submits an entry for background persistence
	Enqueue(entry *ActivityEntry) error
	// IsAsync returns true if the queue hands entries to an external worker
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global queue instance
var (
	globalActivityQueue ActivityQueue
	activityQueueOnce   sync.Once
)

// InitActivityQueue initializes the global activity queue based on config.
// With Redis enabled entries go through asynq; otherwise an in-process
// channel consumed by a single background goroutine is used.
func InitActivityQueue(cfg *config.Config) ActivityQueue {
	activityQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncActivityQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[ActivityQueue] Redis unavailable, falling back to in-process queue: %v", err)
				globalActivityQueue = NewSyncActivityQueue()
			} else {
				logger.Infof("[ActivityQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalActivityQueue = queue
			}
		} else {
			logger.Infof("[ActivityQueue] In-process queue initialized (Redis disabled)")
			globalActivityQueue = NewSyncActivityQueue()
		}
	})
	return globalActivityQueue
}

// GetActivityQueue returns the global activity queue instance.
func GetActivityQueue() ActivityQueue {
	return globalActivityQueue
}

// AsyncActivityQueue implements ActivityQueue using asynq (Redis-based).
type AsyncActivityQueue struct {
	client *asynq.Client
}

// NewAsyncActivityQueue creates a Redis-backed queue, verifying the
// connection up front so a dead Redis falls back at startup, not per entry.
func NewAsyncActivityQueue(cfg *config.RedisConfig) (*AsyncActivityQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncActivityQueue{client: client}, nil
}

func (q *AsyncActivityQueue) Enqueue(entry *ActivityEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeActivity, payload)
	_, err = q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	return err
}

func (q *AsyncActivityQueue) IsAsync() bool {
	return true
}

func (q *AsyncActivityQueue) Close() error {
	return q.client.Close()
}

// SyncActivityQueue is the in-process fallback: a buffered channel drained
// by one goroutine, so callers never wait on the database write.
type SyncActivityQueue struct {
	entries   chan *ActivityEntry
	processor func(context.Context, *ActivityEntry) error
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
}

func NewSyncActivityQueue() *SyncActivityQueue {
	q := &SyncActivityQueue{
		entries: make(chan *ActivityEntry, 256),
		done:    make(chan struct{}),
	}
	go q.drain()
	return q
}

// SetProcessor sets the function that persists entries.
func (q *SyncActivityQueue) SetProcessor(processor func(context.Context, *ActivityEntry) error) {
	q.mu.Lock()
	q.processor = processor
	q.mu.Unlock()
}

func (q *SyncActivityQueue) drain() {
	for {
		select {
		case entry := <-q.entries:
			q.mu.RLock()
			processor := q.processor
			q.mu.RUnlock()
			if processor == nil {
				logger.Warnf("[ActivityQueue] Entry dropped: no processor set")
				continue
			}
			if err := processor(context.Background(), entry); err != nil {
				logger.Errorf("[ActivityQueue] Failed to persist activity for project %d: %v", entry.ProjectID, err)
			}
		case <-q.done:
			return
		}
	}
}

func (q *SyncActivityQueue) Enqueue(entry *ActivityEntry) error {
	select {
	case q.entries <- entry:
		return nil
	default:
		// Queue full: drop rather than block the mutating request.
		logger.Warnf("[ActivityQueue] Queue full, dropping activity for project %d", entry.ProjectID)
		return nil
	}
}

func (q *SyncActivityQueue) IsAsync() bool {
	return false
}

func (q *SyncActivityQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}
