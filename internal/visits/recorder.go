package visits

import (
	"context"
	"sync"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

const (
	DefaultQueueSize = 1024
	DefaultWorkers   = 2
	visitIDLength    = 21
)

// RecorderOptions sizes the recorder's dispatch queue.
type RecorderOptions struct {
	QueueSize int
	Workers   int
}

// Recorder logs visits without making callers wait for the bus or the store.
//
// Visits are queued and published by a fixed set of workers. When the queue is
// full the visit is dropped and logged.
type Recorder struct {
	publish messaging.Publish[Visit]
	newID   func() string
	logger  *zap.Logger
	queue   chan *Visit
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewRecorder creates a recorder and starts its workers.
func NewRecorder(publish messaging.Publish[Visit], logger *zap.Logger, opts RecorderOptions) (*Recorder, error) {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	newID, err := nanoid.Standard(visitIDLength)
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		publish: publish,
		newID:   newID,
		logger:  logger,
		queue:   make(chan *Visit, opts.QueueSize),
	}

	r.wg.Add(opts.Workers)

	for range opts.Workers {
		go r.work()
	}

	return r, nil
}

// RegisterVisit queues a visit of hash and always reports success.
func (r *Recorder) RegisterVisit(ctx context.Context, url string, hash shortener.Hash) bool {
	meta := RequestMetaFromContext(ctx)
	visit := &Visit{
		ID:        r.newID(),
		URL:       url,
		Hash:      hash,
		CreatedAt: time.Now().UTC(),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warn("recorder closed, dropping visit", zap.String("hash", string(hash)))

		return true
	}

	select {
	case r.queue <- visit:
	default:
		r.logger.Warn("visit queue full, dropping visit", zap.String("hash", string(hash)))
	}

	return true
}

// Shutdown stops accepting visits and waits until queued ones are published.
func (r *Recorder) Shutdown() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	r.wg.Wait()

	return nil
}

func (r *Recorder) work() {
	defer r.wg.Done()

	for visit := range r.queue {
		if err := r.publish(visit); err != nil {
			r.logger.Error("failed to publish visit",
				zap.String("hash", string(visit.Hash)),
				zap.String("id", visit.ID),
				zap.Error(err),
			)
		}
	}
}

// NewPersistHandler returns a consumer handler that appends visits to store.
func NewPersistHandler(store Store) messaging.Handler[Visit] {
	return func(ctx context.Context, visit *Visit) error {
		if visit.CreatedAt.IsZero() {
			visit.CreatedAt = time.Now().UTC()
		}

		return store.Append(ctx, visit)
	}
}
