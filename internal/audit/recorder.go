package audit

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/sycamore/backend/pkg/logger"
)

// Store persists decisions
type Store interface {
	Save(ctx context.Context, d Decision) error
}

// Recorder writes decisions in the background so scoring never waits on the database.
// 버퍼가 가득 차면 기록을 버리고 경고만 남김
type Recorder struct {
	store   Store
	log     *logger.Logger
	queue   chan Decision
	timeout time.Duration

	mu      sync.Mutex
	dropped int
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder with a bounded queue
func NewRecorder(store Store, buffer int, log *logger.Logger) *Recorder {
	if buffer < 1 {
		buffer = 256
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{
		store:   store,
		log:     log.Component("audit"),
		queue:   make(chan Decision, buffer),
		timeout: 5 * time.Second,
	}
}

// Start launches the writer goroutine; it drains the queue after ctx is done
func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case d := <-r.queue:
				r.write(d)
			case <-ctx.Done():
				r.drain()
				return
			}
		}
	}()
}

// Submit queues a decision without blocking
func (r *Recorder) Submit(d Decision) {
	select {
	case r.queue <- d:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		r.log.WithField("decision_id", d.ID.String()).Warn("Audit queue full, decision dropped")
	}
}

// Wait blocks until the writer goroutine has exited
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// Dropped returns how many decisions were discarded
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

func (r *Recorder) drain() {
	for {
		select {
		case d := <-r.queue:
			r.write(d)
		default:
			return
		}
	}
}

func (r *Recorder) write(d Decision) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.store.Save(ctx, d); err != nil {
		r.log.WithError(err).WithField("decision_id", d.ID.String()).Error("Failed to save decision")
	}
}
