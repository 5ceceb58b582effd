package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"workspace-platform/pkg/metrics"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Repository is the persistence contract for audit events.
// It is append-only: there is no Update or Delete.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

var (
	ErrInvalidEvent     = errors.New("audit: invalid event")
	ErrNotConfigured    = errors.New("audit: repository not configured")
	ErrQueueFull        = errors.New("audit: queue full")
	defaultWriteTimeout = 2 * time.Second
)

// Recorder writes audit events after the mutation they describe has
// committed. Record never fails the caller: a lost audit row is logged and
// counted, the business operation still succeeds.
//
// Writes go through a circuit breaker so a sick audit table costs callers a
// fast rejection instead of a full timeout on every request. With WithQueue,
// Record only enqueues and a background writer does the I/O; Close drains it.
type Recorder struct {
	repo    Repository
	clock   func() time.Time
	log     *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[struct{}]

	queueSize int
	queue     chan Event
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
}

type Option func(*Recorder)

func WithLogger(l *slog.Logger) Option { return func(r *Recorder) { r.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(r *Recorder) { r.metrics = m } }

func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithQueue makes Record asynchronous with room for size pending events.
// Events arriving while the queue is full are dropped and counted.
func WithQueue(size int) Option { return func(r *Recorder) { r.queueSize = size } }

func WithClock(clock func() time.Time) Option { return func(r *Recorder) { r.clock = clock } }

func NewRecorder(repo Repository, opts ...Option) *Recorder {
	r := &Recorder{
		repo:    repo,
		clock:   time.Now,
		log:     slog.Default(),
		timeout: defaultWriteTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	r.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "audit",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.log.Warn("audit circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})
	if r.queueSize > 0 {
		r.queue = make(chan Event, r.queueSize)
		r.done = make(chan struct{})
		go r.drain()
	}
	return r
}

func (r *Recorder) drain() {
	defer close(r.done)
	for e := range r.queue {
		r.write(context.Background(), e)
	}
}

// Close stops accepting queued events and waits for pending ones to be
// written. Later Record calls write synchronously.
func (r *Recorder) Close(ctx context.Context) error {
	if r == nil || r.queue == nil {
		return nil
	}
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Append validates, stamps and persists e, returning any failure.
func (r *Recorder) Append(ctx context.Context, e Event) error {
	if r.repo == nil {
		return ErrNotConfigured
	}
	if e.Action == "" || e.EntityType == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.clock().UTC()
	}

	// The caller's request may be finishing; the write gets its own budget.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	_, err := r.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, r.repo.Append(ctx, e)
	})
	return err
}

// Record is Append for callers that must not fail on audit errors. The
// client IP is taken from ctx when the event does not carry one.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if r == nil {
		return
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}
	// Stamped now so queued events keep the time of the change.
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.clock().UTC()
	}
	if r.queue != nil && r.enqueue(e) {
		return
	}
	r.write(ctx, e)
}

// enqueue reports false once the queue is closed.
func (r *Recorder) enqueue(e Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.queue <- e:
	default:
		r.failed(e, ErrQueueFull)
	}
	return true
}

func (r *Recorder) write(ctx context.Context, e Event) {
	if err := r.Append(ctx, e); err != nil {
		r.failed(e, err)
	}
}

func (r *Recorder) failed(e Event, err error) {
	r.log.Warn("audit write failed",
		"action", string(e.Action),
		"entity_type", string(e.EntityType),
		"entity_id", e.EntityID,
		"tenant_id", e.TenantID,
		"err", err,
	)
	r.metrics.AuditFailed(string(e.Action))
}
