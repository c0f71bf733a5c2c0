package confirm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Shivanshu999/casePlus/internal/models"
	"go.uber.org/zap"
)

// reference protocol parameters
const (
	DefaultInterval    = 3 * time.Second
	DefaultMaxAttempts = 5
	DefaultTimeout     = 2 * time.Minute
)

var ErrInvalidOrder = errors.New("no order id provided")

// State is observable state of the confirmation protocol
type State int

const (
	StateInit State = iota
	StateLoading
	StatePending
	StateConfirmed
	StateError
	StateTimedOutPending
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateLoading:
		return "loading"
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateError:
		return "error"
	case StateTimedOutPending:
		return "timed_out_pending"
	default:
		return "unknown"
	}
}

// StatusSource answers a single status query. Nil detail with nil error
// means the order exists but payment is not yet confirmed.
type StatusSource interface {
	GetPaymentStatus(ctx context.Context, orderID string) (*models.OrderDetail, error)
}

// Options configures the watcher. Zero values take the defaults above.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Snapshot is point-in-time view of the watcher
type Snapshot struct {
	State    State
	Attempts int
	Detail   *models.OrderDetail
	Err      error
}

// Watcher polls payment status of a single order until it is confirmed,
// fails, or the verification timeout elapses. Automatic polling halts on
// StateError and StateTimedOutPending; CheckAgain resumes it.
type Watcher struct {
	source  StatusSource
	orderID string
	opts    Options

	mu       sync.Mutex
	state    State
	attempts int
	origin   time.Time
	detail   *models.OrderDetail
	err      error
	gen      int

	resume  chan struct{}
	updates chan struct{}
}

// New creates new Watcher instance. An empty order id yields a watcher
// already in terminal StateError; Run performs no polling for it.
func New(source StatusSource, orderID string, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	w := &Watcher{
		source:  source,
		orderID: orderID,
		opts:    opts,
		state:   StateInit,
		resume:  make(chan struct{}, 1),
		updates: make(chan struct{}, 1),
	}

	if orderID == "" {
		w.state = StateError
		w.err = ErrInvalidOrder
	}

	return w
}

// Run drives the polling loop until the payment is confirmed or ctx is
// cancelled. It returns nil on confirmation.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.state == StateError && errors.Is(w.err, ErrInvalidOrder) {
		w.mu.Unlock()
		return ErrInvalidOrder
	}
	w.origin = time.Now()
	w.setStateLocked(StateLoading)
	w.mu.Unlock()

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		if w.poll(ctx) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-w.resume:
		}
	}
}

// poll performs one status query. It returns true once the watcher is
// confirmed. Queries are skipped while automatic polling is halted.
func (w *Watcher) poll(ctx context.Context) bool {
	w.mu.Lock()
	switch w.state {
	case StateConfirmed:
		w.mu.Unlock()
		return true
	case StateError, StateTimedOutPending:
		// halted, waiting for CheckAgain
		w.mu.Unlock()
		return false
	}
	if w.state == StatePending && time.Since(w.origin) >= w.opts.Timeout {
		w.setStateLocked(StateTimedOutPending)
		w.mu.Unlock()
		return false
	}
	gen := w.gen
	w.mu.Unlock()

	detail, err := w.source.GetPaymentStatus(ctx, w.orderID)

	w.mu.Lock()
	defer w.mu.Unlock()

	// a reset happened while the query was in flight; its result is stale
	if gen != w.gen {
		return false
	}

	switch {
	case err != nil:
		if ctx.Err() != nil {
			return false
		}
		w.attempts++
		w.err = err
		w.opts.Logger.Warn("status query failed",
			zap.String("order_id", w.orderID),
			zap.Int("attempts", w.attempts),
			zap.Error(err))
		if w.attempts >= w.opts.MaxAttempts {
			w.setStateLocked(StateError)
		} else {
			w.setStateLocked(StatePending)
		}
		return false

	case detail != nil:
		w.detail = detail
		w.err = nil
		w.setStateLocked(StateConfirmed)
		return true

	default:
		w.err = nil
		if time.Since(w.origin) >= w.opts.Timeout {
			w.setStateLocked(StateTimedOutPending)
		} else {
			w.setStateLocked(StatePending)
		}
		return false
	}
}

// CheckAgain resets the attempt count and timeout origin and resumes
// polling. It has effect only while automatic polling is halted.
func (w *Watcher) CheckAgain() {
	w.mu.Lock()
	if w.state != StateError && w.state != StateTimedOutPending {
		w.mu.Unlock()
		return
	}
	if errors.Is(w.err, ErrInvalidOrder) {
		w.mu.Unlock()
		return
	}
	w.gen++
	w.attempts = 0
	w.origin = time.Now()
	w.err = nil
	w.setStateLocked(StateLoading)
	w.mu.Unlock()

	select {
	case w.resume <- struct{}{}:
	default:
	}
}

// Snapshot returns current state of the watcher
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		State:    w.state,
		Attempts: w.attempts,
		Detail:   w.detail,
		Err:      w.err,
	}
}

// Updates returns a channel that receives a signal after each state change
func (w *Watcher) Updates() <-chan struct{} {
	return w.updates
}

func (w *Watcher) setStateLocked(s State) {
	if w.state == s {
		return
	}
	w.state = s
	w.opts.Logger.Debug("state changed",
		zap.String("order_id", w.orderID),
		zap.String("state", s.String()))

	select {
	case w.updates <- struct{}{}:
	default:
	}
}
