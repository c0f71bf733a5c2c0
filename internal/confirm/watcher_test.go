package confirm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shivanshu999/casePlus/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceFunc func(ctx context.Context, orderID string) (*models.OrderDetail, error)

func (f sourceFunc) GetPaymentStatus(ctx context.Context, orderID string) (*models.OrderDetail, error) {
	return f(ctx, orderID)
}

func waitForState(t *testing.T, w *Watcher, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if w.Snapshot().State == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("state %v not reached, stuck at %v", want, w.Snapshot().State)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestWatcher_EmptyOrderID(t *testing.T) {
	calls := int32(0)
	source := sourceFunc(func(context.Context, string) (*models.OrderDetail, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})

	w := New(source, "", Options{})

	snap := w.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.ErrorIs(t, snap.Err, ErrInvalidOrder)

	err := w.Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidOrder)
	assert.Zero(t, atomic.LoadInt32(&calls))

	// check-again has no effect on an invalid order
	w.CheckAgain()
	assert.Equal(t, StateError, w.Snapshot().State)
}

func TestWatcher_ConfirmsImmediately(t *testing.T) {
	detail := &models.OrderDetail{OrderID: uuid.New(), Amount: 2900}
	source := sourceFunc(func(context.Context, string) (*models.OrderDetail, error) {
		return detail, nil
	})

	w := New(source, detail.OrderID.String(), Options{Interval: 5 * time.Millisecond})

	require.NoError(t, w.Run(context.Background()))

	snap := w.Snapshot()
	assert.Equal(t, StateConfirmed, snap.State)
	assert.Equal(t, detail, snap.Detail)
	assert.NoError(t, snap.Err)
}

func TestWatcher_PendingThenConfirmed(t *testing.T) {
	detail := &models.OrderDetail{OrderID: uuid.New(), Amount: 2900}
	calls := int32(0)
	source := sourceFunc(func(context.Context, string) (*models.OrderDetail, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, nil
		}
		return detail, nil
	})

	w := New(source, detail.OrderID.String(), Options{Interval: 5 * time.Millisecond})

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, StateConfirmed, w.Snapshot().State)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWatcher_TimesOutWhilePending(t *testing.T) {
	source := sourceFunc(func(context.Context, string) (*models.OrderDetail, error) {
		return nil, nil
	})

	w := New(source, uuid.NewString(), Options{
		Interval: 5 * time.Millisecond,
		Timeout:  30 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitForState(t, w, StateTimedOutPending)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcher_CheckAgainResumesAfterTimeout(t *testing.T) {
	confirmed := int32(0)
	detail := &models.OrderDetail{OrderID: uuid.New(), Amount: 2900}
	source := sourceFunc(func(context.Context, string) (*models.OrderDetail, error) {
		if atomic.LoadInt32(&confirmed) == 1 {
			return detail, nil
		}
		return nil, nil
	})

	w := New(source, detail.OrderID.String(), Options{
		Interval: 5 * time.Millisecond,
		Timeout:  30 * time.Millisecond,
	})

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	waitForState(t, w, StateTimedOutPending)

	// payment verification completed while polling was halted
	atomic.StoreInt32(&confirmed, 1)
	w.CheckAgain()

	require.NoError(t, <-done)
	assert.Equal(t, StateConfirmed, w.Snapshot().State)
}

func TestWatcher_ErrorAfterMaxAttempts(t *testing.T) {
	calls := int32(0)
	queryErr := errors.New("query failed")
	source := sourceFunc(func(context.Context, string) (*models.OrderDetail, error) {
		atomic.AddInt32(&calls, 1)
		return nil, queryErr
	})

	w := New(source, uuid.NewString(), Options{
		Interval:    2 * time.Millisecond,
		MaxAttempts: 3,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitForState(t, w, StateError)

	snap := w.Snapshot()
	assert.Equal(t, 3, snap.Attempts)
	assert.ErrorIs(t, snap.Err, queryErr)

	// automatic polling halted: no further queries
	observed := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, observed, atomic.LoadInt32(&calls))

	cancel()
	<-done
}

func TestWatcher_CheckAgainResetsAttempts(t *testing.T) {
	failing := int32(1)
	detail := &models.OrderDetail{OrderID: uuid.New(), Amount: 2900}
	source := sourceFunc(func(context.Context, string) (*models.OrderDetail, error) {
		if atomic.LoadInt32(&failing) == 1 {
			return nil, errors.New("query failed")
		}
		return detail, nil
	})

	w := New(source, detail.OrderID.String(), Options{
		Interval:    2 * time.Millisecond,
		MaxAttempts: 2,
	})

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	waitForState(t, w, StateError)
	assert.Equal(t, 2, w.Snapshot().Attempts)

	atomic.StoreInt32(&failing, 0)
	w.CheckAgain()

	require.NoError(t, <-done)
	snap := w.Snapshot()
	assert.Equal(t, StateConfirmed, snap.State)
	assert.Zero(t, snap.Attempts)
	assert.NoError(t, snap.Err)
}

func TestWatcher_CancelStopsPolling(t *testing.T) {
	calls := int32(0)
	source := sourceFunc(func(context.Context, string) (*models.OrderDetail, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})

	w := New(source, uuid.NewString(), Options{Interval: 2 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitForState(t, w, StatePending)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	observed := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, observed, atomic.LoadInt32(&calls))
}

func TestWatcher_UpdatesSignalsStateChanges(t *testing.T) {
	detail := &models.OrderDetail{OrderID: uuid.New()}
	source := sourceFunc(func(context.Context, string) (*models.OrderDetail, error) {
		return detail, nil
	})

	w := New(source, detail.OrderID.String(), Options{Interval: 5 * time.Millisecond})

	require.NoError(t, w.Run(context.Background()))

	select {
	case <-w.Updates():
	default:
		t.Fatal("expected a pending update signal")
	}
}
