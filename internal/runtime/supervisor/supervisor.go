// Package supervisor manages named goroutines tied to a shared context:
// panic recovery, first-error capture with optional cancel-on-error,
// restart-with-backoff loops, and graceful waiting on stop.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"potd/pkg/logx"
)

type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc

	log         logx.Logger
	cancelOnErr bool
	errOnce     sync.Once
	firstErr    atomic.Value // stores error
	doneOnce    sync.Once
	doneCh      chan struct{}
	wg          sync.WaitGroup
}

type Option func(*Supervisor)

func WithLogger(log logx.Logger) Option {
	return func(s *Supervisor) { s.log = log }
}

// WithCancelOnError cancels the supervisor context on the first non-nil
// error from any goroutine.
func WithCancelOnError(enabled bool) Option {
	return func(s *Supervisor) { s.cancelOnErr = enabled }
}

func New(parent context.Context, opts ...Option) *Supervisor {
	ctx, cancel := context.WithCancel(parent)
	s := &Supervisor{
		ctx:    ctx,
		cancel: cancel,
		doneCh: make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Supervisor) Context() context.Context { return s.ctx }

// Cancel cancels the supervisor context without waiting for goroutines.
func (s *Supervisor) Cancel() { s.cancel() }

func (s *Supervisor) Err() error {
	v := s.firstErr.Load()
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}

// Go runs fn under the supervisor context. A panic or non-nil error is
// recorded as the supervisor's first error (and cancels the context when
// cancel-on-error is enabled). context.Canceled is a clean stop.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic in %s: %v", name, r)
				if !s.log.IsZero() {
					s.log.Error("goroutine panicked",
						logx.String("name", name),
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())))
				}
				s.fail(err)
			}
		}()

		if !s.log.IsZero() {
			s.log.Debug("goroutine started", logx.String("name", name))
		}
		err := fn(s.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.fail(fmt.Errorf("%s: %w", name, err))
		}
		if !s.log.IsZero() {
			s.log.Debug("goroutine stopped", logx.String("name", name))
		}
	}()
}

// GoRestart runs fn and restarts it on error/panic with jittered
// exponential backoff until ctx is canceled or fn returns nil. Intended for
// long-running loops (watchers, pollers) that should self-heal.
func (s *Supervisor) GoRestart(name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	const (
		minBackoff = 250 * time.Millisecond
		maxBackoff = 30 * time.Second
	)
	s.Go(name+".restart", func(ctx context.Context) error {
		backoff := minBackoff
		for {
			if ctx.Err() != nil {
				return nil
			}

			startedAt := time.Now()
			err, pan := func() (err error, pan any) {
				defer func() {
					if r := recover(); r != nil {
						pan = r
					}
				}()
				err = fn(ctx)
				return
			}()
			if pan != nil {
				if !s.log.IsZero() {
					s.log.Error("goroutine panicked (restart)",
						logx.String("name", name), logx.Any("panic", pan))
				}
				err = fmt.Errorf("panic: %v", pan)
			}

			// Shutdown in progress, or a clean exit: stop restarting.
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || err == nil {
				return nil
			}

			// A run that held up for a while resets the backoff so rare
			// failures don't accumulate long delays.
			if time.Since(startedAt) >= 30*time.Second {
				backoff = minBackoff
			}

			wait := backoff
			if j := int64(wait) / 5; j > 0 {
				wait += time.Duration(time.Now().UnixNano() % (j + 1))
			}
			if !s.log.IsZero() {
				s.log.Warn("goroutine restarting",
					logx.String("name", name),
					logx.Duration("backoff", wait),
					logx.Err(err))
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	})
}

func (s *Supervisor) Stop(ctx context.Context) error {
	s.cancel()
	return s.Wait(ctx)
}

func (s *Supervisor) Wait(ctx context.Context) error {
	s.doneOnce.Do(func() {
		go func() {
			s.wg.Wait()
			close(s.doneCh)
		}()
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.doneCh:
		return s.Err()
	}
}

func (s *Supervisor) fail(err error) {
	if err == nil {
		return
	}
	s.errOnce.Do(func() { s.firstErr.Store(err) })
	if s.cancelOnErr {
		s.cancel()
	}
}
