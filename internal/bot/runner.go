package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"jordanella.com/clan-bot-go/internal/events"
	"jordanella.com/clan-bot-go/internal/logging"
)

// ErrBusy is returned when a chore is requested while another one runs
var ErrBusy = errors.New("another operation is already running")

// Runner admits one chore at a time. A second request is refused
// immediately instead of queued.
type Runner struct {
	busy atomic.Bool

	mu      sync.Mutex
	running string

	events events.Publisher
	logger *logging.Logger
}

// NewRunner creates a runner that reports chore lifecycle events to pub
func NewRunner(pub events.Publisher) *Runner {
	return &Runner{
		events: pub,
		logger: logging.NewLogger("Runner"),
	}
}

// Busy reports whether a chore is running
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Running returns the name of the running chore, or ""
func (r *Runner) Running() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// TryRun runs fn on the calling goroutine, or returns ErrBusy at once
func (r *Runner) TryRun(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := r.acquire(name); err != nil {
		return err
	}
	err := r.run(ctx, name, fn)
	r.release()
	return err
}

// Go runs fn on a new goroutine. ErrBusy is returned synchronously;
// otherwise done, if set, receives the result after the runner is free.
func (r *Runner) Go(ctx context.Context, name string, fn func(context.Context) error, done func(error)) error {
	if err := r.acquire(name); err != nil {
		return err
	}
	go func() {
		err := r.run(ctx, name, fn)
		r.release()
		if done != nil {
			done(err)
		}
	}()
	return nil
}

func (r *Runner) acquire(name string) error {
	if !r.busy.CompareAndSwap(false, true) {
		running := r.Running()
		r.logger.WarnWithContext("Chore rejected", map[string]interface{}{
			"chore":   name,
			"running": running,
		})
		events.Publish(r.events, events.NewChoreRejectedEvent(name, running))
		return fmt.Errorf("%w: %s", ErrBusy, running)
	}
	r.mu.Lock()
	r.running = name
	r.mu.Unlock()
	return nil
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = ""
	r.mu.Unlock()
	r.busy.Store(false)
}

func (r *Runner) run(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	runID := uuid.NewString()
	start := time.Now()
	log := r.logger.WithContext(map[string]interface{}{
		"chore":  name,
		"run_id": runID,
	})

	events.Publish(r.events, events.NewChoreStartedEvent(runID, name))
	log.Info("Chore started")

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("chore %s panicked: %v", name, p)
		}
		duration := time.Since(start)
		events.Publish(r.events, events.NewChoreFinishedEvent(runID, name, duration, err))
		if err != nil {
			log.Error("Chore failed", err)
			return
		}
		log.Info(fmt.Sprintf("Chore finished in %s", duration.Round(time.Millisecond)))
	}()

	return fn(ctx)
}
