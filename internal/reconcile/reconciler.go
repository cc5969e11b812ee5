// Package reconcile periodically rebuilds every rating aggregate from the
// stored reviews.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/appser/appser-store/pkg/logger"
	"github.com/robfig/cron/v3"
)

const runTimeout = 2 * time.Minute

// Recomputer is satisfied by listing.Service.
type Recomputer interface {
	RecomputeRatings(ctx context.Context) (int, error)
}

type Reconciler struct {
	target   Recomputer
	schedule string
	cron     *cron.Cron
	log      *logger.Logger

	mu      sync.Mutex
	lastRun time.Time
	lastN   int
	lastErr error
}

// New returns a reconciler for a standard 5-field cron expression or a
// descriptor such as "@every 1h". An empty schedule disables it.
func New(target Recomputer, schedule string) (*Reconciler, error) {
	r := &Reconciler{
		target:   target,
		schedule: schedule,
		log:      logger.GetLogger().WithContext("component", "reconciler"),
	}
	if schedule == "" {
		return r, nil
	}

	r.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Reconciler) Enabled() bool {
	return r.cron != nil
}

func (r *Reconciler) Start() {
	if r.cron == nil {
		r.log.Info("reconciler_disabled")
		return
	}
	r.cron.Start()
	r.log.Info("reconciler_started", "schedule", r.schedule)
}

// Stop waits for a running job to finish.
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.log.Info("reconciler_stopped")
}

func (r *Reconciler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if _, err := r.RunOnce(ctx); err != nil {
		r.log.Error("reconcile_failed", "error", err.Error())
	}
}

// RunOnce recomputes all aggregates now.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := r.target.RecomputeRatings(ctx)

	r.mu.Lock()
	r.lastRun = start
	r.lastN = n
	r.lastErr = err
	r.mu.Unlock()

	if err != nil {
		return 0, err
	}
	r.log.Info("reconcile_completed", "apps", n, "duration_ms", time.Since(start).Milliseconds())
	return n, nil
}

// LastRun reports the outcome of the most recent run.
func (r *Reconciler) LastRun() (time.Time, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.lastN, r.lastErr
}
