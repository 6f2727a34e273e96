// Package scheduler implements the per-subscriber recurring job registry
// and the tick orchestration that evaluates forecast rules and dispatches
// notifications.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"weatherwatch/internal/types"
)

// Registry maps a subscriber endpoint to its single live recurring job.
// All jobs share one cron runner; each entry carries its own CRON_TZ so the
// daily fire happens at the subscriber's local wall-clock time. The cron
// runner starts every firing in its own goroutine, so jobs for different
// endpoints never block each other.
//
// Job state is held here as an explicit record keyed by endpoint -- not in
// timer closures -- so jobs can be listed, replaced, and cancelled by
// identity.
type Registry struct {
	cron   *cron.Cron
	logger *slog.Logger
	clock  types.Clock

	mu   sync.Mutex
	jobs map[string]*registration
}

// registration pairs the inspectable job record with its cron entry handle.
type registration struct {
	job     types.ScheduledJob
	entryID cron.EntryID
}

// NewRegistry creates a Registry and starts its cron runner. Callers must
// Stop it on shutdown.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		cron:   cron.New(),
		logger: logger,
		clock:  types.RealClock{},
		jobs:   make(map[string]*registration),
	}
	r.cron.Start()
	return r
}

// SetClock overrides the clock for testing.
func (r *Registry) SetClock(c types.Clock) {
	r.clock = c
}

// Upsert registers a recurring job firing daily at the given wall-clock time
// in the given IANA timezone, invoking onFire on each occurrence. Any
// existing job for the endpoint is cancelled first, so at most one live job
// per endpoint exists at any time. The replacement is atomic under the
// registry lock: a concurrent Cancel or Upsert for the same endpoint cannot
// interleave.
func (r *Registry) Upsert(endpoint string, at types.ClockTime, timezone string, rules types.RuleSet, onFire func()) (types.ScheduledJob, error) {
	spec := fmt.Sprintf("CRON_TZ=%s %d %d * * *", timezone, at.Minute, at.Hour)

	r.mu.Lock()
	defer r.mu.Unlock()

	entryID, err := r.cron.AddFunc(spec, onFire)
	if err != nil {
		// The boundary validates the timezone, so this is unexpected.
		return types.ScheduledJob{}, types.NewAppError(types.ErrCodeInternalScheduler,
			fmt.Sprintf("registering job with schedule %q", spec), err)
	}

	if old, ok := r.jobs[endpoint]; ok {
		r.cron.Remove(old.entryID)
		r.logger.Info("replaced scheduled job",
			"endpoint", endpoint,
			"old_job_id", old.job.ID,
		)
	}

	job := types.ScheduledJob{
		ID:        uuid.NewString(),
		Endpoint:  endpoint,
		Time:      at,
		Timezone:  timezone,
		Rules:     rules,
		CreatedAt: r.clock.Now(),
		NextRun:   r.cron.Entry(entryID).Next,
	}
	r.jobs[endpoint] = &registration{job: job, entryID: entryID}

	r.logger.Info("scheduled daily job",
		"endpoint", endpoint,
		"job_id", job.ID,
		"at", at.String(),
		"timezone", timezone,
		"rules", len(rules),
	)
	return job, nil
}

// Cancel removes the endpoint's job if present. Cancelling an absent or
// already-cancelled endpoint is a no-op; the cron runner never interrupts a
// firing already in flight, it only stops future occurrences.
func (r *Registry) Cancel(endpoint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.jobs[endpoint]
	if !ok {
		return false
	}
	r.cron.Remove(reg.entryID)
	delete(r.jobs, endpoint)

	r.logger.Info("cancelled scheduled job",
		"endpoint", endpoint,
		"job_id", reg.job.ID,
	)
	return true
}

// Get returns the endpoint's job record with a fresh NextRun.
func (r *Registry) Get(endpoint string) (types.ScheduledJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.jobs[endpoint]
	if !ok {
		return types.ScheduledJob{}, false
	}
	job := reg.job
	job.NextRun = r.cron.Entry(reg.entryID).Next
	return job, true
}

// List returns all job records ordered by endpoint, with fresh NextRun
// values.
func (r *Registry) List() []types.ScheduledJob {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.ScheduledJob, 0, len(r.jobs))
	for _, reg := range r.jobs {
		job := reg.job
		job.NextRun = r.cron.Entry(reg.entryID).Next
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

// Len returns the number of live jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Stop halts future firings and waits for in-flight ones to finish, up to
// the caller's context deadline.
func (r *Registry) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
