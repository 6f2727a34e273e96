package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"weatherwatch/internal/rules"
	"weatherwatch/internal/subscriptions"
	"weatherwatch/internal/types"
)

// Tick results recorded to metrics.
const (
	tickResultFetchError   = "fetch_error"
	tickResultNotSatisfied = "not_satisfied"
	tickResultSatisfied    = "satisfied"
	tickResultSkipped      = "skipped"
)

// Metrics is the observability hook the watcher reports into. Implemented
// by telemetry.Metrics; a nil Metrics disables recording.
type Metrics interface {
	RecordTick(result string)
	RecordDelivery(outcome string)
	SetActiveJobs(n int)
}

// ScheduleRequest is one accepted schedule operation: the subscriber's push
// descriptor plus the daily local fire time and rule set. The transport
// layer validates shape and formats before constructing one.
type ScheduleRequest struct {
	Subscription types.PushSubscription
	Time         types.ClockTime
	Timezone     string
	Rules        types.RuleSet
}

// WatcherConfig carries the fixed evaluation parameters.
type WatcherConfig struct {
	// Query is the forecast window evaluated on every tick. The service
	// watches one fixed location.
	Query types.ForecastQuery
	// Payload is the notification content sent when rules are satisfied.
	Payload types.NotificationPayload
	// DefaultTimezone applies to schedule requests that omit one.
	DefaultTimezone string
}

// Watcher orchestrates the per-endpoint lifecycle: it owns the subscription
// store and schedule registry, and runs the daily tick -- fetch forecast,
// evaluate rules, dispatch, and retire the endpoint on a terminal delivery
// failure.
//
// Lifecycle operations for one endpoint (schedule, cancel, retire) are
// serialized by a per-endpoint lock so a reschedule can never race a
// concurrent permanent-failure cleanup for the same endpoint. Operations on
// different endpoints do not contend.
type Watcher struct {
	cfg       WatcherConfig
	store     *subscriptions.Store
	registry  *Registry
	source    types.ForecastSource
	transport types.PushTransport
	metrics   Metrics
	logger    *slog.Logger

	lifecycle keyedMutex
}

// NewWatcher wires the orchestrator. All parameters are required except
// metrics, which may be nil.
func NewWatcher(
	cfg WatcherConfig,
	store *subscriptions.Store,
	registry *Registry,
	source types.ForecastSource,
	transport types.PushTransport,
	metrics Metrics,
	logger *slog.Logger,
) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:       cfg,
		store:     store,
		registry:  registry,
		source:    source,
		transport: transport,
		metrics:   metrics,
		logger:    logger,
	}
}

// Register stores or replaces a subscription descriptor without touching
// any schedule.
func (w *Watcher) Register(sub types.PushSubscription) {
	w.store.Upsert(sub)
	w.logger.Info("registered subscription", "endpoint", sub.Endpoint)
}

// Schedule stores the subscription and creates the endpoint's daily job,
// replacing any previous one. Re-subscribing after a retirement restarts
// the lifecycle from here.
func (w *Watcher) Schedule(ctx context.Context, req ScheduleRequest) (types.ScheduledJob, error) {
	endpoint := req.Subscription.Endpoint
	timezone := req.Timezone
	if timezone == "" {
		timezone = w.cfg.DefaultTimezone
	}

	unlock := w.lifecycle.lock(endpoint)
	defer unlock()

	w.store.Upsert(req.Subscription)
	job, err := w.registry.Upsert(endpoint, req.Time, timezone, req.Rules, func() {
		w.Tick(context.Background(), endpoint)
	})
	if err != nil {
		return types.ScheduledJob{}, err
	}

	w.recordActiveJobs()
	return job, nil
}

// Cancel removes the endpoint's recurring job, leaving the subscription
// registered. Returns false when no job existed.
func (w *Watcher) Cancel(endpoint string) bool {
	unlock := w.lifecycle.lock(endpoint)
	defer unlock()

	ok := w.registry.Cancel(endpoint)
	if ok {
		w.recordActiveJobs()
	}
	return ok
}

// Unsubscribe removes the endpoint's subscription and cancels its job as one
// unit. Returns false when the endpoint was entirely unknown.
func (w *Watcher) Unsubscribe(endpoint string) bool {
	unlock := w.lifecycle.lock(endpoint)
	defer unlock()

	removed := w.store.Remove(endpoint)
	if w.registry.Cancel(endpoint) {
		removed = true
	}
	w.recordActiveJobs()
	if removed {
		w.logger.Info("removed subscription", "endpoint", endpoint)
	}
	return removed
}

// Schedules lists all live job records.
func (w *Watcher) Schedules() []types.ScheduledJob {
	return w.registry.List()
}

// Tick runs one scheduled evaluation for the endpoint. Each cron firing
// invokes this in its own goroutine; ticks for different endpoints are
// fully independent, and a failure here never propagates beyond the tick.
func (w *Watcher) Tick(ctx context.Context, endpoint string) {
	log := w.logger.With("endpoint", endpoint)

	// A job cancelled after this firing was scheduled simply finds no
	// registry entry and has no observable effect.
	job, ok := w.registry.Get(endpoint)
	if !ok {
		log.Info("tick skipped, job no longer registered")
		w.recordTick(tickResultSkipped)
		return
	}

	samples, err := w.source.Hourly(ctx, w.cfg.Query)
	if err != nil {
		// Transient: no state is touched, the next daily fire retries.
		log.Warn("tick abandoned, forecast unavailable", "error", err)
		w.recordTick(tickResultFetchError)
		return
	}

	if !rules.Evaluate(job.Rules, samples) {
		log.Info("rules not satisfied", "rules", len(job.Rules), "samples", len(samples))
		w.recordTick(tickResultNotSatisfied)
		return
	}

	sub, ok := w.store.Get(endpoint)
	if !ok {
		log.Warn("tick skipped, subscription missing for scheduled endpoint")
		w.recordTick(tickResultSkipped)
		return
	}

	res, err := w.transport.Deliver(ctx, sub, w.cfg.Payload)
	if err != nil {
		// Transport errors carry no classification; treat as transient.
		log.Error("delivery errored", "error", err)
		w.recordDelivery("error")
		w.recordTick(tickResultSatisfied)
		return
	}

	switch {
	case res.Delivered():
		log.Info("notification delivered")
		w.recordDelivery("sent")
	case res.Terminal:
		log.Warn("endpoint permanently invalid, retiring subscription",
			"reason", res.FailureReason)
		w.recordDelivery("terminal")
		w.retire(endpoint)
	default:
		log.Warn("delivery failed, will retry on next daily run",
			"reason", res.FailureReason)
		w.recordDelivery("transient")
	}
	w.recordTick(tickResultSatisfied)
}

// retire removes the endpoint from the subscription store and cancels its
// job as one unit under the endpoint's lifecycle lock, so no orphaned timer
// or dangling subscription can survive a permanent delivery failure.
func (w *Watcher) retire(endpoint string) {
	unlock := w.lifecycle.lock(endpoint)
	defer unlock()

	w.store.Remove(endpoint)
	w.registry.Cancel(endpoint)
	w.recordActiveJobs()
}

func (w *Watcher) recordTick(result string) {
	if w.metrics != nil {
		w.metrics.RecordTick(result)
	}
}

func (w *Watcher) recordDelivery(outcome string) {
	if w.metrics != nil {
		w.metrics.RecordDelivery(outcome)
	}
}

func (w *Watcher) recordActiveJobs() {
	if w.metrics != nil {
		w.metrics.SetActiveJobs(w.registry.Len())
	}
}

// keyedMutex provides one mutex per key. Entries are tiny and bounded by
// the number of endpoints ever seen, so they are not reaped.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the key's mutex and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
