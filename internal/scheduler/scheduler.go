package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/metrics"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/state"
	"github.com/hamed0406/sitewatch/internal/store"
)

// Notifier receives transition fanouts. *notify.Dispatcher satisfies it.
type Notifier interface {
	Dispatch(ctx context.Context, t *domain.Target, status domain.Status, detail string)
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(context.Context, *domain.Target, domain.Status, string) {}

type Config struct {
	RetentionDays int
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Scheduler owns one checking loop per enabled target. Jobs hold only
// the target ID and interval; every tick reloads the target so edits
// and deletes take effect without restarts.
type Scheduler struct {
	store    store.Store
	probes   probe.Prober
	manual   probe.Prober
	tracker  *state.Tracker
	notifier Notifier
	log      *zap.Logger
	stats    metrics.Metrics
	cfg      Config

	mu   sync.Mutex
	jobs map[string]*job

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type job struct {
	targetID string
	interval time.Duration
	cancel   context.CancelFunc
	inFlight atomic.Bool
}

func New(st store.Store, probes probe.Prober, tracker *state.Tracker, notifier Notifier, log *zap.Logger, stats metrics.Metrics, cfg Config) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if stats == nil {
		stats = metrics.Nop{}
	}
	if tracker == nil {
		tracker = state.New()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}

	manual := probes
	if cfg.RetryAttempts > 1 {
		manual = &probe.Retry{Inner: probes, Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:    st,
		probes:   probes,
		manual:   manual,
		tracker:  tracker,
		notifier: notifier,
		log:      log,
		stats:    stats,
		cfg:      cfg,
		jobs:     make(map[string]*job),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Start schedules every enabled target with at least one active type
// and begins the retention loop. ctx bounds only the initial load; job
// lifetimes end at Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	targets, err := s.store.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("list targets: %w", err)
	}
	for _, t := range targets {
		s.Schedule(t)
	}

	s.wg.Add(1)
	go s.retentionLoop(s.baseCtx)

	s.log.Info("scheduler_started", zap.Int("jobs", s.Jobs()))
	return nil
}

// Stop cancels every job and waits for in-flight ticks and dispatches
// to drain.
func (s *Scheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	for id, j := range s.jobs {
		j.cancel()
		delete(s.jobs, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.log.Info("scheduler_stopped")
}

// Schedule starts (or replaces) the loop for a target. Disabled
// targets and targets with no active type are ignored.
func (s *Scheduler) Schedule(t *domain.Target) {
	if t == nil || !t.Enabled || len(t.ActiveTypes()) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[t.ID]; ok {
		old.cancel()
		delete(s.jobs, t.ID)
	}

	jctx, cancel := context.WithCancel(s.baseCtx)
	j := &job{targetID: t.ID, interval: t.IntervalDuration(), cancel: cancel}
	s.jobs[t.ID] = j

	s.wg.Add(1)
	go s.run(jctx, j)

	s.log.Info("job_scheduled",
		zap.String("target_id", t.ID),
		zap.Duration("interval", j.interval))
}

// Reschedule replaces the loop after a target edit. A target that is
// now disabled or push-only simply loses its job.
func (s *Scheduler) Reschedule(t *domain.Target) {
	if t == nil {
		return
	}
	if !t.Enabled || len(t.ActiveTypes()) == 0 {
		s.Unschedule(t.ID)
		return
	}
	s.Schedule(t)
}

// Unschedule stops future ticks for the target. An in-flight tick is
// allowed to finish; its results are dropped before they reach the
// tracker.
func (s *Scheduler) Unschedule(targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[targetID]; ok {
		j.cancel()
		delete(s.jobs, targetID)
		s.log.Info("job_unscheduled", zap.String("target_id", targetID))
	}
}

// Jobs reports how many targets are currently scheduled.
func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// run is one job loop: immediate first tick, then the ticker.
func (s *Scheduler) run(ctx context.Context, j *job) {
	defer s.wg.Done()

	s.tickAsync(ctx, j)

	t := time.NewTicker(j.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tickAsync(ctx, j)
		}
	}
}

// tickAsync launches one tick unless the previous one is still going.
func (s *Scheduler) tickAsync(ctx context.Context, j *job) {
	if !j.inFlight.CompareAndSwap(false, true) {
		s.stats.Increment("scheduler.tick_skipped")
		s.log.Warn("tick_skipped_previous_running", zap.String("target_id", j.targetID))
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer j.inFlight.Store(false)
		s.tick(ctx, j.targetID)
	}()
}

// tick reloads the target and runs every active check type through the
// probe set, sequentially.
func (s *Scheduler) tick(ctx context.Context, targetID string) {
	t, err := s.store.Target(ctx, targetID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, context.Canceled) {
			s.log.Warn("tick_target_load_failed",
				zap.String("target_id", targetID),
				zap.Error(err))
		}
		return
	}
	if !t.Enabled {
		return
	}

	start := time.Now()
	for _, ct := range t.ActiveTypes() {
		if ctx.Err() != nil {
			return
		}
		s.runCheck(ctx, t, ct, s.probes)
	}
	s.stats.Duration("scheduler.tick", time.Since(start))
}

// runCheck probes one type, persists the log, and routes the outcome
// through the tracker. The result is returned for manual checks.
func (s *Scheduler) runCheck(ctx context.Context, t *domain.Target, ct domain.CheckType, p probe.Prober) domain.CheckResult {
	res := p.Probe(ctx, t, ct)

	if err := s.store.AppendLog(ctx, domain.NewCheckLog(t.ID, ct, res)); err != nil {
		s.log.Warn("check_log_append_failed",
			zap.String("target_id", t.ID),
			zap.String("check_type", string(ct)),
			zap.Error(err))
	}

	s.observe(ctx, t, ct, res)

	s.log.Debug("check_done",
		zap.String("target_id", t.ID),
		zap.String("check_type", string(ct)),
		zap.String("status", res.Status.String()),
		zap.Int64("response_time_ms", res.ResponseTime),
		zap.String("message", res.Message))

	return res
}

// observe feeds one result to the tracker and, on a flip, records the
// event and fans out notifications. Results from a cancelled job are
// dropped so a stale tick can't seed the tracker after an unschedule.
func (s *Scheduler) observe(ctx context.Context, t *domain.Target, ct domain.CheckType, res domain.CheckResult) {
	if ctx.Err() != nil {
		return
	}

	tr, changed := s.tracker.Observe(t.ID, ct, res.Status)
	if !changed {
		return
	}

	s.stats.Increment("scheduler.transition")

	var kind domain.EventKind
	var msg string
	if tr.To == domain.StatusUp {
		kind = domain.EventUp
		msg = fmt.Sprintf("%s [%s] recovered", t.Name, ct.Label())
	} else {
		kind = domain.EventDown
		msg = fmt.Sprintf("%s [%s] down: %s", t.Name, ct.Label(), res.Message)
	}

	if err := s.store.AppendEvent(ctx, &domain.Event{TargetID: t.ID, Kind: kind, Message: msg}); err != nil {
		s.log.Warn("event_append_failed",
			zap.String("target_id", t.ID),
			zap.Error(err))
	}

	s.log.Info("status_transition",
		zap.String("target_id", t.ID),
		zap.String("check_type", string(ct)),
		zap.String("from", tr.From.String()),
		zap.String("to", tr.To.String()),
		zap.String("message", res.Message))

	detail := fmt.Sprintf("[%s] %s", ct.Label(), res.Message)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.notifier.Dispatch(s.baseCtx, t, tr.To, detail)
	}()
}
