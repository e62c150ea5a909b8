// Package scheduler runs the minute tick that turns schedules into reminders.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gmsas95/medtrack/internal/clock"
	"github.com/gmsas95/medtrack/internal/medication"
	"github.com/gmsas95/medtrack/internal/metrics"
	"github.com/gmsas95/medtrack/internal/notify"
	"github.com/gmsas95/medtrack/internal/security"
)

const DefaultSpec = "* * * * *"

// ScheduleFinder returns every schedule, across users, that lists slot.
type ScheduleFinder interface {
	ListBySlot(ctx context.Context, slot medication.TimeOfDay) ([]*medication.Schedule, error)
}

// Notifier delivers one reminder. It reports failure in the result and never panics
// on transport errors.
type Notifier interface {
	Notify(ctx context.Context, occ medication.Occurrence, s *medication.Schedule) notify.Result
}

// Config holds scheduler configuration
type Config struct {
	Spec          string
	Location      *time.Location
	MaxConcurrent int
}

// Scheduler evaluates schedules once per cron firing.
type Scheduler struct {
	config   Config
	finder   ScheduleFinder
	notifier Notifier
	journal  *Journal
	clock    clock.Clock
	logger   *zap.Logger

	inflight atomic.Int32
	pending  atomic.Int32

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New creates a scheduler. journal may be nil, in which case reports are not kept.
func New(config Config, finder ScheduleFinder, notifier Notifier, journal *Journal, clk clock.Clock, logger *zap.Logger) *Scheduler {
	if config.Spec == "" {
		config.Spec = DefaultSpec
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 8
	}
	if clk == nil {
		clk = clock.System{}
	}

	return &Scheduler{
		config:   config,
		finder:   finder,
		notifier: notifier,
		journal:  journal,
		clock:    clk,
		logger:   logger.Named("scheduler"),
	}
}

// Start registers the tick with cron and starts firing it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	cl := cronLogger{s.logger.Sugar()}
	c := cron.New(
		cron.WithLocation(s.config.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), s.overlapGuard()),
	)

	_, err := c.AddFunc(s.config.Spec, func() {
		if _, err := s.Tick(ctx); err != nil {
			s.logger.Error("Tick failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid tick spec %q: %w", s.config.Spec, err)
	}

	c.Start()
	s.cron = c
	s.running = true

	s.logger.Info("Scheduler started",
		zap.String("spec", s.config.Spec),
		zap.String("timezone", s.config.Location.String()),
		zap.Int("max_concurrent", s.config.MaxConcurrent),
	)
	return nil
}

// Stop halts the cadence and waits for a tick in progress to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the cadence is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// PendingSends counts occurrences handed off by the current tick whose
// send has not finished yet, including those waiting for a free slot.
func (s *Scheduler) PendingSends() int {
	return int(s.pending.Load())
}

// Location is the reference timezone ticks are evaluated in.
func (s *Scheduler) Location() *time.Location {
	return s.config.Location
}

// overlapGuard warns when a tick fires while the previous one is still
// dispatching. Both run.
func (s *Scheduler) overlapGuard() cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			if n := s.inflight.Add(1); n > 1 {
				s.logger.Warn("Previous tick still running",
					zap.Int32("inflight", n),
					zap.Int32("pending_sends", s.pending.Load()),
				)
				metrics.RecordTickOverlap()
			}
			defer s.inflight.Add(-1)
			j.Run()
		})
	}
}

// Tick evaluates the current minute once. Per-item failures end up in the
// report; only a failed schedule lookup is returned as an error.
func (s *Scheduler) Tick(ctx context.Context) (*TickReport, error) {
	start := time.Now()
	now := s.clock.Now().In(s.config.Location)
	today := medication.DateOf(now)
	slot := medication.TimeOfDayOf(now)

	matches, err := s.finder.ListBySlot(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("list schedules for %s: %w", slot, err)
	}

	outcomes := make([]Outcome, len(matches))
	sem := make(chan struct{}, s.config.MaxConcurrent)
	var wg sync.WaitGroup

	for i, sched := range matches {
		occ, ok := medication.OccurrenceAt(sched, today, slot)
		if !ok {
			outcomes[i] = newOutcome(sched, OutcomeSkipped)
			continue
		}

		wg.Add(1)
		s.pending.Add(1)
		go func(i int, sched *medication.Schedule, occ medication.Occurrence) {
			defer wg.Done()
			defer s.pending.Add(-1)
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out := newOutcome(sched, OutcomeFailed)
				out.Error = ctx.Err().Error()
				outcomes[i] = out
				return
			}
			defer func() { <-sem }()
			outcomes[i] = s.dispatch(ctx, occ, sched)
		}(i, sched, occ)
	}
	wg.Wait()

	report := newReport(now, today, slot, outcomes)
	for _, out := range outcomes {
		metrics.RecordTickItem(string(out.Status))
	}
	metrics.RecordTick(time.Since(start))

	if s.journal != nil {
		if err := s.journal.Record(report); err != nil {
			s.logger.Warn("Failed to journal tick", zap.Error(err))
		}
	}

	fields := []zap.Field{
		zap.String("date", today.String()),
		zap.String("slot", slot.String()),
		zap.Int("matched", report.Matched),
		zap.Int("dispatched", report.Dispatched),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	}
	if report.Matched > 0 {
		s.logger.Info("Tick evaluated", fields...)
	} else {
		s.logger.Debug("Tick evaluated", fields...)
	}
	return report, nil
}

func (s *Scheduler) dispatch(ctx context.Context, occ medication.Occurrence, sched *medication.Schedule) (out Outcome) {
	out = newOutcome(sched, OutcomeDispatched)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic dispatching reminder",
				zap.String("schedule_id", sched.ID),
				zap.Any("recover", r),
			)
			out.Status = OutcomeFailed
			out.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	res := s.notifier.Notify(ctx, occ, sched)
	if res.Err != nil {
		out.Status = OutcomeFailed
		out.Error = security.RedactSecrets(res.Err.Error())
	}
	return out
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
