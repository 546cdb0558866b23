package services

import (
	"context"
	"sync"
	"time"

	"serverbot/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/cronexpr"
	"go.uber.org/zap"
)

// JobFunc is invoked on every occurrence of a recurrence rule
type JobFunc func(ctx context.Context, fireAt time.Time) error

// Scheduler fires callbacks at the occurrences of a weekly recurrence rule
type Scheduler struct {
	rule     models.RecurrenceRule
	expr     *cronexpr.Expression
	location *time.Location
	logger   *zap.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewScheduler compiles the rule. A nil location means time.Local.
func NewScheduler(rule models.RecurrenceRule, location *time.Location, logger *zap.Logger) (*Scheduler, error) {
	expr, err := cronexpr.Parse(rule.CronExpression())
	if err != nil {
		return nil, errors.Wrapf(err, "parse recurrence rule %q", rule.CronExpression())
	}
	if location == nil {
		location = time.Local
	}

	return &Scheduler{
		rule:     rule,
		expr:     expr,
		location: location,
		logger:   logger,
		now:      time.Now,
		after:    time.After,
	}, nil
}

// Next returns the first occurrence strictly after from, or the zero time if none exists
func (s *Scheduler) Next(from time.Time) time.Time {
	return s.expr.Next(from.In(s.location))
}

// Job is a running recurrence. Stop cancels all future firings.
type Job struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	mu   sync.RWMutex
	next time.Time
}

// Start begins firing fn at every occurrence until the returned job is stopped.
// Each firing runs in its own goroutine; a slow firing never delays the next one.
func (s *Scheduler) Start(fn JobFunc) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go job.run(ctx, s, fn)

	s.logger.Info("Recurring job scheduled",
		zap.String("rule", s.rule.String()),
		zap.String("cron", s.rule.CronExpression()),
		zap.String("location", s.location.String()))
	return job
}

func (j *Job) run(ctx context.Context, s *Scheduler, fn JobFunc) {
	defer close(j.done)

	var last time.Time
	for {
		from := s.now()
		if !last.IsZero() && !from.After(last) {
			// never fire the same occurrence twice if the wall clock lags the timer
			from = last
		}
		next := s.Next(from)
		if next.IsZero() {
			s.logger.Error("Recurrence rule has no future occurrence", zap.String("cron", s.rule.CronExpression()))
			return
		}
		j.setNext(next)

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(from)):
		}
		last = next

		// In-flight firings are not interrupted by Stop
		go s.invoke(context.WithoutCancel(ctx), fn, next)
	}
}

// invoke isolates one firing: errors and panics are logged, never propagated.
func (s *Scheduler) invoke(ctx context.Context, fn JobFunc, fireAt time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduled job panicked", zap.Time("fire_at", fireAt), zap.Any("panic", r))
		}
	}()

	if err := fn(ctx, fireAt); err != nil {
		s.logger.Error("Scheduled job failed", zap.Time("fire_at", fireAt), zap.Error(err))
	}
}

func (j *Job) setNext(next time.Time) {
	j.mu.Lock()
	j.next = next
	j.mu.Unlock()
}

// NextRun returns the next scheduled occurrence
func (j *Job) NextRun() time.Time {
	if j == nil {
		return time.Time{}
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.next
}

// Stop prevents all future firings. It is safe to call more than once and on a nil job.
func (j *Job) Stop() {
	if j == nil {
		return
	}
	j.stopOnce.Do(func() {
		j.cancel()
		<-j.done
	})
}
