package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/robfig/cron/v3"
)

// Runner triggers ProcessDue on a cron schedule. Overlapping runs are skipped.
type Runner struct {
	ctx       context.Context
	cron      *cron.Cron
	scheduler *Scheduler
	now       func() time.Time
	schedule  string
}

// NewRunner validates schedule (standard five-field cron or a descriptor such as
// "@every 1h") and prepares a runner.
func NewRunner(scheduler *Scheduler, schedule string) (*Runner, error) {
	logger := slogCronLogger{}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	r := &Runner{
		cron:      c,
		scheduler: scheduler,
		ctx:       context.Background(),
		now:       time.Now,
		schedule:  schedule,
	}

	if _, err := c.AddFunc(schedule, r.tick); err != nil {
		return nil, fmt.Errorf("%w: invalid scheduler schedule %q: %w", common.ErrInvalidConfig, schedule, err)
	}
	return r, nil
}

// Start runs the schedule until ctx is done, then waits for a running batch to finish.
func (r *Runner) Start(ctx context.Context) {
	slog.Info("Starting recurring scheduler", "schedule", r.schedule)
	r.ctx = ctx
	r.cron.Start()

	go func() {
		<-ctx.Done()
		stopped := r.cron.Stop()
		<-stopped.Done()
		slog.Info("Recurring scheduler stopped")
	}()
}

// RunOnce processes everything due right now.
func (r *Runner) RunOnce(ctx context.Context) (*Result, error) {
	return r.scheduler.ProcessDue(ctx, r.now().UTC())
}

func (r *Runner) tick() {
	if _, err := r.RunOnce(r.ctx); err != nil {
		common.LogError(err, "Scheduled recurring run failed", nil)
	}
}

// slogCronLogger adapts cron's logger interface to slog.
type slogCronLogger struct{}

func (slogCronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
