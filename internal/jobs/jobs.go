// Package jobs runs periodic maintenance on a cron schedule: deriving tour
// status from the tour dates and expiring stale invitations and refresh
// tokens.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/config"
	"github.com/tourflow/tourflow/internal/metrics"
)

// Job names accepted by Runner.Run.
const (
	TourStatus  = "tour-status"
	Invitations = "invitation-expiry"
)

// StatusSweeper rewrites tour status from the date range on day.
type StatusSweeper interface {
	SweepStatuses(ctx context.Context, day time.Time) (int, error)
}

type InvitationPurger interface {
	DeleteExpiredInvitations(ctx context.Context, now time.Time) (int64, error)
}

type TokenPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Result describes one job execution.
type Result struct {
	Job      string        `json:"job"`
	Affected int64         `json:"affected"`
	Took     time.Duration `json:"took_ns"`
	Error    string        `json:"error,omitempty"`
	// Skipped is set when the job was already running and this call did nothing.
	Skipped bool `json:"skipped,omitempty"`
}

type jobFunc func(ctx context.Context, now time.Time) (int64, error)

// Runner owns the cron scheduler. A job never overlaps with itself, whether
// it was started by the schedule or by Run.
type Runner struct {
	cron    *cron.Cron
	cfg     config.JobsConfig
	log     *zap.Logger
	now     func() time.Time
	timeout time.Duration

	jobs    map[string]jobFunc
	running map[string]*sync.Mutex

	mu   sync.Mutex
	last map[string]Result
}

func New(cfg config.JobsConfig, tours StatusSweeper, invites InvitationPurger, tokens TokenPurger, log *zap.Logger) (*Runner, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("jobs time zone %q: %w", cfg.TimeZone, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{
		cfg:     cfg,
		log:     log.Named("jobs"),
		now:     func() time.Time { return time.Now().In(loc) },
		timeout: 5 * time.Minute,
		last:    map[string]Result{},
	}
	r.cron = cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	r.jobs = map[string]jobFunc{
		TourStatus: func(ctx context.Context, now time.Time) (int64, error) {
			n, err := tours.SweepStatuses(ctx, now)
			return int64(n), err
		},
		Invitations: func(ctx context.Context, now time.Time) (int64, error) {
			n, err := invites.DeleteExpiredInvitations(ctx, now)
			if err != nil {
				return n, err
			}
			m, err := tokens.PurgeExpired(ctx, now)
			return n + m, err
		},
	}

	r.running = make(map[string]*sync.Mutex, len(r.jobs))
	for name := range r.jobs {
		r.running[name] = &sync.Mutex{}
	}

	for name, spec := range map[string]string{TourStatus: cfg.StatusSchedule, Invitations: cfg.InviteSchedule} {
		name := name
		if _, err := r.cron.AddFunc(spec, func() { r.Run(context.Background(), name) }); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", name, spec, err)
		}
	}
	return r, nil
}

// Names lists the registered jobs.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for n := range r.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Runner) Has(name string) bool {
	_, ok := r.jobs[name]
	return ok
}

// Run executes a job immediately. Unknown names return a Result with an
// error; a job that is still running returns a Skipped result.
func (r *Runner) Run(ctx context.Context, name string) Result {
	fn, ok := r.jobs[name]
	if !ok {
		return Result{Job: name, Error: "unknown job"}
	}
	lock := r.running[name]
	if !lock.TryLock() {
		r.log.Warn("job already running", zap.String("job", name))
		return Result{Job: name, Error: "already running", Skipped: true}
	}
	defer lock.Unlock()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	n, err := fn(ctx, r.now())
	res := Result{Job: name, Affected: n, Took: time.Since(start)}
	metrics.ObserveJob(name, n, err)
	if err != nil {
		res.Error = err.Error()
		r.log.Error("job failed", zap.String("job", name), zap.Error(err))
	} else {
		r.log.Info("job done", zap.String("job", name), zap.Int64("affected", n), zap.Duration("took", res.Took))
	}

	r.mu.Lock()
	r.last[name] = res
	r.mu.Unlock()
	return res
}

// Last returns the most recent result of every job that has run.
func (r *Runner) Last() map[string]Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Result, len(r.last))
	for k, v := range r.last {
		out[k] = v
	}
	return out
}

// Start runs the scheduler until ctx is cancelled, then waits for running
// jobs to finish. Disabled runners just wait for ctx.
func (r *Runner) Start(ctx context.Context) error {
	if r.cfg.Enabled {
		r.cron.Start()
		r.log.Info("scheduler started",
			zap.String("status_schedule", r.cfg.StatusSchedule),
			zap.String("invite_schedule", r.cfg.InviteSchedule))
	}
	<-ctx.Done()
	if r.cfg.Enabled {
		<-r.cron.Stop().Done()
	}
	return nil
}
