// Package job runs the recipe import pipeline on a schedule with retries.
package job

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"foodgram/internal/importer"
	applog "foodgram/internal/log"
	"foodgram/internal/metrics"
	"foodgram/models"
)

const (
	// DefaultName identifies the import job lease.
	DefaultName = "import_recipes"

	statusSuccess = "success"
	statusFailure = "failure"
	statusSkipped = "skipped"
)

var (
	// ErrNoTags means there is no tag to crawl recipes for.
	ErrNoTags = errors.New("job: no tags available to import recipes for")
	// ErrJobRunning means another process holds the job lease.
	ErrJobRunning = errors.New("job: import is already running")
	// ErrLeaseLost means another process took the job lease over mid-run.
	ErrLeaseLost = errors.New("job: import lease lost to another process")
)

// Fetcher downloads raw recipes for a tag.
type Fetcher interface {
	Fetch(ctx context.Context, tag string) ([]importer.RawRecipe, error)
}

// Parser turns raw recipes into records.
type Parser interface {
	Parse(ctx context.Context, raw []importer.RawRecipe, tag string) ([]importer.RecipeRecord, error)
}

// Saver persists records and reports how many recipes were created.
type Saver interface {
	Save(ctx context.Context, records []importer.RecipeRecord) (int, error)
}

// Config controls scheduling and the retry policy.
type Config struct {
	Name         string
	Schedule     string
	MaxRetries   int
	RetryBackoff time.Duration
	LeaseTTL     time.Duration
}

// Result summarises a successful run.
type Result struct {
	Status  string
	Created int
	Tag     string
}

// Detail renders the result the way it is reported in logs.
func (r Result) Detail() string {
	return fmt.Sprintf("Number of recipes created: %d", r.Created)
}

// Runner executes fetch, parse and save as one retried unit.
type Runner struct {
	cfg       Config
	db        *gorm.DB
	scheduler Scheduler
	fetcher   Fetcher
	parser    Parser
	saver     Saver
	owner     string
	pickIndex func(n int) int
	now       func() time.Time

	mu      sync.Mutex
	started bool
}

// NewRunner wires a Runner. scheduler may be nil when the runner is only
// invoked directly through Run.
func NewRunner(cfg Config, db *gorm.DB, scheduler Scheduler, fetcher Fetcher, parser Parser, saver Saver) *Runner {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 10 * time.Minute
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = time.Hour
	}
	return &Runner{
		cfg:       cfg,
		db:        db,
		scheduler: scheduler,
		fetcher:   fetcher,
		parser:    parser,
		saver:     saver,
		owner:     uuid.NewString(),
		pickIndex: rand.IntN,
		now:       time.Now,
	}
}

// Start registers Run on the configured schedule and starts the scheduler.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scheduler == nil {
		return errors.New("job: no scheduler configured")
	}
	if r.started {
		return nil
	}

	_, err := r.scheduler.AddFunc(r.cfg.Schedule, func() {
		if _, err := r.Run(ctx); err != nil && !errors.Is(err, ErrJobRunning) {
			applog.Error(ctx, "recipe import failed", "job", r.cfg.Name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("job: schedule %q: %w", r.cfg.Schedule, err)
	}

	r.scheduler.Start()
	r.started = true
	applog.Info(ctx, "recipe import scheduled", "job", r.cfg.Name, "schedule", r.cfg.Schedule)
	return nil
}

// Stop halts the scheduler and waits for a running invocation to finish or
// for ctx to expire.
func (r *Runner) Stop(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}
	r.started = false

	select {
	case <-r.scheduler.Stop().Done():
	case <-ctx.Done():
	}
}

// Run performs one import. Fetch, translation, image and empty-batch failures
// are retried with exponential backoff up to MaxRetries times. A missing
// import user or an empty tag table fails immediately. The job lease is
// renewed while the run is in flight; losing it aborts with ErrLeaseLost.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	ctx = applog.WithAttrs(ctx, "job", r.cfg.Name, "run", uuid.NewString())
	acquired, err := acquireLease(ctx, r.db, r.cfg.Name, r.owner, r.cfg.LeaseTTL, r.now())
	if err != nil {
		return Result{}, fmt.Errorf("job: acquire lease: %w", err)
	}
	if !acquired {
		metrics.ImportRuns.WithLabelValues(statusSkipped).Inc()
		applog.Info(ctx, "recipe import skipped, lease held elsewhere")
		return Result{}, ErrJobRunning
	}
	defer func() {
		if err := releaseLease(context.WithoutCancel(ctx), r.db, r.cfg.Name, r.owner); err != nil {
			applog.Error(ctx, "failed to release job lease", "error", err)
		}
	}()

	runCtx, cancel := context.WithCancelCause(ctx)
	renewed := make(chan struct{})
	go func() {
		defer close(renewed)
		r.keepLease(runCtx, cancel)
	}()
	defer func() {
		cancel(nil)
		<-renewed
	}()

	started := r.now()
	attempt := 0
	result, err := backoff.RetryNotifyWithData(
		func() (Result, error) {
			attempt++
			if attempt > 1 {
				if err := r.renewLease(runCtx); err != nil {
					return Result{}, backoff.Permanent(err)
				}
			}
			return r.attempt(runCtx, attempt)
		},
		backoff.WithContext(backoff.WithMaxRetries(r.retryPolicy(), uint64(r.cfg.MaxRetries)), runCtx),
		func(err error, wait time.Duration) {
			metrics.ImportRetries.Inc()
			applog.Warn(ctx, "recipe import attempt failed, retrying", "attempt", attempt, "wait", wait, "error", err)
		},
	)
	if cause := context.Cause(runCtx); err != nil && errors.Is(cause, ErrLeaseLost) {
		err = cause
	}
	metrics.ImportDuration.Observe(r.now().Sub(started).Seconds())

	if err != nil {
		metrics.ImportRuns.WithLabelValues(statusFailure).Inc()
		return Result{}, err
	}

	metrics.ImportRuns.WithLabelValues(statusSuccess).Inc()
	metrics.RecipesImported.Add(float64(result.Created))
	applog.Info(ctx, "recipe import finished", "tag", result.Tag, "detail", result.Detail())
	return result, nil
}

// keepLease extends the lease every third of its TTL until ctx is done.
// Losing the lease cancels ctx with ErrLeaseLost.
func (r *Runner) keepLease(ctx context.Context, cancel context.CancelCauseFunc) {
	interval := r.cfg.LeaseTTL / 3
	if interval <= 0 {
		interval = r.cfg.LeaseTTL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.renewLease(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				applog.Error(ctx, "recipe import lease renewal failed", "error", err)
				cancel(err)
				return
			}
		}
	}
}

func (r *Runner) renewLease(ctx context.Context) error {
	held, err := acquireLease(ctx, r.db, r.cfg.Name, r.owner, r.cfg.LeaseTTL, r.now())
	if err != nil {
		return fmt.Errorf("job: renew lease: %w", err)
	}
	if !held {
		return ErrLeaseLost
	}
	return nil
}

func (r *Runner) retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.cfg.RetryBackoff
	policy.RandomizationFactor = 0.5
	policy.Multiplier = 2
	policy.MaxInterval = 8 * r.cfg.RetryBackoff
	policy.MaxElapsedTime = 0
	return policy
}

func (r *Runner) attempt(ctx context.Context, attempt int) (Result, error) {
	if _, err := importer.ResolveImportUser(ctx, r.db); err != nil {
		if errors.Is(err, importer.ErrNoImportUser) {
			return Result{}, backoff.Permanent(err)
		}
		return Result{}, err
	}

	tag, err := r.pickTag(ctx)
	if err != nil {
		if errors.Is(err, ErrNoTags) {
			return Result{}, backoff.Permanent(err)
		}
		return Result{}, err
	}

	applog.Debug(ctx, "starting recipe import attempt", "attempt", attempt, "tag", tag)

	raw, err := r.fetcher.Fetch(ctx, tag)
	if err != nil {
		return Result{}, err
	}

	records, err := r.parser.Parse(ctx, raw, tag)
	if err != nil {
		return Result{}, err
	}

	created, err := r.saver.Save(ctx, records)
	if err != nil {
		if errors.Is(err, importer.ErrNoImportUser) {
			return Result{}, backoff.Permanent(err)
		}
		return Result{}, err
	}
	if created == 0 {
		return Result{}, importer.ErrEmptyImport
	}

	return Result{Status: statusSuccess, Created: created, Tag: tag}, nil
}

func (r *Runner) pickTag(ctx context.Context) (string, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("id asc").Find(&tags).Error; err != nil {
		return "", fmt.Errorf("job: load tags: %w", err)
	}
	if len(tags) == 0 {
		return "", ErrNoTags
	}
	return tags[r.pickIndex(len(tags))].Slug, nil
}
