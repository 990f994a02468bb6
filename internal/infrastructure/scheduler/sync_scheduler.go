package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/config"
)

const (
	defaultWorkers       = 2
	defaultQueueSize     = 100
	defaultJobTimeout    = 10 * time.Minute
	defaultRetryDelay    = 30 * time.Second
	defaultMaxRetryDelay = 30 * time.Minute
	defaultInterval      = 15 * time.Minute
	maxHistorySize       = 100
)

// Syncer runs one synchronization. SyncService implements it.
type Syncer interface {
	Sync(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, entity integration.EntityType, opts integration.FetchOptions) (*integration.SyncSummary, error)
}

// ScheduledJob is a periodic sync of one key
type ScheduledJob struct {
	Key      JobKey
	Interval time.Duration
}

// ScheduledJobsFromConfig parses the configured periodic syncs
func ScheduledJobsFromConfig(entries []config.ScheduledSync) ([]ScheduledJob, error) {
	var (
		jobs []ScheduledJob
		errs error
	)
	for i, e := range entries {
		hotelID, err := uuid.Parse(e.HotelID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("job %d: hotel_id: %w", i, err))
			continue
		}
		provider, err := integration.ParseProviderKey(e.Provider)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("job %d: %w", i, err))
			continue
		}
		entity, err := integration.ParseEntityType(e.Entity)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("job %d: %w", i, err))
			continue
		}
		interval := e.Interval
		if interval <= 0 {
			interval = defaultInterval
		}
		jobs = append(jobs, ScheduledJob{
			Key:      JobKey{HotelID: hotelID, Provider: provider, Entity: entity},
			Interval: interval,
		})
	}
	return jobs, errs
}

// SyncSchedulerConfig holds configuration for the sync scheduler
type SyncSchedulerConfig struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Jobs          []ScheduledJob
}

// DefaultSyncSchedulerConfig returns the default scheduler configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Workers:       defaultWorkers,
		QueueSize:     defaultQueueSize,
		JobTimeout:    defaultJobTimeout,
		MaxRetries:    3,
		RetryDelay:    defaultRetryDelay,
		MaxRetryDelay: defaultMaxRetryDelay,
	}
}

// NewSyncSchedulerConfig builds the scheduler configuration from application config
func NewSyncSchedulerConfig(cfg config.SchedulerConfig) (SyncSchedulerConfig, error) {
	out := DefaultSyncSchedulerConfig()
	if cfg.Workers > 0 {
		out.Workers = cfg.Workers
	}
	if cfg.JobTimeout > 0 {
		out.JobTimeout = cfg.JobTimeout
	}
	if cfg.RetryAttempts >= 0 {
		out.MaxRetries = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		out.RetryDelay = cfg.RetryDelay
	}
	if cfg.MaxRetryDelay > 0 {
		out.MaxRetryDelay = cfg.MaxRetryDelay
	}
	jobs, err := ScheduledJobsFromConfig(cfg.Jobs)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	out.Jobs = jobs
	return out, nil
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

type stopper interface {
	Stop() bool
}

// Option configures a SyncScheduler
type Option func(*SyncScheduler)

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(s *SyncScheduler) { s.clock = clock }
}

// SyncScheduler runs PMS syncs on a bounded worker pool, on a fixed interval
// per configured key and on demand. Failed jobs are retried with capped
// exponential backoff. At most one job per key is queued or running.
type SyncScheduler struct {
	syncer Syncer
	config SyncSchedulerConfig
	logger *zap.Logger

	clock     func() time.Time
	newTicker func(time.Duration) ticker
	afterFunc func(time.Duration, func()) stopper

	jobs chan *SyncJob

	mu          sync.Mutex
	isRunning   bool
	cancel      context.CancelFunc
	inFlight    map[JobKey]bool
	lastSuccess map[JobKey]time.Time
	retries     map[uuid.UUID]stopper
	history     []SyncJob

	wg sync.WaitGroup
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(syncer Syncer, cfg SyncSchedulerConfig, logger *zap.Logger, opts ...Option) (*SyncScheduler, error) {
	if syncer == nil {
		return nil, fmt.Errorf("%w: syncer is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultSyncSchedulerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = max(def.MaxRetryDelay, cfg.RetryDelay)
	}

	s := &SyncScheduler{
		syncer: syncer,
		config: cfg,
		logger: logger.Named("sync-scheduler"),
		clock:  time.Now,
		newTicker: func(d time.Duration) ticker {
			return timeTicker{time.NewTicker(d)}
		},
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		jobs:        make(chan *SyncJob, cfg.QueueSize),
		inFlight:    make(map[JobKey]bool),
		lastSuccess: make(map[JobKey]time.Time),
		retries:     make(map[uuid.UUID]stopper),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start starts the worker pool and the periodic triggers
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true

	for i := range s.config.Workers {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	for _, job := range s.config.Jobs {
		s.wg.Add(1)
		go s.trigger(ctx, job)
	}

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("scheduled_jobs", len(s.config.Jobs)),
	)
	return nil
}

// Stop stops the scheduler and waits for running jobs until ctx ends.
// Pending retries are dropped.
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	for id, timer := range s.retries {
		timer.Stop()
		delete(s.retries, id)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.drain()
		s.logger.Info("Sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// drain discards queued jobs that no worker picked up
func (s *SyncScheduler) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		select {
		case job := <-s.jobs:
			delete(s.inFlight, job.JobKey)
		default:
			return
		}
	}
}

// IsRunning returns whether the scheduler is running
func (s *SyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Submit queues a sync for key. The fetch is incremental from the start of
// the last fully successful run of the same key.
func (s *SyncScheduler) Submit(key JobKey) (*SyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil, ErrSchedulerNotRunning
	}
	if s.inFlight[key] {
		return nil, ErrSyncInProgress
	}

	job := NewSyncJob(key, s.lastSuccess[key], s.config.MaxRetries)
	snapshot := *job
	select {
	case s.jobs <- job:
		s.inFlight[key] = true
		return &snapshot, nil
	default:
		return nil, ErrJobQueueFull
	}
}

// GetJobHistory returns finished attempts, most recent last
func (s *SyncScheduler) GetJobHistory() []SyncJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SyncJob, len(s.history))
	copy(out, s.history)
	return out
}

// LastSuccess returns the start time of the last fully successful run of key
func (s *SyncScheduler) LastSuccess(key JobKey) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastSuccess[key]
	return t, ok
}

func (s *SyncScheduler) trigger(ctx context.Context, job ScheduledJob) {
	defer s.wg.Done()

	t := s.newTicker(job.Interval)
	defer t.Stop()

	s.submitScheduled(job.Key)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			s.submitScheduled(job.Key)
		}
	}
}

func (s *SyncScheduler) submitScheduled(key JobKey) {
	_, err := s.Submit(key)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		s.logger.Debug("Skipping scheduled sync, previous run still in flight", zap.Stringer("key", key))
	case errors.Is(err, ErrSchedulerNotRunning):
	default:
		s.logger.Warn("Failed to queue scheduled sync", zap.Stringer("key", key), zap.Error(err))
	}
}

func (s *SyncScheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	s.logger.Debug("Worker started", zap.Int("worker_id", id))
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Worker stopping", zap.Int("worker_id", id))
			return
		case job := <-s.jobs:
			s.execute(ctx, job)
		}
	}
}

func (s *SyncScheduler) execute(ctx context.Context, job *SyncJob) {
	log := s.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("hotel_id", job.HotelID.String()),
		zap.String("provider", job.Provider.String()),
		zap.String("entity", job.Entity.String()),
		zap.Int("retry", job.RetryCount),
	)

	job.Start(s.clock())
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	summary, err := s.syncer.Sync(jobCtx, job.HotelID, job.Provider, job.Entity, integration.FetchOptions{UpdatedSince: job.UpdatedSince})
	cancel()

	now := s.clock()
	switch {
	case err != nil:
		if summary != nil {
			job.SyncID = summary.SyncID
			job.Processed = summary.Processed
			job.Failed = summary.Failed
		}
		job.Fail(err, now)
		log.Warn("Sync job failed", zap.Error(err))
	case summary == nil:
		job.Fail(errors.New("sync returned no summary"), now)
		log.Warn("Sync job failed", zap.String("error", job.Error))
	default:
		job.Complete(summary, now)
		log.Info("Sync job finished",
			zap.String("status", string(job.Status)),
			zap.String("sync_id", job.SyncID),
			zap.Int("processed", job.Processed),
			zap.Int("failed", job.Failed),
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendHistory(job)

	if job.Status == SyncJobStatusSuccess {
		s.lastSuccess[job.JobKey] = *job.StartedAt
	}

	if !job.ShouldRetry() || !retryable(err) || !s.isRunning || ctx.Err() != nil {
		delete(s.inFlight, job.JobKey)
		return
	}

	delay := job.ScheduleRetry(s.config.RetryDelay, s.config.MaxRetryDelay, now)
	log.Info("Sync job scheduled for retry", zap.Duration("delay", delay), zap.Int("attempt", job.RetryCount))
	s.retries[job.ID] = s.afterFunc(delay, func() { s.requeue(job) })
}

func (s *SyncScheduler) requeue(job *SyncJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, pending := s.retries[job.ID]; !pending {
		return
	}
	delete(s.retries, job.ID)
	if !s.isRunning {
		delete(s.inFlight, job.JobKey)
		return
	}

	select {
	case s.jobs <- job:
	default:
		s.logger.Warn("Dropping sync retry, job queue is full",
			zap.String("job_id", job.ID.String()),
			zap.Stringer("key", job.JobKey),
		)
		job.Fail(ErrJobQueueFull, s.clock())
		s.appendHistory(job)
		delete(s.inFlight, job.JobKey)
	}
}

// appendHistory must be called with mu held
func (s *SyncScheduler) appendHistory(job *SyncJob) {
	s.history = append(s.history, *job)
	if len(s.history) > maxHistorySize {
		s.history = s.history[len(s.history)-maxHistorySize:]
	}
}

// retryable reports whether another attempt could succeed. Bad input and
// unsupported operations fail the same way every time.
func retryable(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, integration.ErrInvalidHotelID) ||
		errors.Is(err, integration.ErrInvalidEntityType) ||
		errors.Is(err, integration.ErrInvalidProvider) {
		return false
	}
	for _, code := range []string{
		integration.CodeProviderNotSupported,
		integration.CodeBookingsNotSupported,
		integration.CodeRoomsNotSupported,
		integration.CodeGuestsNotSupported,
	} {
		if integration.IsCode(err, code) {
			return false
		}
	}
	return true
}
