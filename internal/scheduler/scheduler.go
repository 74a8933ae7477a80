package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/sycamore/backend/pkg/logger"
)

// Options configures retry behaviour
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultOptions: 3회 재시도, 30초 간격
func DefaultOptions() Options {
	return Options{MaxRetries: 3, RetryDelay: 30 * time.Second}
}

// Scheduler manages scheduled jobs
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*jobHistory
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	maxRetries int
	retryDelay time.Duration
}

// New creates a new scheduler. Schedules use the six-field (seconds) cron format.
func New(log *logger.Logger, opts Options) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger:     log.Component("scheduler"),
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		history:    make(map[string]*jobHistory),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()

	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	s.jobs[jobName] = job
	s.entries[jobName] = id
	s.history[jobName] = &jobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobName]; !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.cron.Remove(s.entries[jobName])
	delete(s.jobs, jobName)
	delete(s.entries, jobName)
	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a specific job now, outside of its schedule, and waits for it
func (s *Scheduler) RunJob(jobName string) (JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("job %s not found", jobName)
	}

	return s.runJob(job), nil
}

// runJob executes a job with retry logic
func (s *Scheduler) runJob(job Job) JobResult {
	jobName := job.Name()
	startTime := time.Now()

	s.logger.WithField("job", jobName).Debug("Job started")

	var lastErr error
	success := false
	attempts := 0

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		attempts++
		err := job.Run(s.ctx)
		if err == nil {
			success = true
			break
		}

		lastErr = err
		s.logger.WithFields(map[string]interface{}{
			"job":     jobName,
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("Job execution failed, retrying")

		if attempt == s.maxRetries {
			break
		}
		select {
		case <-s.ctx.Done():
			attempt = s.maxRetries
		case <-time.After(s.retryDelay):
		}
	}

	result := JobResult{
		JobName:   jobName,
		StartTime: startTime,
		Duration:  time.Since(startTime),
		Attempts:  attempts,
		Success:   success,
	}
	if !success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if history, exists := s.history[jobName]; exists {
		history.add(result)
	}
	s.mu.Unlock()

	if success {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": result.Duration.String(),
		}).Info("Job completed successfully")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": result.Duration.String(),
			"error":    result.Error,
		}).Error("Job failed after all retries")
	}
	return result
}

// GetJobHistory returns a copy of the history for a specific job
func (s *Scheduler) GetJobHistory(jobName string) ([]JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	return history.snapshot(), nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)
	return jobs
}

// GetJobStats returns statistics for all registered jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.jobs))
	for jobName, job := range s.jobs {
		stats[jobName] = s.history[jobName].stats(jobName, job.Schedule())
	}
	return stats
}
