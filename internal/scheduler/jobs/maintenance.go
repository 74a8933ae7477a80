package jobs

import (
	"context"
	"time"

	"github.com/wonny/sycamore/backend/pkg/logger"
)

// DecisionPruner deletes audit decisions older than a cutoff (audit.Repository)
type DecisionPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRetentionJob removes audit decisions past the retention window
type AuditRetentionJob struct {
	store     DecisionPruner
	retention time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewAuditRetentionJob creates a new audit retention job
func NewAuditRetentionJob(store DecisionPruner, retention time.Duration, log *logger.Logger) *AuditRetentionJob {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditRetentionJob{
		store:     store,
		retention: retention,
		logger:    log,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *AuditRetentionJob) Name() string {
	return "audit_retention"
}

// Schedule returns the cron schedule (daily 03:30)
func (j *AuditRetentionJob) Schedule() string {
	return "0 30 3 * * *"
}

// Run deletes expired decisions
func (j *AuditRetentionJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		return nil
	}

	cutoff := j.now().UTC().Add(-j.retention)
	j.logger.WithField("cutoff", cutoff.Format(time.RFC3339)).Debug("Starting audit retention")

	removed, err := j.store.Prune(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Audit retention completed")
	}
	return nil
}
