package scheduler

import (
	"context"
	"time"
)

// Job is a unit of background work run on a cron schedule
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule is a six-field cron spec (seconds first) or a descriptor,
	// e.g. "0 */15 * * * *", "@every 1h"
	Schedule() string
}

// JobResult records one execution, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory: 작업별 최근 실행 기록 보관 개수
const maxHistory = 50

// jobHistory keeps the last maxHistory results of one job
type jobHistory struct {
	results []JobResult
}

func (h *jobHistory) add(r JobResult) {
	h.results = append(h.results, r)
	if over := len(h.results) - maxHistory; over > 0 {
		h.results = append(h.results[:0], h.results[over:]...)
	}
}

func (h *jobHistory) snapshot() []JobResult {
	out := make([]JobResult, len(h.results))
	copy(out, h.results)
	return out
}

// stats summarises the retained results
func (h *jobHistory) stats(name, schedule string) JobStats {
	st := JobStats{JobName: name, Schedule: schedule, TotalRuns: len(h.results)}
	for _, r := range h.results {
		if r.Success {
			st.SuccessCount++
		} else {
			st.FailureCount++
		}
	}
	if st.TotalRuns > 0 {
		st.SuccessRate = float64(st.SuccessCount) / float64(st.TotalRuns)

		last := h.results[len(h.results)-1]
		st.LastRun = &last.StartTime
		st.LastError = last.Error
	}
	return st
}

// JobStats summarises the retained history of a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}
