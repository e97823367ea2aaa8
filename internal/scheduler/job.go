package scheduler

import (
	"context"
	"time"
)

// Job is a maintenance task run on a cron schedule (order retention, ...)
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name identifies the job in logs, history and `scheduler run <name>`
	Name() string

	// Run performs one pass; a returned error marks the run failed
	Run(ctx context.Context) error

	// Schedule is a six-field cron expression, seconds first ("0 0 * * * *" = hourly)
	Schedule() string
}

// JobResult is the outcome of one run, as served by GET /api/jobs
type JobResult struct {
	JobName   string        `json:"jobName"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory bounds the runs kept per job
const maxHistory = 100

// JobHistory is a bounded, oldest-first log of a job's runs
type JobHistory struct {
	Results []JobResult
}

// AddResult appends result, dropping the oldest run past maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if overflow := len(h.Results) - maxHistory; overflow > 0 {
		h.Results = h.Results[overflow:]
	}
}

// GetLatestResults returns up to n most recent runs, oldest first
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	n = min(n, len(h.Results))
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// GetFailedResults returns the failed runs still in history
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, r := range h.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// GetSuccessRate is the fraction of kept runs that succeeded; 0 with no runs
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	failed := len(h.GetFailedResults())
	return float64(len(h.Results)-failed) / float64(len(h.Results))
}
