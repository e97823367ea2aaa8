package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/dlmm-orders/internal/execution"
	"github.com/wonny/dlmm-orders/internal/scheduler"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// MonitorHandler exposes the stop-loss monitor and maintenance jobs
type MonitorHandler struct {
	monitor   *execution.Monitor
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

// NewMonitorHandler creates a new monitor handler; scheduler may be nil
func NewMonitorHandler(monitor *execution.Monitor, sched *scheduler.Scheduler, log *logger.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitor:   monitor,
		scheduler: sched,
		logger:    log,
	}
}

// Status returns the last tick report
// GET /api/monitor
func (h *MonitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	report, ok := h.monitor.LastReport()
	if !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{"ticked": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticked": true,
		"report": report,
	})
}

// Tick runs one evaluation pass now
// POST /api/monitor/tick
func (h *MonitorHandler) Tick(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.monitor.Tick(r.Context()))
}

// Jobs returns maintenance job statistics
// GET /api/jobs
func (h *MonitorHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": map[string]scheduler.JobStats{}})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": h.scheduler.GetJobStats()})
}

// RunJob runs a maintenance job immediately
// POST /api/jobs/{name}/run
func (h *MonitorHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusNotFound, "Scheduler is not running")
		return
	}

	name := mux.Vars(r)["name"]
	result, err := h.scheduler.RunJob(name)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to run job")
		respondError(w, http.StatusInternalServerError, "Failed to run job")
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, result)
}
