package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/jobs"
	"github.com/apparelmetrics/market_cap_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// jobsHandler submits background jobs and streams their progress over SSE.
type jobsHandler struct {
	queue *jobs.Queue
}

// newJobsHandler creates a new jobsHandler.
func newJobsHandler(queue *jobs.Queue) *jobsHandler {
	return &jobsHandler{
		queue: queue,
	}
}

// registerJobRoutes registers routes related to background jobs.
func registerJobRoutes(rg *gin.RouterGroup, queue *jobs.Queue) {
	h := newJobsHandler(queue)

	jobRoutes := rg.Group("/jobs")
	{
		jobRoutes.POST("", h.submitJob)
		jobRoutes.GET("/:id/events", h.streamJobEvents)
	}
}

// SubmitJobRequest defines the expected JSON body for submitting a job.
type SubmitJobRequest struct {
	Type     string `json:"type" binding:"required"`
	Date     string `json:"date,omitempty"`
	FromDate string `json:"fromDate,omitempty"`
	ToDate   string `json:"toDate,omitempty"`
}

// SubmitJobResponse carries the id of an accepted job.
type SubmitJobResponse struct {
	JobID  string `json:"jobID"`
	Status string `json:"status"`
}

// sseMessage is one server-sent event payload. Type is step, progress,
// success or error.
type sseMessage struct {
	Type        string       `json:"type"`
	Step        int          `json:"step,omitempty"`
	Message     string       `json:"message,omitempty"`
	Progress    *sseProgress `json:"progress,omitempty"`
	OutputFiles []string     `json:"outputFiles,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// sseProgress carries per-ticker progress inside a progress event.
type sseProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Ticker  string `json:"ticker,omitempty"`
}

// submitJob godoc
// @Summary Submit a background job
// @Description Queues a fetch-market-caps or comparison job. Track it via the events stream.
// @Tags jobs
// @Accept  json
// @Produce  json
// @Param   job body SubmitJobRequest true "Job parameters"
// @Success 202 {object} SubmitJobResponse
// @Failure 400 {object} ErrorResponse "Invalid job parameters"
// @Failure 500 {object} ErrorResponse "Failed to submit job"
// @Security BearerAuth
// @Router /jobs [post]
func (h *jobsHandler) submitJob(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	jobType, params, err := buildJobParameters(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	jobID, err := h.queue.Submit(c.Request.Context(), jobType, params)
	if err != nil {
		logger.Error("Failed to submit job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to submit job"})
		return
	}

	c.JSON(http.StatusAccepted, SubmitJobResponse{JobID: jobID, Status: string(jobs.StateQueued)})
}

// streamJobEvents godoc
// @Summary Stream job events
// @Description Streams step, progress and terminal events for a job as server-sent events. The stream ends when the job finishes or fails.
// @Tags jobs
// @Produce  text/event-stream
// @Param   id path string true "Job ID"
// @Success 200 {string} string "SSE stream"
// @Failure 500 {object} ErrorResponse "Failed to subscribe to job"
// @Security BearerAuth
// @Router /jobs/{id}/events [get]
func (h *jobsHandler) streamJobEvents(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	jobID := c.Param("id")

	watcher, err := h.queue.Watch(jobID)
	if err != nil {
		logger.Error("Failed to watch job", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to subscribe to job events"})
		return
	}
	defer watcher.Stop()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	logger.Info("Streaming job events", slog.String("job_id", jobID))

	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-watcher.Events():
			msg, done := translateJobEvent(event)
			if msg != nil {
				c.SSEvent("message", msg)
			}
			return !done
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// translateJobEvent maps a tracking event to its SSE payload. done reports
// whether the stream should terminate after sending.
func translateJobEvent(event jobs.Event) (msg *sseMessage, done bool) {
	switch {
	case event.Progress != nil:
		p := event.Progress
		if p.Total > 0 {
			return &sseMessage{
				Type:     "progress",
				Progress: &sseProgress{Current: p.Current, Total: p.Total, Ticker: p.Ticker},
			}, false
		}
		return &sseMessage{Type: "step", Step: p.Step, Message: p.Message}, false

	case event.Status != nil:
		// Only failures terminate here; normal lifecycle updates are
		// covered by the step events.
		if event.Status.State == jobs.StateFailed {
			return &sseMessage{Type: "error", Error: event.Status.Error}, true
		}
		return nil, false

	case event.Result != nil:
		r := event.Result
		if r.State == jobs.StateCompleted {
			return &sseMessage{
				Type:        "success",
				Message:     "Completed successfully!",
				OutputFiles: r.OutputFiles,
			}, true
		}
		return &sseMessage{Type: "error", Error: r.Error}, true
	}
	return nil, false
}

// buildJobParameters validates a submit request and shapes it into queue
// parameters.
func buildJobParameters(req SubmitJobRequest) (jobs.Type, jobs.Parameters, error) {
	switch jobs.Type(req.Type) {
	case jobs.TypeFetchMarketCaps:
		if req.Date != "" {
			if _, err := time.Parse("2006-01-02", req.Date); err != nil {
				return "", jobs.Parameters{}, fmt.Errorf("date %q is not a valid YYYY-MM-DD date", req.Date)
			}
		}
		return jobs.TypeFetchMarketCaps, jobs.Parameters{Date: req.Date}, nil

	case jobs.TypeComparison:
		if _, err := time.Parse("2006-01-02", req.FromDate); err != nil {
			return "", jobs.Parameters{}, fmt.Errorf("fromDate %q is not a valid YYYY-MM-DD date", req.FromDate)
		}
		if _, err := time.Parse("2006-01-02", req.ToDate); err != nil {
			return "", jobs.Parameters{}, fmt.Errorf("toDate %q is not a valid YYYY-MM-DD date", req.ToDate)
		}
		return jobs.TypeComparison, jobs.Parameters{FromDate: req.FromDate, ToDate: req.ToDate}, nil
	}
	return "", jobs.Parameters{}, fmt.Errorf("unknown job type %q, expected fetch-market-caps or comparison", req.Type)
}
