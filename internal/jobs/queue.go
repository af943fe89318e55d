package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	submitStream   = "JOBS_SUBMIT"
	trackingStream = "JOBS_TRACKING"

	submitSubjects = "jobs.submit.>"

	watchBuffer = 64
)

// Queue connects the application to NATS and owns the JetStream streams used
// for job submission and tracking.
type Queue struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// Connect dials NATS, ensures the job streams exist and returns the queue.
func Connect(ctx context.Context, natsURL string, logger *slog.Logger) (*Queue, error) {
	nc, err := nats.Connect(natsURL, nats.Name("market-cap-app"))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", natsURL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	q := &Queue{nc: nc, js: js, logger: logger}
	if err := q.ensureStreams(ctx); err != nil {
		nc.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "Connected to NATS", slog.String("url", natsURL))
	return q, nil
}

// Close drains the connection, letting in-flight messages flush.
func (q *Queue) Close() {
	if err := q.nc.Drain(); err != nil {
		q.logger.Warn("Draining NATS connection failed", slog.String("error", err.Error()))
	}
}

func (q *Queue) ensureStreams(ctx context.Context) error {
	if _, err := q.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        submitStream,
		Description: "Job submission queue",
		Subjects:    []string{submitSubjects},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      24 * time.Hour,
		MaxMsgs:     10000,
		Discard:     jetstream.DiscardOld,
	}); err != nil {
		return fmt.Errorf("creating stream %s: %w", submitStream, err)
	}

	if _, err := q.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:              trackingStream,
		Description:       "Job status and progress tracking",
		Subjects:          []string{"jobs.*.status", "jobs.*.progress", "jobs.*.result"},
		Retention:         jetstream.LimitsPolicy,
		MaxAge:            time.Hour,
		MaxMsgsPerSubject: 100,
		Discard:           jetstream.DiscardOld,
	}); err != nil {
		return fmt.Errorf("creating stream %s: %w", trackingStream, err)
	}

	return nil
}

// Submit publishes a job request and its initial queued status, returning the
// generated job id.
func (q *Queue) Submit(ctx context.Context, jobType Type, params Parameters) (string, error) {
	jobID := uuid.NewString()
	request := Request{
		JobID:       jobID,
		Type:        jobType,
		Parameters:  params,
		SubmittedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("encoding job request: %w", err)
	}

	if _, err := q.js.Publish(ctx, "jobs.submit."+string(jobType), payload); err != nil {
		return "", fmt.Errorf("publishing job %s: %w", jobID, err)
	}

	if err := q.PublishStatus(queuedStatus(jobID)); err != nil {
		return "", err
	}

	q.logger.InfoContext(ctx, "Job submitted",
		slog.String("job_id", jobID),
		slog.String("job_type", string(jobType)),
	)
	return jobID, nil
}

// PublishStatus publishes a lifecycle update for a job.
func (q *Queue) PublishStatus(status Status) error {
	return q.publishTracking(fmt.Sprintf("jobs.%s.status", status.JobID), status)
}

// PublishProgress publishes a progress update for a job.
func (q *Queue) PublishProgress(progress Progress) error {
	return q.publishTracking(fmt.Sprintf("jobs.%s.progress", progress.JobID), progress)
}

// PublishResult publishes the terminal result for a job.
func (q *Queue) PublishResult(result Result) error {
	return q.publishTracking(fmt.Sprintf("jobs.%s.result", result.JobID), result)
}

// publishTracking uses a core publish so tracking stays low-latency; the
// tracking stream captures these subjects for short-lived replay.
func (q *Queue) publishTracking(subject string, message any) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encoding message for %s: %w", subject, err)
	}
	if err := q.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Event is one decoded message from a job's tracking subjects. Exactly one
// field is non-nil.
type Event struct {
	Status   *Status
	Progress *Progress
	Result   *Result
}

// Watcher delivers tracking events for a single job.
type Watcher struct {
	sub    *nats.Subscription
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Watch subscribes to every tracking subject of one job. Callers must call
// Stop when finished.
func (q *Queue) Watch(jobID string) (*Watcher, error) {
	w := &Watcher{
		events: make(chan Event, watchBuffer),
		done:   make(chan struct{}),
	}

	sub, err := q.nc.Subscribe(fmt.Sprintf("jobs.%s.*", jobID), func(msg *nats.Msg) {
		event, ok := decodeTrackingMessage(msg)
		if !ok {
			q.logger.Warn("Dropping malformed tracking message", slog.String("subject", msg.Subject))
			return
		}
		select {
		case w.events <- event:
		case <-w.done:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to job %s: %w", jobID, err)
	}

	w.sub = sub
	return w, nil
}

// Events returns the channel events are delivered on. The channel is never
// closed; receivers should also select on their context.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop unsubscribes and unblocks any pending delivery.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		_ = w.sub.Unsubscribe()
		close(w.done)
	})
}

func decodeTrackingMessage(msg *nats.Msg) (Event, bool) {
	switch {
	case strings.HasSuffix(msg.Subject, ".status"):
		var status Status
		if err := json.Unmarshal(msg.Data, &status); err != nil {
			return Event{}, false
		}
		return Event{Status: &status}, true
	case strings.HasSuffix(msg.Subject, ".progress"):
		var progress Progress
		if err := json.Unmarshal(msg.Data, &progress); err != nil {
			return Event{}, false
		}
		return Event{Progress: &progress}, true
	case strings.HasSuffix(msg.Subject, ".result"):
		var result Result
		if err := json.Unmarshal(msg.Data, &result); err != nil {
			return Event{}, false
		}
		return Event{Result: &result}, true
	}
	return Event{}, false
}
