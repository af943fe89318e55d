package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/ports/services"
)

const (
	workerConsumer = "market-cap-worker"

	// Fetch jobs walk the whole ticker universe against a rate-limited
	// provider, so a job can legitimately run for many minutes.
	workerAckWait = 30 * time.Minute
)

// ReportWriter writes job artifacts to the output directory and returns the
// written path.
type ReportWriter interface {
	WriteMarketCapCSV(entries []domain.MarketCapEntry, date time.Time) (string, error)
	WriteComparisonCSV(comparison *domain.Comparison) (string, error)
	WriteComparisonSummary(comparison *domain.Comparison) (string, error)
}

// Worker consumes submitted jobs and executes them against the fetch and
// comparison services, publishing tracking updates as it goes.
type Worker struct {
	queue         *Queue
	marketCapSvc  services.MarketCapFetcherSvc
	comparisonSvc services.ComparisonSvcFacade
	reporter      ReportWriter
	logger        *slog.Logger
}

// NewWorker creates a worker bound to the given queue and services.
func NewWorker(
	queue *Queue,
	marketCapSvc services.MarketCapFetcherSvc,
	comparisonSvc services.ComparisonSvcFacade,
	reporter ReportWriter,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		queue:         queue,
		marketCapSvc:  marketCapSvc,
		comparisonSvc: comparisonSvc,
		reporter:      reporter,
		logger:        logger,
	}
}

// Run consumes jobs until ctx is cancelled. Messages are acked on receipt; a
// failed job reports through its tracking subjects instead of redelivery.
func (w *Worker) Run(ctx context.Context) error {
	stream, err := w.queue.js.Stream(ctx, submitStream)
	if err != nil {
		return fmt.Errorf("looking up stream %s: %w", submitStream, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       workerConsumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       workerAckWait,
		FilterSubject: submitSubjects,
	})
	if err != nil {
		return fmt.Errorf("creating consumer %s: %w", workerConsumer, err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := msg.Ack(); err != nil {
			w.logger.Warn("Acking job message failed", slog.String("error", err.Error()))
		}

		var request Request
		if err := json.Unmarshal(msg.Data(), &request); err != nil {
			w.logger.Error("Dropping malformed job request",
				slog.String("subject", msg.Subject()),
				slog.String("error", err.Error()),
			)
			return
		}

		w.process(ctx, request)
	})
	if err != nil {
		return fmt.Errorf("starting consumer: %w", err)
	}
	defer consumeCtx.Stop()

	w.logger.InfoContext(ctx, "Worker consuming jobs",
		slog.String("stream", submitStream),
		slog.String("consumer", workerConsumer),
	)
	<-ctx.Done()
	return nil
}

func (w *Worker) process(ctx context.Context, request Request) {
	logger := w.logger.With(
		slog.String("job_id", request.JobID),
		slog.String("job_type", string(request.Type)),
	)
	logger.InfoContext(ctx, "Job started")

	var (
		outputFiles []string
		err         error
	)
	switch request.Type {
	case TypeFetchMarketCaps:
		outputFiles, err = w.runFetchMarketCaps(ctx, request)
	case TypeComparison:
		outputFiles, err = w.runComparison(ctx, request)
	default:
		err = fmt.Errorf("unknown job type %q", request.Type)
	}

	if err != nil {
		logger.ErrorContext(ctx, "Job failed", slog.String("error", err.Error()))
		w.publishFailure(request.JobID, err)
		return
	}

	logger.InfoContext(ctx, "Job completed", slog.Int("output_files", len(outputFiles)))
	if err := w.queue.PublishStatus(completedStatus(request.JobID)); err != nil {
		logger.Warn("Publishing completed status failed", slog.String("error", err.Error()))
	}
	if err := w.queue.PublishResult(successResult(request.JobID, outputFiles)); err != nil {
		logger.Warn("Publishing job result failed", slog.String("error", err.Error()))
	}
}

func (w *Worker) runFetchMarketCaps(ctx context.Context, request Request) ([]string, error) {
	date, err := parseJobDate(request.Parameters.Date)
	if err != nil {
		return nil, err
	}

	label := "latest"
	if date != nil {
		label = date.Format("2006-01-02")
	}
	w.publishStep(request.JobID, 1, fmt.Sprintf("Fetching market caps for %s", label))

	var entries []domain.MarketCapEntry
	if date == nil {
		entries, err = w.marketCapSvc.FetchAndStoreMarketCaps(ctx, w.progressFunc(request.JobID, 1))
	} else {
		entries, err = w.marketCapSvc.FetchAndStoreHistoricalMarketCaps(ctx, *date, w.progressFunc(request.JobID, 1))
	}
	if err != nil {
		return nil, err
	}

	w.publishStep(request.JobID, 2, "Writing market cap report")
	reportDate := time.Now().UTC()
	if date != nil {
		reportDate = *date
	}
	path, err := w.reporter.WriteMarketCapCSV(entries, reportDate)
	if err != nil {
		return nil, err
	}

	return []string{path}, nil
}

func (w *Worker) runComparison(ctx context.Context, request Request) ([]string, error) {
	fromDate, err := time.Parse("2006-01-02", request.Parameters.FromDate)
	if err != nil {
		return nil, fmt.Errorf("invalid from_date %q: %w", request.Parameters.FromDate, err)
	}
	toDate, err := time.Parse("2006-01-02", request.Parameters.ToDate)
	if err != nil {
		return nil, fmt.Errorf("invalid to_date %q: %w", request.Parameters.ToDate, err)
	}

	w.publishStep(request.JobID, 1, fmt.Sprintf("Fetching market caps for %s", request.Parameters.FromDate))
	if _, err := w.marketCapSvc.FetchAndStoreHistoricalMarketCaps(ctx, fromDate, w.progressFunc(request.JobID, 1)); err != nil {
		return nil, fmt.Errorf("fetching market caps for %s: %w", request.Parameters.FromDate, err)
	}

	w.publishStep(request.JobID, 2, fmt.Sprintf("Fetching market caps for %s", request.Parameters.ToDate))
	if _, err := w.marketCapSvc.FetchAndStoreHistoricalMarketCaps(ctx, toDate, w.progressFunc(request.JobID, 2)); err != nil {
		return nil, fmt.Errorf("fetching market caps for %s: %w", request.Parameters.ToDate, err)
	}

	w.publishStep(request.JobID, 3, "Generating comparison report")
	comparison, err := w.comparisonSvc.Compare(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	csvPath, err := w.reporter.WriteComparisonCSV(comparison)
	if err != nil {
		return nil, err
	}
	summaryPath, err := w.reporter.WriteComparisonSummary(comparison)
	if err != nil {
		return nil, err
	}

	return []string{csvPath, summaryPath}, nil
}

func (w *Worker) publishFailure(jobID string, jobErr error) {
	if err := w.queue.PublishStatus(failedStatus(jobID, jobErr)); err != nil {
		w.logger.Warn("Publishing failed status failed", slog.String("error", err.Error()))
	}
	if err := w.queue.PublishResult(failedResult(jobID, jobErr)); err != nil {
		w.logger.Warn("Publishing job result failed", slog.String("error", err.Error()))
	}
}

// publishStep announces a step transition on both tracking subjects.
func (w *Worker) publishStep(jobID string, step int, message string) {
	if err := w.queue.PublishStatus(processingStatus(jobID, step, message)); err != nil {
		w.logger.Warn("Publishing status failed", slog.String("error", err.Error()))
	}
	if err := w.queue.PublishProgress(Progress{
		JobID:     jobID,
		Step:      step,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		w.logger.Warn("Publishing progress failed", slog.String("error", err.Error()))
	}
}

func (w *Worker) progressFunc(jobID string, step int) services.ProgressFunc {
	return func(current, total int, ticker string) {
		if err := w.queue.PublishProgress(Progress{
			JobID:     jobID,
			Step:      step,
			Message:   fmt.Sprintf("Processed %s", ticker),
			Current:   current,
			Total:     total,
			Ticker:    ticker,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			w.logger.Warn("Publishing progress failed", slog.String("error", err.Error()))
		}
	}
}

// parseJobDate interprets an optional "2006-01-02" parameter. Empty means
// fetch current data.
func parseJobDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return &date, nil
}
