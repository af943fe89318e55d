package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHelpers(t *testing.T) {
	queued := queuedStatus("job-1")
	assert.Equal(t, "job-1", queued.JobID)
	assert.Equal(t, StateQueued, queued.State)
	assert.False(t, queued.UpdatedAt.IsZero())

	processing := processingStatus("job-1", 2, "Writing market cap report")
	assert.Equal(t, StateProcessing, processing.State)
	assert.Equal(t, 2, processing.Step)
	assert.Equal(t, "Writing market cap report", processing.Message)

	failed := failedStatus("job-1", errors.New("provider unavailable"))
	assert.Equal(t, StateFailed, failed.State)
	assert.Equal(t, "provider unavailable", failed.Error)
}

func TestResultHelpers(t *testing.T) {
	success := successResult("job-1", nil)
	assert.Equal(t, StateCompleted, success.State)
	assert.NotNil(t, success.OutputFiles, "Output files should encode as an empty array, not null")
	assert.Empty(t, success.OutputFiles)

	withFiles := successResult("job-1", []string{"output/report.csv"})
	assert.Equal(t, []string{"output/report.csv"}, withFiles.OutputFiles)

	failed := failedResult("job-1", errors.New("no data"))
	assert.Equal(t, StateFailed, failed.State)
	assert.Equal(t, "no data", failed.Error)
	assert.Empty(t, failed.OutputFiles)
}

func TestDecodeTrackingMessage(t *testing.T) {
	event, ok := decodeTrackingMessage(&nats.Msg{
		Subject: "jobs.abc.status",
		Data:    []byte(`{"job_id":"abc","status":"processing","current_step":1}`),
	})
	require.True(t, ok)
	require.NotNil(t, event.Status)
	assert.Equal(t, StateProcessing, event.Status.State)
	assert.Nil(t, event.Progress)
	assert.Nil(t, event.Result)

	event, ok = decodeTrackingMessage(&nats.Msg{
		Subject: "jobs.abc.progress",
		Data:    []byte(`{"job_id":"abc","step":1,"message":"Processed NKE","current":3,"total":6,"ticker":"NKE"}`),
	})
	require.True(t, ok)
	require.NotNil(t, event.Progress)
	assert.Equal(t, "NKE", event.Progress.Ticker)
	assert.Equal(t, 3, event.Progress.Current)

	event, ok = decodeTrackingMessage(&nats.Msg{
		Subject: "jobs.abc.result",
		Data:    []byte(`{"job_id":"abc","status":"completed","output_files":["output/report.csv"]}`),
	})
	require.True(t, ok)
	require.NotNil(t, event.Result)
	assert.Equal(t, StateCompleted, event.Result.State)
}

func TestDecodeTrackingMessage_Malformed(t *testing.T) {
	_, ok := decodeTrackingMessage(&nats.Msg{
		Subject: "jobs.abc.status",
		Data:    []byte(`not json`),
	})
	assert.False(t, ok)

	_, ok = decodeTrackingMessage(&nats.Msg{
		Subject: "jobs.abc.other",
		Data:    []byte(`{}`),
	})
	assert.False(t, ok, "Unknown tracking subjects should be dropped")
}

func TestParseJobDate(t *testing.T) {
	date, err := parseJobDate("")
	require.NoError(t, err)
	assert.Nil(t, date, "Empty date means fetch current data")

	date, err = parseJobDate("2025-05-01")
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), *date)

	_, err = parseJobDate("05/01/2025")
	assert.Error(t, err)
}
