package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

// Job is one staged file waiting for the pipeline. Path is owned by the
// pipeline once enqueued and is removed after processing.
type Job struct {
	Path        string
	Name        string // original file name, for reporting
	SubmittedAt time.Time
	TraceID     string
}

// Result pairs a job with the record the pipeline produced for it.
type Result struct {
	Job     Job
	Record  llm.Record
	Elapsed time.Duration
}

// Processor is satisfied by the pipeline orchestrator.
type Processor interface {
	Process(ctx context.Context, path string) llm.Record
}

var ErrQueueClosed = errors.New("queue is shutting down")

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
