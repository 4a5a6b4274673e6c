package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gofr.dev/pkg/gofr/logging"

	"github.com/REZ0AN/otel-tempo-workshop/internal/fileops"
	"github.com/REZ0AN/otel-tempo-workshop/internal/metrics"
	"github.com/REZ0AN/otel-tempo-workshop/internal/model"
	"github.com/REZ0AN/otel-tempo-workshop/internal/tracing"
)

// Span names of the io task steps, in execution order.
const (
	SpanHandler  = "io-tasks-handler"
	StepGenerate = "generate-random-content"
	StepEnsure   = "ensure-directory"
	StepWrite    = "write-file"
	StepRead     = "read-file"
	StepVerify   = "verify-content"
	StepDelete   = "delete-file"
)

const (
	successMessage = "File I/O operations completed successfully"
	failureError   = "File I/O operation failed"
)

// MismatchError is returned when the record read back from disk does not carry
// the id that was written.
type MismatchError struct {
	OriginalID string
	ReadID     string
}

func (*MismatchError) Error() string {
	return "Content verification failed"
}

// Operations reports which steps completed. It only appears in a successful
// response, so every field is true.
type Operations struct {
	Generated bool `json:"generated"`
	Written   bool `json:"written"`
	Read      bool `json:"read"`
	Verified  bool `json:"verified"`
	Deleted   bool `json:"deleted"`
}

type Metadata struct {
	Filename    string `json:"filename"`
	ContentID   string `json:"contentId"`
	ContentSize int    `json:"contentSize"`
	Timestamp   string `json:"timestamp"`
}

type SuccessResponse struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	Operations Operations `json:"operations"`
	Metadata   Metadata   `json:"metadata"`
	TraceID    string     `json:"traceId"`
}

type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	TraceID string `json:"traceId"`
}

// IOTasks runs the generate, write, read, verify and delete sequence, each
// step in its own span under one handler span.
type IOTasks struct {
	tracer  trace.Tracer
	store   fileops.Store
	dir     string
	logger  logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewIOTasks returns the io task handler writing its transient files to dir.
func NewIOTasks(tracer trace.Tracer, store fileops.Store, dir string, logger logging.Logger,
	m *metrics.Metrics) *IOTasks {
	return &IOTasks{
		tracer:  tracer,
		store:   store,
		dir:     dir,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

type taskResult struct {
	filename string
	content  *model.Content
	size     int
}

func (h *IOTasks) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), SpanHandler,
		trace.WithAttributes(attribute.String("operation.type", "file-operations")))
	defer span.End()

	traceID := span.SpanContext().TraceID().String()

	res, err := h.run(ctx)
	h.metrics.ObserveTask(err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		h.logger.Errorf("io task failed, traceID: %s, error: %v", traceID, err)

		writeJSON(w, http.StatusInternalServerError, FailureResponse{
			Success: false,
			Error:   failureError,
			Message: err.Error(),
			TraceID: traceID,
		})

		return
	}

	span.SetAttributes(
		attribute.Bool("operation.success", true),
		attribute.String("operation.file_processed", res.filename),
		attribute.String("operation.content_id", res.content.ID),
	)
	span.AddEvent("All file operations completed successfully")
	span.SetStatus(codes.Ok, "")

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: successMessage,
		Operations: Operations{
			Generated: true,
			Written:   true,
			Read:      true,
			Verified:  true,
			Deleted:   true,
		},
		Metadata: Metadata{
			Filename:    res.filename,
			ContentID:   res.content.ID,
			ContentSize: res.size,
			Timestamp:   h.now().UTC().Format(model.TimestampLayout),
		},
		TraceID: traceID,
	})
}

type generated struct {
	content *model.Content
	raw     []byte
}

// run executes the steps in order and stops at the first failure. Nothing is
// undone: a failure after the write leaves the file on disk.
func (h *IOTasks) run(ctx context.Context) (*taskResult, error) {
	gen, err := step(ctx, h, StepGenerate, func(_ context.Context, span trace.Span) (generated, error) {
		content, raw, err := model.Generate(h.now())
		if err != nil {
			return generated{}, err
		}

		span.SetAttributes(
			attribute.Int("content.size_bytes", len(raw)),
			attribute.String("content.id", content.ID),
		)

		return generated{content: content, raw: raw}, nil
	})
	if err != nil {
		return nil, err
	}

	filename, path := fileops.BuildFilePath(h.dir, gen.content.ID, h.now())
	dir := filepath.Dir(path)

	_, err = step(ctx, h, StepEnsure, func(ctx context.Context, span trace.Span) (struct{}, error) {
		if err := h.store.EnsureDir(ctx, dir); err != nil {
			return struct{}{}, err
		}

		span.SetAttributes(attribute.String("directory.path", dir))

		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}

	_, err = step(ctx, h, StepWrite, func(ctx context.Context, span trace.Span) (struct{}, error) {
		start := time.Now()

		if err := h.store.Write(ctx, path, gen.raw); err != nil {
			return struct{}{}, err
		}

		span.SetAttributes(
			attribute.String("file.path", path),
			attribute.String("file.operation", "write"),
			attribute.Int("file.size_bytes", len(gen.raw)),
			attribute.Int64("file.write.duration_ms", time.Since(start).Milliseconds()),
			attribute.Bool("file.write.success", true),
		)
		span.AddEvent("File written successfully")

		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}

	readBack, err := step(ctx, h, StepRead, func(ctx context.Context, span trace.Span) (*model.Content, error) {
		start := time.Now()

		raw, err := h.store.Read(ctx, path)
		if err != nil {
			return nil, err
		}

		parsed, err := model.Unmarshal(raw)
		if err != nil {
			return nil, err
		}

		span.SetAttributes(
			attribute.String("file.path", path),
			attribute.String("file.operation", "read"),
			attribute.Int64("file.read.duration_ms", time.Since(start).Milliseconds()),
			attribute.Int("file.read.size_bytes", len(raw)),
			attribute.Bool("file.read.success", true),
		)
		span.AddEvent("File read and parsed successfully")

		return parsed, nil
	})
	if err != nil {
		return nil, err
	}

	_, err = step(ctx, h, StepVerify, func(_ context.Context, span trace.Span) (struct{}, error) {
		matches := readBack.ID == gen.content.ID

		span.SetAttributes(
			attribute.Bool("verification.content_matches", matches),
			attribute.String("verification.original_id", gen.content.ID),
			attribute.String("verification.read_id", readBack.ID),
		)

		if !matches {
			return struct{}{}, &MismatchError{OriginalID: gen.content.ID, ReadID: readBack.ID}
		}

		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}

	_, err = step(ctx, h, StepDelete, func(ctx context.Context, span trace.Span) (struct{}, error) {
		start := time.Now()

		if err := h.store.Delete(ctx, path); err != nil {
			return struct{}{}, err
		}

		span.SetAttributes(
			attribute.String("file.path", path),
			attribute.String("file.operation", "delete"),
			attribute.Int64("file.delete.duration_ms", time.Since(start).Milliseconds()),
			attribute.Bool("file.delete.success", true),
		)
		span.AddEvent("File deleted successfully")

		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}

	return &taskResult{filename: filename, content: gen.content, size: len(gen.raw)}, nil
}

// step runs one traced step and records its duration.
func step[T any](ctx context.Context, h *IOTasks, name string, op tracing.Operation[T]) (T, error) {
	start := time.Now()

	res, err := tracing.Run(ctx, h.tracer, name, op)
	h.metrics.ObserveStep(name, time.Since(start), err)

	return res, err
}
