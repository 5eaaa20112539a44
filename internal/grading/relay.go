package grading

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/loqalabs/loqa-interview/internal/config"
	"github.com/loqalabs/loqa-interview/internal/llm"
)

const instrumentationName = "github.com/loqalabs/loqa-interview/grading"

// Status classifies a grading outcome.
type Status int

const (
	StatusOK Status = iota
	StatusInvalid
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalid:
		return "invalid"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the outcome onto the response code of the HTTP surface.
func (s Status) HTTPStatus() int {
	switch s {
	case StatusOK:
		return http.StatusOK
	case StatusInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Result is what Grade hands back. Feedback is always well formed when Status
// is StatusOK or StatusFailed; Cause is kept for logging only.
type Result struct {
	RequestID string
	Feedback  Feedback
	Status    Status
	Cause     error
}

// Relay forwards a question/answer pair to a language model and normalizes
// the reply.
type Relay struct {
	generator llm.Generator
	defaults  llm.Request
	timeout   time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer
	requests  metric.Int64Counter
	latency   metric.Float64Histogram
	newID     func() string
}

func NewRelay(generator llm.Generator, cfg config.LLMConfig, logger *slog.Logger) *Relay {
	r := &Relay{
		generator: generator,
		defaults:  llm.OptionsFromConfig(cfg),
		timeout:   time.Duration(cfg.TimeoutMS) * time.Millisecond,
		logger:    logger.With(slog.String("component", "grading-relay")),
		tracer:    otel.Tracer(instrumentationName),
		newID:     uuid.NewString,
	}
	r.defaults.System = SystemPrompt()
	r.defaults.JSON = true
	if err := r.initMetrics(); err != nil {
		r.logger.Warn("failed to initialize metrics", slogError(err))
	}
	return r
}

func (r *Relay) initMetrics() error {
	meter := otel.Meter(instrumentationName)
	requests, err := meter.Int64Counter("interview.grading.requests",
		metric.WithDescription("Grading requests by outcome"))
	if err != nil {
		return err
	}
	latency, err := meter.Float64Histogram("interview.grading.latency_ms",
		metric.WithDescription("Grading round-trip latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return err
	}
	r.requests = requests
	r.latency = latency
	return nil
}

// Grade never returns a Go error: validation problems yield StatusInvalid and
// every upstream failure yields the Fallback feedback with StatusFailed.
func (r *Relay) Grade(ctx context.Context, question, answer string) (res Result) {
	res.RequestID = r.newID()
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "grading.grade", trace.WithAttributes(
		attribute.String("request.id", res.RequestID),
		attribute.Int("answer.length", len(answer)),
	))
	defer func() {
		if rec := recover(); rec != nil {
			res.Feedback = Fallback()
			res.Status = StatusFailed
			res.Cause = fmt.Errorf("grading panic: %v", rec)
		}
		r.finish(ctx, span, res, time.Since(start))
	}()

	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		res.Status = StatusInvalid
		res.Cause = ErrMissingData
		return res
	}

	feedback, err := r.call(ctx, res.RequestID, question, answer)
	if err != nil {
		res.Feedback = Fallback()
		res.Status = StatusFailed
		res.Cause = err
		return res
	}
	res.Feedback = feedback
	res.Status = StatusOK
	return res
}

func (r *Relay) call(ctx context.Context, requestID, question, answer string) (Feedback, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	req := r.defaults
	req.RequestID = requestID
	req.Prompt = UserPrompt(question, answer)

	completion, err := llm.Collect(ctx, r.generator, req)
	if err != nil {
		return Feedback{}, fmt.Errorf("generate: %w", err)
	}
	feedback, err := ParseFeedback(completion.Content)
	if err != nil {
		return Feedback{}, err
	}
	r.logger.Debug("model reply parsed",
		slog.String("request_id", requestID),
		slog.Int("prompt_tokens", completion.PromptTokens),
		slog.Int("completion_tokens", completion.CompletionTokens))
	return feedback, nil
}

func (r *Relay) finish(ctx context.Context, span trace.Span, res Result, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", res.Status.String()))
	if r.requests != nil {
		r.requests.Add(ctx, 1, attrs)
	}
	if r.latency != nil {
		r.latency.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	}
	span.SetAttributes(attribute.String("grading.status", res.Status.String()))

	switch res.Status {
	case StatusOK:
		span.SetAttributes(attribute.Int("grading.rating", res.Feedback.Rating))
		r.logger.Info("answer graded",
			slog.String("request_id", res.RequestID),
			slog.Int("rating", res.Feedback.Rating),
			slog.Duration("latency", elapsed))
	case StatusInvalid:
		span.SetStatus(codes.Error, "invalid input")
		r.logger.Info("grading request rejected",
			slog.String("request_id", res.RequestID),
			slogError(res.Cause))
	default:
		span.RecordError(res.Cause)
		span.SetStatus(codes.Error, "grading failed")
		r.logger.Error("grading failed",
			slog.String("request_id", res.RequestID),
			slog.Duration("latency", elapsed),
			slogError(res.Cause))
	}
	span.End()
}

func slogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
