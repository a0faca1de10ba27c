package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "kanban-api/api"
	boardSpanName    = "kanban.board.request"
	boardEventName   = "board.request"
	boardEventDomain = "kanban"
	boardRoute       = "/api/kanban/boards/:startupId"
)

// boardRequestMetrics collects timings for the expanded board read and emits
// them both as a span and as a structured observability log entry carrying
// the trace id.
type boardRequestMetrics struct {
	logger          *log.Logger
	span            trace.Span
	start           time.Time
	fetchDuration   time.Duration
	encodeDuration  time.Duration
	columnsReturned int
	tasksReturned   int
	errorStage      string
}

func newBoardRequestMetrics(ctx context.Context, logger *log.Logger) (*boardRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, boardSpanName)
	return &boardRequestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
	}, spanCtx
}

func (m *boardRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *boardRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *boardRequestMetrics) SetColumnsReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.columnsReturned = count
}

func (m *boardRequestMetrics) SetTasksReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *boardRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log finalizes the span and writes the observability event.
func (m *boardRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	totalMs := durationToMillis(time.Since(m.start))
	attrs := []attribute.KeyValue{
		attribute.String("http.route", boardRoute),
		attribute.Int("http.status_code", status),
		attribute.Float64("kanban.board.total_ms", totalMs),
		attribute.Int("kanban.board.columns_returned", m.columnsReturned),
		attribute.Int("kanban.board.tasks_returned", m.tasksReturned),
	}
	if m.fetchDuration > 0 {
		attrs = append(attrs, attribute.Float64("kanban.board.fetch_ms", durationToMillis(m.fetchDuration)))
	}
	if m.encodeDuration > 0 {
		attrs = append(attrs, attribute.Float64("kanban.board.encode_ms", durationToMillis(m.encodeDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("kanban.board.error_stage", m.errorStage))
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		if err != nil {
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		} else if status < 400 {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.AddEvent("observability.event")
		m.span.End()
	}

	if m.logger == nil {
		return
	}

	logged := map[string]any{
		"http.route":                    boardRoute,
		"kanban.board.total_ms":         totalMs,
		"kanban.board.columns_returned": m.columnsReturned,
		"kanban.board.tasks_returned":   m.tasksReturned,
	}
	if m.fetchDuration > 0 {
		logged["kanban.board.fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.encodeDuration > 0 {
		logged["kanban.board.encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		logged["kanban.board.error_stage"] = m.errorStage
	}

	fields := log.Fields{
		"event.name":   boardEventName,
		"event.domain": boardEventDomain,
		"status":       status,
		"attributes":   logged,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("observability.event")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
