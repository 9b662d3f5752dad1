package speech

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	records    metric.Int64Counter
	duplicates metric.Int64Counter
	segments   metric.Int64Counter
	halts      metric.Int64Counter
}

func newMetrics(logger *slog.Logger) *metrics {
	meter := otel.Meter("github.com/panyeroa1/orbit-translator/internal/speech")
	m := &metrics{}
	var err error
	if m.records, err = meter.Int64Counter("orbit_records_ingested_total",
		metric.WithDescription("Source records accepted by the bridge")); err != nil {
		logger.Warn("failed to create counter", slog.String("error", err.Error()))
	}
	if m.duplicates, err = meter.Int64Counter("orbit_duplicates_suppressed_total",
		metric.WithDescription("Record deliveries suppressed by id dedup")); err != nil {
		logger.Warn("failed to create counter", slog.String("error", err.Error()))
	}
	if m.segments, err = meter.Int64Counter("orbit_segments_dispatched_total",
		metric.WithDescription("Segments dispatched to the voice session")); err != nil {
		logger.Warn("failed to create counter", slog.String("error", err.Error()))
	}
	if m.halts, err = meter.Int64Counter("orbit_drain_halts_total",
		metric.WithDescription("Drain loop halts with segments still queued")); err != nil {
		logger.Warn("failed to create counter", slog.String("error", err.Error()))
	}
	return m
}

func (m *metrics) recordIngested(ctx context.Context) {
	if m.records != nil {
		m.records.Add(ctx, 1)
	}
}

func (m *metrics) duplicateSuppressed(ctx context.Context) {
	if m.duplicates != nil {
		m.duplicates.Add(ctx, 1)
	}
}

func (m *metrics) segmentDispatched(ctx context.Context) {
	if m.segments != nil {
		m.segments.Add(ctx, 1)
	}
}

func (m *metrics) drainHalted(ctx context.Context) {
	if m.halts != nil {
		m.halts.Add(ctx, 1)
	}
}
