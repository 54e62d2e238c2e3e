package replay

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sift/internal/archive"
	"github.com/fyrsmithlabs/sift/internal/patch"
)

const instrumentationName = "github.com/fyrsmithlabs/sift/internal/replay"

// ErrEmptyChain reports a reconstruction attempt over an empty entry list.
var ErrEmptyChain = errors.New("entry chain is empty")

// Walker rebuilds document text as of an arbitrary past instant.
type Walker struct {
	engine patch.Engine
	logger *zap.Logger

	tracer        trace.Tracer
	meter         metric.Meter
	patchFailures metric.Int64Counter
}

// NewWalker creates a walker over the given patch engine.
func NewWalker(engine patch.Engine, logger *zap.Logger) (*Walker, error) {
	if engine == nil {
		return nil, errors.New("patch engine is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Walker{
		engine: engine,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	w.initMetrics()
	return w, nil
}

func (w *Walker) initMetrics() {
	var err error
	w.patchFailures, err = w.meter.Int64Counter(
		"sift.replay.patch_failures_total",
		metric.WithDescription("Deltas that did not apply cleanly during reconstruction"),
		metric.WithUnit("{delta}"),
	)
	if err != nil {
		w.logger.Warn("failed to create patch failure counter", zap.Error(err))
	}
}

// Reconstruct returns the document text as of thresholdMs.
//
// entries must be non-empty and ascending by timestamp; latestSnapshotText is
// the payload of the newest entry. The cursor starts at the newest entry and
// steps older until the accumulated state's own timestamp is at or before the
// threshold. An interior full snapshot is adopted verbatim as the state at
// its instant, even when that instant is still after the threshold; deltas
// are applied through the engine, keeping best-effort text on failed hunks.
//
// A threshold older than the earliest entry yields empty text: the document
// is presumed not to have existed that far back. Cancellation is checked
// between entries; a cancelled walk returns the context error and no text.
func (w *Walker) Reconstruct(ctx context.Context, entries []archive.Entry, thresholdMs int64, latestSnapshotText string) (string, error) {
	if len(entries) == 0 {
		return "", ErrEmptyChain
	}

	ctx, span := w.tracer.Start(ctx, "replay.reconstruct")
	defer span.End()
	span.SetAttributes(
		attribute.Int("entry_count", len(entries)),
		attribute.Int64("threshold_ms", thresholdMs),
	)

	accumulator := latestSnapshotText
	cursor := len(entries) - 1

	for entries[cursor].TimestampMs > thresholdMs {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("reconstruction cancelled: %w", err)
		}
		if cursor == 0 {
			// Threshold predates the earliest checkpoint.
			span.SetAttributes(attribute.Bool("before_earliest", true))
			return "", nil
		}

		older := entries[cursor-1]
		if older.Full {
			accumulator = older.Payload
		} else {
			accumulator = w.applyDelta(ctx, older, accumulator)
		}
		cursor--
	}

	span.SetAttributes(attribute.Int64("reconstructed_at_ms", entries[cursor].TimestampMs))
	return accumulator, nil
}

// applyDelta applies one reverse delta, absorbing failures.
// The walk must always terminate with some text, so an undecodable delta
// keeps the current accumulator and a partially applied one keeps the
// engine's best-effort output.
func (w *Walker) applyDelta(ctx context.Context, e archive.Entry, text string) string {
	patched, applied, err := w.engine.Apply(e.Payload, text)
	if err != nil {
		w.recordFailure(ctx, "decode")
		w.logger.Warn("delta could not be decoded, keeping current state",
			zap.Int64("timestamp_ms", e.TimestampMs),
			zap.Error(err))
		return text
	}

	failed := 0
	for _, ok := range applied {
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		w.recordFailure(ctx, "hunk")
		w.logger.Warn("delta applied partially, keeping best-effort text",
			zap.Int64("timestamp_ms", e.TimestampMs),
			zap.Int("failed_hunks", failed),
			zap.Int("total_hunks", len(applied)))
	}

	return patched
}

func (w *Walker) recordFailure(ctx context.Context, kind string) {
	if w.patchFailures != nil {
		w.patchFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}
