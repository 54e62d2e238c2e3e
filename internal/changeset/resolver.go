package changeset

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sift/internal/archive"
	"github.com/fyrsmithlabs/sift/internal/normalize"
	"github.com/fyrsmithlabs/sift/internal/patch"
	"github.com/fyrsmithlabs/sift/internal/replay"
)

const instrumentationName = "github.com/fyrsmithlabs/sift/internal/changeset"

// Resolver is the single entry point: archive + live content + threshold in,
// normalized new-content string out.
type Resolver struct {
	reader     *archive.Reader
	walker     *replay.Walker
	engine     patch.Engine
	normalizer normalize.Normalizer
	logger     *zap.Logger

	tracer         trace.Tracer
	meter          metric.Meter
	resolveCounter metric.Int64Counter
}

// NewResolver creates a resolver over the given patch engine and normalizer.
func NewResolver(engine patch.Engine, normalizer normalize.Normalizer, logger *zap.Logger) (*Resolver, error) {
	if engine == nil {
		return nil, errors.New("patch engine is required")
	}
	if normalizer == nil {
		return nil, errors.New("normalizer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	walker, err := replay.NewWalker(engine, logger.Named("replay"))
	if err != nil {
		return nil, fmt.Errorf("failed to create walker: %w", err)
	}

	r := &Resolver{
		reader:     archive.NewReader(logger.Named("archive")),
		walker:     walker,
		engine:     engine,
		normalizer: normalizer,
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
		meter:      otel.Meter(instrumentationName),
	}
	r.initMetrics()
	return r, nil
}

func (r *Resolver) initMetrics() {
	var err error
	r.resolveCounter, err = r.meter.Int64Counter(
		"sift.changeset.resolves_total",
		metric.WithDescription("Total resolve calls by outcome"),
		metric.WithUnit("{resolve}"),
	)
	if err != nil {
		r.logger.Warn("failed to create resolve counter", zap.Error(err))
	}
}

// Resolve returns the normalized text added to the document since the
// threshold. An empty string with a nil error means nothing changed.
// Corrupt archive bytes surface as archive.ErrArchiveCorrupt; the caller
// decides the fallback, typically the no-history policy.
func (r *Resolver) Resolve(ctx context.Context, req *Request) (string, error) {
	cs, err := r.ResolveChangeSet(ctx, req)
	if err != nil {
		return "", err
	}
	return cs.InsertedText, nil
}

// ResolveChangeSet is Resolve with the intermediate states exposed.
func (r *Resolver) ResolveChangeSet(ctx context.Context, req *Request) (*ChangeSet, error) {
	ctx, span := r.tracer.Start(ctx, "changeset.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("threshold_ms", req.ThresholdMs),
		attribute.Bool("has_archive", len(req.ArchiveRaw) > 0),
	)

	var entries []archive.Entry
	if len(req.ArchiveRaw) > 0 {
		var err error
		entries, err = r.reader.Parse(req.ArchiveRaw)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.count(ctx, "archive_corrupt")
			return nil, err
		}
	}

	if len(entries) == 0 {
		return r.resolveWithoutArchive(ctx, req)
	}

	latest := entries[len(entries)-1]
	diverged := Diverged(r.engine, latest.Payload, req.LiveText)
	editsAfterThreshold := latest.TimestampMs > req.ThresholdMs

	if !editsAfterThreshold && !diverged {
		r.count(ctx, "unchanged")
		return &ChangeSet{
			ReconstructedAtThreshold: latest.Payload,
			FinalState:               latest.Payload,
		}, nil
	}
	if !editsAfterThreshold && diverged && req.LiveModifiedMs <= req.ThresholdMs {
		// The uncommitted edit itself predates the threshold even though
		// it is not checkpointed yet.
		r.count(ctx, "uncommitted_before_threshold")
		return &ChangeSet{
			ReconstructedAtThreshold: latest.Payload,
			FinalState:               req.LiveText,
		}, nil
	}

	reconstructed, err := r.walker.Reconstruct(ctx, entries, req.ThresholdMs, latest.Payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.count(ctx, "cancelled")
		return nil, err
	}

	final := latest.Payload
	if diverged {
		final = req.LiveText
	}

	inserted := ExtractInsertions(r.engine, reconstructed, final)
	r.count(ctx, "resolved")
	span.SetAttributes(attribute.Int("inserted_bytes", len(inserted)))

	return &ChangeSet{
		ReconstructedAtThreshold: reconstructed,
		FinalState:               final,
		InsertedText:             r.normalizer.Normalize(inserted, req.HasHeaderBlock),
	}, nil
}

// resolveWithoutArchive applies the no-history policy: a document created at
// or after the threshold is new in its entirety, anything older contributes
// nothing.
func (r *Resolver) resolveWithoutArchive(ctx context.Context, req *Request) (*ChangeSet, error) {
	if req.CreatedAtMs >= req.ThresholdMs {
		r.count(ctx, "whole_document")
		return &ChangeSet{
			FinalState:   req.LiveText,
			InsertedText: r.normalizer.Normalize(req.LiveText, req.HasHeaderBlock),
		}, nil
	}
	r.count(ctx, "no_history")
	return &ChangeSet{FinalState: req.LiveText}, nil
}

func (r *Resolver) count(ctx context.Context, outcome string) {
	if r.resolveCounter != nil {
		r.resolveCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
