package worklist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sift/internal/archive"
	"github.com/fyrsmithlabs/sift/internal/cache"
	"github.com/fyrsmithlabs/sift/internal/changeset"
	"github.com/fyrsmithlabs/sift/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/sift/internal/worklist"

// Status reports the outcome of one document's resolve.
type Status string

const (
	// StatusDone means the document resolved completely.
	StatusDone Status = "done"
	// StatusNeedsRecompute means the resolve was cancelled or failed and
	// must be re-run in full; no partial content is carried.
	StatusNeedsRecompute Status = "needs_recompute"
)

// Result is the outcome for one document in a run.
type Result struct {
	DocumentID string
	Status     Status
	NewContent string
	Err        error
}

// Runner resolves a worklist of documents with bounded parallelism.
type Runner struct {
	resolver *changeset.Resolver
	docs     store.DocumentStore
	results  *cache.ResultCache
	workers  int
	logger   *zap.Logger

	tracer       trace.Tracer
	meter        metric.Meter
	docsResolved metric.Int64Counter
}

// NewRunner creates a runner. results may be nil to disable caching.
func NewRunner(resolver *changeset.Resolver, docs store.DocumentStore, results *cache.ResultCache, workers int, logger *zap.Logger) (*Runner, error) {
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if docs == nil {
		return nil, errors.New("document store is required")
	}
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		resolver: resolver,
		docs:     docs,
		results:  results,
		workers:  workers,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}
	r.initMetrics()
	return r, nil
}

func (r *Runner) initMetrics() {
	var err error
	r.docsResolved, err = r.meter.Int64Counter(
		"sift.worklist.documents_total",
		metric.WithDescription("Documents processed per run by status"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		r.logger.Warn("failed to create document counter", zap.Error(err))
	}
}

// Run resolves every listed document since thresholdMs.
//
// Results come back in input order. Cancellation stops the run promptly;
// documents not finished by then are marked StatusNeedsRecompute so callers
// retry them in full rather than trusting truncated output.
func (r *Runner) Run(ctx context.Context, ids []string, thresholdMs int64) []Result {
	runID := uuid.New().String()
	ctx, span := r.tracer.Start(ctx, "worklist.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.Int("document_count", len(ids)),
		attribute.Int64("threshold_ms", thresholdMs),
	)

	logger := r.logger.With(zap.String("run_id", runID))
	logger.Info("starting worklist run",
		zap.Int("documents", len(ids)),
		zap.Int64("threshold_ms", thresholdMs),
		zap.Int("workers", r.workers))

	start := time.Now()
	results := make([]Result, len(ids))
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result{DocumentID: id, Status: StatusNeedsRecompute, Err: ctx.Err()}
				return
			}

			results[i] = r.resolveOne(ctx, logger, id, thresholdMs)
		}(i, id)
	}
	wg.Wait()

	done := 0
	for i := range results {
		if results[i].Status == StatusDone {
			done++
		}
		if r.docsResolved != nil {
			r.docsResolved.Add(ctx, 1, metric.WithAttributes(
				attribute.String("status", string(results[i].Status)),
			))
		}
	}

	logger.Info("worklist run finished",
		zap.Int("done", done),
		zap.Int("needs_recompute", len(ids)-done),
		zap.Duration("elapsed", time.Since(start)))
	span.SetAttributes(attribute.Int("done_count", done))

	return results
}

// resolveOne resolves a single document, consulting and filling the
// result cache when one is configured.
func (r *Runner) resolveOne(ctx context.Context, logger *zap.Logger, id string, thresholdMs int64) Result {
	if r.results != nil {
		if cached, ok := r.results.Get(id, thresholdMs); ok {
			return Result{DocumentID: id, Status: StatusDone, NewContent: cached}
		}
	}

	doc, err := r.docs.Load(ctx, id)
	if err != nil {
		logger.Warn("failed to load document", zap.String("document_id", id), zap.Error(err))
		return Result{DocumentID: id, Status: StatusNeedsRecompute, Err: err}
	}

	raw, _, err := r.docs.Archive(ctx, id)
	if err != nil {
		logger.Warn("failed to read archive", zap.String("document_id", id), zap.Error(err))
		return Result{DocumentID: id, Status: StatusNeedsRecompute, Err: err}
	}

	req := &changeset.Request{
		ArchiveRaw:     raw,
		LiveText:       doc.LiveText,
		LiveModifiedMs: doc.ModifiedMs,
		CreatedAtMs:    doc.CreatedMs,
		ThresholdMs:    thresholdMs,
		HasHeaderBlock: doc.HasHeaderBlock,
	}

	content, err := r.resolver.Resolve(ctx, req)
	if errors.Is(err, archive.ErrArchiveCorrupt) {
		// Unreadable history degrades to the no-archive policy rather
		// than losing the document.
		logger.Warn("archive corrupt, falling back to no-history policy",
			zap.String("document_id", id))
		req.ArchiveRaw = nil
		content, err = r.resolver.Resolve(ctx, req)
	}
	if err != nil {
		if ctx.Err() != nil {
			return Result{DocumentID: id, Status: StatusNeedsRecompute, Err: ctx.Err()}
		}
		logger.Warn("resolve failed", zap.String("document_id", id), zap.Error(err))
		return Result{DocumentID: id, Status: StatusNeedsRecompute, Err: err}
	}

	if r.results != nil {
		r.results.Put(id, thresholdMs, content)
	}
	return Result{DocumentID: id, Status: StatusDone, NewContent: content}
}
