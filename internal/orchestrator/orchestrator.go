// Package orchestrator drives the per-chunk pipeline: plan the document,
// materialize chunks, then for each chunk cache lookup -> (on miss) remote
// generation -> best-effort cache write, aggregating results in original
// order. Chunks are processed concurrently under a bounded worker pool.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chunkdoc/chunkdoc/internal/cache"
	"github.com/chunkdoc/chunkdoc/internal/chunker"
	"github.com/chunkdoc/chunkdoc/internal/extractor"
	"github.com/chunkdoc/chunkdoc/internal/generator"
	"github.com/chunkdoc/chunkdoc/internal/planner"
	"github.com/chunkdoc/chunkdoc/pkg/types"
)

// Config contains orchestrator configuration.
type Config struct {
	Limits      planner.Limits
	UnitKinds   []types.UnitKind // empty = all kinds eligible
	Workers     int              // concurrent remote calls (default 5)
	StoreSource bool             // persist chunk inputs with artifacts
}

// Document is one unit of input: a source file plus its logical key.
type Document struct {
	Key      string // identifies the file and its content version
	Language string // optional; inferred from Key's extension when empty
	Content  string
}

// Orchestrator owns the pipeline collaborators. The cache gateway and the
// generator are injected with explicit lifecycles so callers control
// construction and tests can substitute doubles.
type Orchestrator struct {
	gateway   cache.Gateway
	generator generator.Generator
	config    Config
	logger    *zap.Logger
}

// New creates an orchestrator. Invalid chunking limits are rejected here,
// before any document is accepted for processing.
func New(gateway cache.Gateway, gen generator.Generator, config Config, logger *zap.Logger) (*Orchestrator, error) {
	if err := config.Limits.Validate(); err != nil {
		return nil, err
	}
	if config.Workers <= 0 {
		config.Workers = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		gateway:   gateway,
		generator: gen,
		config:    config,
		logger:    logger,
	}, nil
}

// Process runs the full pipeline for one document. Chunk-level failures
// never abort sibling chunks: the returned result always carries one slot
// per chunk, in sequence order, each with an explicit status. The error
// return is reserved for document-level failures (materializer bugs);
// parse failures degrade to line-based chunking instead.
func (o *Orchestrator) Process(ctx context.Context, doc Document) (*types.DocumentResult, error) {
	start := time.Now()
	result := &types.DocumentResult{
		RunID:       uuid.NewString(),
		DocumentKey: doc.Key,
	}

	totalLines := len(chunker.SplitLines(doc.Content))
	if totalLines == 0 {
		result.Stats.Duration = time.Since(start)
		return result, nil
	}

	spans, plans, fallback, err := o.plan(doc, totalLines)
	if err != nil {
		return nil, err
	}
	result.Fallback = fallback

	chunks, err := chunker.MaterializeAll(plans, doc.Content, doc.Key, spans)
	if err != nil {
		return nil, err
	}

	o.logger.Info("processing document",
		zap.String("run_id", result.RunID),
		zap.String("document_key", doc.Key),
		zap.Int("lines", totalLines),
		zap.Int("chunks", len(chunks)),
		zap.Int("workers", o.config.Workers),
		zap.Bool("fallback", fallback))

	// Preallocated slots indexed by sequence keep final order independent
	// of completion order.
	result.Chunks = make([]types.ChunkResult, len(chunks))

	semaphore := make(chan struct{}, o.config.Workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := range chunks {
		chunk := chunks[i]
		g.Go(func() error {
			select {
			case semaphore <- struct{}{}:
			case <-gctx.Done():
				result.Chunks[chunk.SequenceIndex] = timeoutSlot(chunk, gctx.Err())
				return nil
			}
			defer func() { <-semaphore }()

			result.Chunks[chunk.SequenceIndex] = o.processChunk(gctx, chunk, len(chunks))
			return nil
		})
	}
	// Workers never return errors; failures live in their slots.
	_ = g.Wait()

	o.finalize(result, start)
	return result, nil
}

// plan extracts the structural outline and turns it into chunk plans,
// degrading to line-based planning when the source is unparseable.
func (o *Orchestrator) plan(doc Document, totalLines int) (spans []types.UnitSpan, plans []types.ChunkPlan, fallback bool, err error) {
	ex, exErr := o.extractorFor(doc)
	if exErr == nil {
		spans, exErr = ex.Extract(doc.Key, doc.Content)
	}
	if exErr != nil {
		var parseErr *types.ParseError
		if errors.As(exErr, &parseErr) {
			o.logger.Warn("parse failed, falling back to line-based chunking",
				zap.String("document_key", doc.Key),
				zap.Int("line", parseErr.Line),
				zap.String("reason", parseErr.Msg))
		} else {
			o.logger.Warn("no structural outline, falling back to line-based chunking",
				zap.String("document_key", doc.Key),
				zap.Error(exErr))
		}
		plans, err = planner.PlanFallback(totalLines, o.config.Limits)
		return nil, plans, true, err
	}

	eligible := extractor.FilterKinds(spans, o.config.UnitKinds)
	plans, err = planner.Plan(eligible, totalLines, o.config.Limits)
	return spans, plans, false, err
}

func (o *Orchestrator) extractorFor(doc Document) (extractor.Extractor, error) {
	if doc.Language != "" {
		return extractor.ForLanguage(doc.Language)
	}
	return extractor.ForDocument(doc.Key)
}

// Transient gateway failures are retried briefly; the cache is an
// optimization, so retries stay short and exhaustion is never fatal.
const (
	cacheRetries    = 3
	cacheRetryDelay = 50 * time.Millisecond
)

// withCacheRetry runs op with backoff until it succeeds, returns a
// cache.ErrNotFound miss, or exhausts the attempts.
func withCacheRetry(ctx context.Context, op func() error) error {
	var lastErr error
	delay := cacheRetryDelay
	for attempt := 0; attempt < cacheRetries; attempt++ {
		err := op()
		if err == nil || errors.Is(err, cache.ErrNotFound) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}

// processChunk resolves one chunk's slot: cached artifact, freshly
// generated artifact, or an explicit failure marker.
func (o *Orchestrator) processChunk(ctx context.Context, chunk *types.Chunk, chunkCount int) types.ChunkResult {
	slot := types.ChunkResult{
		SequenceIndex: chunk.SequenceIndex,
		ContentHash:   chunk.ContentHash,
		Metadata:      chunk.Metadata,
	}

	var entry *cache.Entry
	err := withCacheRetry(ctx, func() error {
		var lookupErr error
		entry, lookupErr = o.gateway.Lookup(ctx, chunk.ContentHash)
		return lookupErr
	})
	if err == nil {
		o.logger.Debug("cache hit",
			zap.String("document_key", chunk.DocumentKey),
			zap.Int("chunk", chunk.SequenceIndex))
		slot.Status = types.StatusCached
		slot.Artifact = entry.Artifact
		slot.Tokens = entry.Metadata.Tokens
		slot.Cost = entry.Metadata.Cost
		return slot
	}
	if !errors.Is(err, cache.ErrNotFound) {
		// Cache trouble is never fatal: log and proceed as a miss.
		o.logger.Warn("cache lookup failed, bypassing",
			zap.String("document_key", chunk.DocumentKey),
			zap.Int("chunk", chunk.SequenceIndex),
			zap.Error(fmt.Errorf("%w: %v", types.ErrCacheUnavailable, err)))
	}

	res, err := o.generator.Generate(ctx, generator.Request{
		SourceText:  chunk.SourceText,
		DocumentKey: chunk.DocumentKey,
		ChunkIndex:  chunk.SequenceIndex,
		ChunkCount:  chunkCount,
		StartLine:   chunk.Metadata.StartLine,
		EndLine:     chunk.Metadata.EndLine,
		UnitNames:   chunk.Metadata.UnitNames,
	})
	if err != nil {
		o.logger.Error("generation failed",
			zap.String("document_key", chunk.DocumentKey),
			zap.Int("chunk", chunk.SequenceIndex),
			zap.Error(err))
		return failedSlot(slot, chunk.SequenceIndex, err)
	}

	slot.Status = types.StatusGenerated
	slot.Artifact = res.Artifact
	slot.Tokens = res.Tokens
	slot.Cost = res.Cost

	// Best effort: a failed store must not drop the computed artifact.
	entry = cache.NewEntry(chunk, res.Artifact, res.Model, res.Tokens, res.Cost, o.config.StoreSource)
	if err := withCacheRetry(ctx, func() error { return o.gateway.Store(ctx, entry) }); err != nil {
		o.logger.Warn("cache store failed, returning artifact anyway",
			zap.String("document_key", chunk.DocumentKey),
			zap.Int("chunk", chunk.SequenceIndex),
			zap.Error(err))
	}
	return slot
}

func failedSlot(slot types.ChunkResult, index int, err error) types.ChunkResult {
	slot.Status = types.StatusFailed
	slot.Error = err.Error()
	slot.Artifact = fmt.Sprintf("<!-- Error processing chunk %d: %v -->", index, err)
	return slot
}

// timeoutSlot marks a chunk that never started because the deadline passed.
func timeoutSlot(chunk *types.Chunk, cause error) types.ChunkResult {
	return failedSlot(types.ChunkResult{
		SequenceIndex: chunk.SequenceIndex,
		ContentHash:   chunk.ContentHash,
		Metadata:      chunk.Metadata,
	}, chunk.SequenceIndex, fmt.Errorf("%w: %v", types.ErrGenerationTimeout, cause))
}

// finalize fills run statistics and the merged artifact.
func (o *Orchestrator) finalize(result *types.DocumentResult, start time.Time) {
	stats := &result.Stats
	stats.TotalChunks = len(result.Chunks)
	for i := range result.Chunks {
		switch result.Chunks[i].Status {
		case types.StatusCached:
			stats.CacheHits++
		case types.StatusGenerated:
			stats.CacheMisses++
			// Cached chunks carry the cost of their original generation;
			// only fresh calls spend money on this run.
			stats.TotalCost += result.Chunks[i].Cost
		case types.StatusFailed:
			stats.CacheMisses++
			stats.Failed++
		}
		stats.TotalTokens += result.Chunks[i].Tokens
	}
	if stats.TotalChunks > 0 {
		stats.CacheHitRate = float64(stats.CacheHits) / float64(stats.TotalChunks) * 100
	}
	stats.Duration = time.Since(start)

	result.Merged = MergeArtifacts(result.DocumentKey, result.Chunks)

	o.logger.Info("document processed",
		zap.String("run_id", result.RunID),
		zap.String("document_key", result.DocumentKey),
		zap.Int("chunks", stats.TotalChunks),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Int("failed", stats.Failed),
		zap.Duration("duration", stats.Duration))
}
