package formatter

import (
	"context"
	"strings"

	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/chunker"
	"concept-visualizer-be/pkg/concept"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// HighlightStyles is prepended once to any document that has concepts.
const HighlightStyles = `<style>
.highlighted-concept {
  border-bottom: 2px solid #38BDF8;
  cursor: pointer;
  padding: 0 2px;
  transition: border-color 0.3s ease;
}
.highlighted-concept:hover {
  border-bottom: 2px solid #64D3FF;
}
.highlighted-concept.active {
  border-bottom: 2px solid #8DEBFF;
  font-weight: 500;
}
</style>`

// Formatter formats a single chunk. *ChunkFormatter is the production
// implementation.
type Formatter interface {
	Format(ctx context.Context, chunk chunker.Chunk, concepts []concept.IndexedConcept) (string, error)
}

type Orchestrator struct {
	formatter   Formatter
	chunking    chunker.Options
	concurrency int
	logger      logger.ILogger
}

func NewOrchestrator(formatter Formatter, chunking chunker.Options, concurrency int, log logger.ILogger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Orchestrator{
		formatter:   formatter,
		chunking:    chunking,
		concurrency: concurrency,
		logger:      log,
	}
}

// Format chunks text, formats every chunk concurrently and joins the
// results in chunk order. A failed chunk only degrades to its plain-text
// fallback. The error is non-nil only when ctx ends first.
func (o *Orchestrator) Format(ctx context.Context, text string, concepts []concept.IndexedConcept) (string, error) {
	ctx, span := otel.Tracer("formatter").Start(ctx, "Orchestrator.Format")
	defer span.End()

	chunks := chunker.Split(text, concepts, o.chunking)
	span.SetAttributes(
		attribute.Int("chunks", len(chunks)),
		attribute.Int("concepts", len(concepts)),
	)
	o.logger.Info("FormattingOrchestrator", "Text split into chunks", map[string]interface{}{
		"chunks":   len(chunks),
		"concepts": len(concepts),
	})

	formatted := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			out, err := o.formatter.Format(gctx, chunk, concepts)
			if err != nil {
				o.logger.Warn("FormattingOrchestrator", "Chunk fell back to plain text", map[string]interface{}{
					"chunk":        i,
					"start_offset": chunk.StartOffset,
					"error":        err.Error(),
				})
			}
			formatted[i] = out
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return "", err
	}

	combined := strings.Join(formatted, "")
	if len(concepts) > 0 {
		combined = RepairSpans(combined, concepts)
	}
	if !strings.HasPrefix(combined, "<div") && !strings.HasPrefix(combined, "<section") {
		combined = "<div>" + combined + "</div>"
	}
	if len(concepts) > 0 {
		combined = HighlightStyles + combined
	}
	return combined, nil
}
