// Package extract drives the report extraction pipeline for one document:
// classify each page, render it into fragments, send the fragments to the
// vision model, and fold the outcomes into a single merged result.
package extract

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sagliklab/tahlil/internal/document"
	"github.com/sagliklab/tahlil/internal/merge"
	"github.com/sagliklab/tahlil/internal/render"
	"github.com/sagliklab/tahlil/internal/vision"
)

// Invoker is the model-client surface the pipeline depends on.
type Invoker interface {
	Invoke(ctx context.Context, frag render.Fragment) (*merge.FragmentResult, error)
}

// Request carries one document through the pipeline.
type Request struct {
	PDF []byte

	// Model service. Client, when set, overrides the other model fields
	// (tests inject a fake here).
	Model           string
	APIKey          string
	MaxOutputTokens int
	MaxRetries      int // 0 means single attempt; negative selects the client default
	RetryDelay      time.Duration
	Timeout         time.Duration
	Client          Invoker

	// PixelThreshold decides raster dominance (largest embedded image area).
	PixelThreshold int64
	// VectorScale and MaxImageDim control rendering.
	VectorScale float64
	MaxImageDim int

	Logger *slog.Logger
}

// Result is the finalized output for one document.
type Result struct {
	SampleDate string         `json:"sample_date,omitempty"`
	Metrics    []merge.Metric `json:"metrics"`
	PageCount  int            `json:"page_count"`
}

const defaultPixelThreshold = 2_000_000

// Run executes the pipeline. Pages are processed strictly in order, one at
// a time; within a page its one or two fragments are dispatched
// concurrently and joined all-settled, so a failed fragment costs only its
// own readings. Run returns a *FatalError for document-fatal conditions;
// fragment- and page-scoped problems are logged and absorbed.
func Run(ctx context.Context, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}
	client := req.Client
	if client == nil {
		// Fail fast on missing credentials, before touching the document.
		if req.APIKey == "" {
			return nil, fatal(ReasonMissingCredentials, "model API key is not configured")
		}
		client = vision.NewClient(vision.Config{
			APIKey:          req.APIKey,
			Model:           req.Model,
			MaxOutputTokens: req.MaxOutputTokens,
			MaxRetries:      req.MaxRetries,
			RetryDelay:      req.RetryDelay,
			Timeout:         req.Timeout,
			Logger:          log,
		})
	}
	threshold := req.PixelThreshold
	if threshold <= 0 {
		threshold = defaultPixelThreshold
	}

	doc, err := document.Open(req.PDF, log)
	if err != nil {
		return nil, fatal(ReasonBadDocument, "could not open document")
	}
	defer doc.Close()

	if doc.PageCount() == 0 {
		return nil, fatal(ReasonNoPages, "document has no pages")
	}
	log.Info("starting extraction", "pages", doc.PageCount())

	renderer := render.New(req.VectorScale, req.MaxImageDim, log)
	result := merge.NewResult(log)

	for p := 0; p < doc.PageCount(); p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		class := doc.Classify(p, threshold)
		frags, err := renderer.Render(doc, p, class)
		if err != nil {
			// Page-scoped: skip this page, keep the document alive.
			log.Warn("failed to render page", "page", p+1, "error", err)
			continue
		}
		log.Debug("rendered page", "page", p+1, "class", class.String(), "fragments", len(frags))

		for _, fr := range invokeAll(ctx, client, frags, log) {
			result.Fold(p, fr)
		}
	}

	if result.Len() == 0 {
		return nil, fatal(ReasonNothingExtracted, "no test results could be extracted")
	}

	log.Info("extraction complete", "metrics", result.Len(), "sample_date", result.SampleDate())
	return &Result{
		SampleDate: result.SampleDate(),
		Metrics:    result.Metrics(),
		PageCount:  doc.PageCount(),
	}, nil
}

// invokeAll dispatches a page's fragments concurrently and waits for all
// of them to settle. Failed or unparseable fragments come back nil in
// their slot; slot order (top before bottom) is preserved so folding stays
// deterministic.
func invokeAll(ctx context.Context, client Invoker, frags []render.Fragment, log *slog.Logger) []*merge.FragmentResult {
	results := make([]*merge.FragmentResult, len(frags))

	var wg sync.WaitGroup
	for i, frag := range frags {
		wg.Add(1)
		go func(i int, frag render.Fragment) {
			defer wg.Done()
			fr, err := client.Invoke(ctx, frag)
			if err != nil {
				log.Warn("fragment failed",
					"page", frag.PageIndex+1, "fragment", frag.Label(), "error", err)
				return
			}
			results[i] = fr
		}(i, frag)
	}
	wg.Wait()

	return results
}
