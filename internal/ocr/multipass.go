/**
 * Multi-pass OCR: run every enhancement variant through the engine and
 * keep the highest-scoring text.
 *
 * Passes fan out concurrently; each pass is bounded by its own timeout.
 * An errored or timed-out pass scores 0 and the remaining passes are still
 * considered, so a degraded engine yields less data, never a failed scan.
 */

package ocr

import (
	"context"
	"image"
	"sync"
	"time"
	"unicode"

	"github.com/ivisit/idscan-worker/internal/logging"
	"github.com/ivisit/idscan-worker/internal/raster"
)

// PassResult is the outcome of a single enhancement variant.
type PassResult struct {
	Text   string
	Method raster.Variant
	Score  int
}

// MultiPass runs the enhancement variants against one engine.
type MultiPass struct {
	engine      Engine
	passTimeout time.Duration
	logger      *logging.Logger
}

// NewMultiPass creates a multi-pass runner. passTimeout bounds each
// individual engine call.
func NewMultiPass(engine Engine, passTimeout time.Duration) *MultiPass {
	if passTimeout <= 0 {
		passTimeout = 15 * time.Second
	}
	return &MultiPass{
		engine:      engine,
		passTimeout: passTimeout,
		logger:      logging.NewLogger("MultiPass"),
	}
}

// Run executes all enhancement variants concurrently and returns the
// best-scoring pass. Ties resolve to the first enumerated variant. If
// every pass fails, the result is empty text with score 0.
func (m *MultiPass) Run(ctx context.Context, img image.Image) PassResult {
	variants := raster.Variants()
	results := make([]PassResult, len(variants))

	var wg sync.WaitGroup
	for i, v := range variants {
		wg.Add(1)
		go func(i int, v raster.Variant) {
			defer wg.Done()
			results[i] = m.runPass(ctx, img, v)
		}(i, v)
	}
	wg.Wait()

	best := PassResult{Method: variants[0]}
	for _, r := range results {
		if r.Score > best.Score {
			best = r
		}
	}

	m.logger.Info("Multi-pass OCR complete",
		"bestMethod", best.Method,
		"bestScore", best.Score,
		"passes", len(results))

	return best
}

// runPass enhances the image with one variant and OCRs it.
func (m *MultiPass) runPass(ctx context.Context, img image.Image, v raster.Variant) PassResult {
	enhanced := raster.Enhance(img, v)

	passCtx, cancel := context.WithTimeout(ctx, m.passTimeout)
	defer cancel()

	text, err := m.engine.Recognize(passCtx, enhanced)
	if err != nil {
		// Engine failure is local to this pass: score 0, keep going.
		m.logger.Warn("OCR pass failed", "method", v, "error", err)
		return PassResult{Method: v, Score: 0}
	}

	return PassResult{Text: text, Method: v, Score: ScoreText(text)}
}

// ScoreText rates raw OCR output: each alphanumeric rune counts +1, each
// garbage rune (not alphanumeric, not whitespace, not '-' or '/') counts
// -2. Recognizable content is rewarded and noise penalized more heavily
// than length is rewarded.
func ScoreText(text string) int {
	if text == "" {
		return 0
	}

	alnum := 0
	garbage := 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			alnum++
		case unicode.IsSpace(r) || r == '-' || r == '/':
			// neutral
		default:
			garbage++
		}
	}
	return alnum - garbage*2
}
