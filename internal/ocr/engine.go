package ocr

import (
	"context"
	"image"
)

// Engine is the single OCR contract every pass and every ROI crop routes
// through. The concrete engine (local Tesseract, a remote vision model) is
// swappable without touching the rest of the pipeline.
type Engine interface {
	// Recognize extracts raw text from the image. It must honor ctx
	// cancellation; a hung external engine must not hang the whole scan.
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, img image.Image) (string, error)

// Recognize implements Engine.
func (f EngineFunc) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}
