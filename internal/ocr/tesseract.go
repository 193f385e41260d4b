/**
 * Tesseract OCR engine - local, free, offline text recognition.
 *
 * A fresh gosseract client is created per call: the client is not safe for
 * concurrent use, and multipass fans Recognize out across goroutines.
 */

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// charWhitelist restricts recognition to characters that appear on the
// supported ID layouts; cuts down on security-pattern noise.
const charWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz1234567890- /,."

// TesseractEngine handles OCR using a local Tesseract installation.
type TesseractEngine struct {
	tessdataPrefix string
	language       string
}

// TesseractConfig holds Tesseract configuration.
type TesseractConfig struct {
	TessdataPrefix string
	Language       string
}

// NewTesseractEngine creates a new Tesseract OCR engine.
func NewTesseractEngine(cfg *TesseractConfig) (*TesseractEngine, error) {
	if cfg == nil {
		cfg = &TesseractConfig{}
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}

	return &TesseractEngine{
		tessdataPrefix: cfg.TessdataPrefix,
		language:       cfg.Language,
	}, nil
}

// Recognize performs OCR on the image and returns the raw text.
func (t *TesseractEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	if err := t.configure(client, buf.Bytes()); err != nil {
		client.Close()
		return "", err
	}

	// gosseract has no context support; run it detached so a hung engine
	// call cannot outlive the pass deadline. The closure owns the client:
	// Close must not run while Text() is still executing on the native
	// handle, so the caller never closes it.
	text, err := runDetached(ctx, func() (string, error) {
		defer client.Close()
		return client.Text()
	})
	if err != nil {
		if err == ctx.Err() {
			return "", err
		}
		return "", fmt.Errorf("tesseract OCR failed: %w", err)
	}
	return text, nil
}

func (t *TesseractEngine) configure(client *gosseract.Client, png []byte) error {
	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(t.language); err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	// 300 DPI hint prevents "Invalid resolution 0 dpi" degradation on
	// synthetic (warped/enhanced) images that carry no density metadata.
	if err := client.SetVariable("user_defined_dpi", "300"); err != nil {
		return fmt.Errorf("failed to set dpi: %w", err)
	}
	if err := client.SetWhitelist(charWhitelist); err != nil {
		return fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return fmt.Errorf("failed to set image: %w", err)
	}
	return nil
}

// runDetached runs fn on its own goroutine and waits for its result or
// for ctx, whichever comes first. When the deadline fires the call
// returns immediately, but fn keeps running to completion on its own
// goroutine and releases whatever resources it holds; its late result is
// discarded.
func runDetached(ctx context.Context, fn func() (string, error)) (string, error) {
	type ocrOut struct {
		text string
		err  error
	}
	done := make(chan ocrOut, 1)
	go func() {
		text, err := fn()
		done <- ocrOut{text: text, err: err}
	}()

	select {
	case out := <-done:
		return out.text, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
