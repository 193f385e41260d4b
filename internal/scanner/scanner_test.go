package scanner

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ivisit/idscan-worker/internal/errors"
	"github.com/ivisit/idscan-worker/internal/ocr"
	"github.com/ivisit/idscan-worker/internal/pipeline"
	"github.com/ivisit/idscan-worker/internal/rectify"
)

const philSysCard = "REPUBLIC OF THE PHILIPPINES\nPHILSYS\nApelyido\nDELA CRUZ\nMga Pangalan\nJUAN PEDRO\nPetsa ng Kapanganakan\nJanuary 3, 1999\n1234-5678-9012-3456"

// cardPhotoPNG encodes a bright-card-on-dark-background test photo.
func cardPhotoPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			if x >= 50 && x < 350 && y >= 40 && y < 260 {
				img.Set(x, y, color.RGBA{235, 235, 235, 255})
			} else {
				img.Set(x, y, color.RGBA{20, 20, 25, 255})
			}
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test photo: %v", err)
	}
	return buf.Bytes()
}

func newTestProcessor(text string, maxImageBytes int64) *ScanProcessor {
	engine := ocr.EngineFunc(func(ctx context.Context, img image.Image) (string, error) {
		return text, nil
	})
	extractor := pipeline.NewExtractor(
		rectify.New(rectify.DefaultConfig()),
		ocr.NewMultiPass(engine, time.Second),
		engine,
		nil,
		time.Second,
	)
	return NewScanProcessor(extractor, nil, maxImageBytes)
}

func TestProcessScan(t *testing.T) {
	p := newTestProcessor(philSysCard, 0)

	res, err := p.ProcessScan(context.Background(), &ScanRequest{
		ScanID:     "scan-1",
		UserID:     "user-1",
		Filename:   "card.png",
		FileBuffer: cardPhotoPNG(t),
	})
	if err != nil {
		t.Fatalf("ProcessScan: %v", err)
	}

	if res.IDType != "National ID" {
		t.Errorf("IDType = %q, want National ID", res.IDType)
	}
	if res.Record["fullName"] != "JUAN PEDRO DELA CRUZ" {
		t.Errorf("fullName = %v", res.Record["fullName"])
	}
	if res.Record["dob"] != "1999-01-03" {
		t.Errorf("dob = %v", res.Record["dob"])
	}
	if res.Record["idNumber"] != "1234-5678-9012-3456" {
		t.Errorf("idNumber = %v", res.Record["idNumber"])
	}
	if res.Confidence <= 0.5 || res.Confidence > 1 {
		t.Errorf("Confidence = %v, want a high overall score", res.Confidence)
	}
	if res.ProcessingTimeMs < 0 {
		t.Errorf("ProcessingTimeMs = %d", res.ProcessingTimeMs)
	}
}

func TestProcessScanEmptyBuffer(t *testing.T) {
	p := newTestProcessor(philSysCard, 0)

	_, err := p.ProcessScan(context.Background(), &ScanRequest{ScanID: "scan-2"})

	var scanErr *errors.ScanError
	if !errors.As(err, &scanErr) || scanErr.Code != errors.ErrorInvalidImage {
		t.Errorf("err = %v, want INVALID_IMAGE", err)
	}
}

func TestProcessScanOversizedBuffer(t *testing.T) {
	p := newTestProcessor(philSysCard, 16)

	_, err := p.ProcessScan(context.Background(), &ScanRequest{
		ScanID:     "scan-3",
		FileBuffer: make([]byte, 64),
	})

	var scanErr *errors.ScanError
	if !errors.As(err, &scanErr) || scanErr.Code != errors.ErrorInvalidImage {
		t.Errorf("err = %v, want INVALID_IMAGE", err)
	}
}

func TestProcessScanUndecodableImage(t *testing.T) {
	p := newTestProcessor(philSysCard, 0)

	_, err := p.ProcessScan(context.Background(), &ScanRequest{
		ScanID:     "scan-4",
		FileBuffer: []byte("this is not an image"),
	})

	var scanErr *errors.ScanError
	if !errors.As(err, &scanErr) || scanErr.Code != errors.ErrorInvalidImage {
		t.Errorf("err = %v, want INVALID_IMAGE", err)
	}
}

// A blank OCR result propagates the pipeline's no-signal error to the
// queue layer, which decides the retry policy.
func TestProcessScanNoSignal(t *testing.T) {
	p := newTestProcessor("", 0)

	_, err := p.ProcessScan(context.Background(), &ScanRequest{
		ScanID:     "scan-5",
		FileBuffer: cardPhotoPNG(t),
	})

	var scanErr *errors.ScanError
	if !errors.As(err, &scanErr) || scanErr.Code != errors.ErrorNoSignal {
		t.Errorf("err = %v, want NO_SIGNAL", err)
	}
}

func TestUpdateScanStatusWithoutStore(t *testing.T) {
	p := newTestProcessor(philSysCard, 0)
	if err := p.UpdateScanStatus(context.Background(), "scan-6", "processing", nil); err != nil {
		t.Errorf("UpdateScanStatus without store = %v, want nil", err)
	}
}
