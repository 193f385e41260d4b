package ocr

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/ivisit/idscan-worker/internal/raster"
)

func TestScoreText(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want int
	}{
		{name: "Empty", text: "", want: 0},
		{name: "All alphanumeric", text: "ABCD1234", want: 8},
		{name: "Neutral characters ignored", text: "AB-CD/12 34", want: 8},
		{name: "Garbage penalized double", text: "AB!!", want: -2},
		{name: "All garbage", text: "!@#$", want: -8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScoreText(tc.text); got != tc.want {
				t.Errorf("ScoreText(%q) = %d, want %d", tc.text, got, tc.want)
			}
		})
	}
}

// More injected noise means a strictly lower score at equal length.
func TestScoreTextMonotonicity(t *testing.T) {
	clean := ScoreText("ABCD1234")
	noisy := ScoreText("A!@#1")
	if clean <= noisy {
		t.Errorf("ScoreText(clean)=%d should exceed ScoreText(noisy)=%d", clean, noisy)
	}
}

func testImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 40, 24))
}

// sequenceEngine hands out one canned text per call, in order.
type sequenceEngine struct {
	mu    sync.Mutex
	texts []string
	calls int
}

func (e *sequenceEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.calls
	e.calls++
	if i >= len(e.texts) {
		i = len(e.texts) - 1
	}
	return e.texts[i], nil
}

func TestMultiPassSelectsBestScore(t *testing.T) {
	engine := &sequenceEngine{texts: []string{
		"short",
		"!!!! garbage !!!!",
		"THE LONGEST CLEANEST TEXT OF ALL PASSES 12345",
		"medium text",
		"",
	}}

	mp := NewMultiPass(engine, time.Second)
	got := mp.Run(context.Background(), testImage())

	// The winner is the highest-scoring text regardless of which variant
	// produced it.
	want := "THE LONGEST CLEANEST TEXT OF ALL PASSES 12345"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
	if got.Score != ScoreText(want) {
		t.Errorf("Score = %d, want %d", got.Score, ScoreText(want))
	}

	if engine.calls != len(raster.Variants()) {
		t.Errorf("engine called %d times, want %d", engine.calls, len(raster.Variants()))
	}
}

func TestMultiPassConstantEngine(t *testing.T) {
	engine := EngineFunc(func(ctx context.Context, img image.Image) (string, error) {
		return "STABLE TEXT 123", nil
	})

	mp := NewMultiPass(engine, time.Second)
	got := mp.Run(context.Background(), testImage())

	if got.Text != "STABLE TEXT 123" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Score != ScoreText("STABLE TEXT 123") {
		t.Errorf("Score = %d, want %d", got.Score, ScoreText("STABLE TEXT 123"))
	}
	// Equal scores across variants resolve to the first enumerated one.
	if got.Method != raster.VariantStandard {
		t.Errorf("Method = %q, want %q on tie", got.Method, raster.VariantStandard)
	}
}

func TestMultiPassAllEnginesFail(t *testing.T) {
	engine := EngineFunc(func(ctx context.Context, img image.Image) (string, error) {
		return "", errors.New("engine down")
	})

	mp := NewMultiPass(engine, time.Second)
	got := mp.Run(context.Background(), testImage())

	if got.Text != "" || got.Score != 0 {
		t.Errorf("all-fail Run = %+v, want empty text and score 0", got)
	}
}

func TestMultiPassFailedPassDoesNotMaskOthers(t *testing.T) {
	var mu sync.Mutex
	failed := false
	engine := EngineFunc(func(ctx context.Context, img image.Image) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if !failed {
			failed = true
			return "", errors.New("transient failure")
		}
		return "RECOVERED 42", nil
	})

	mp := NewMultiPass(engine, time.Second)
	got := mp.Run(context.Background(), testImage())

	if got.Text != "RECOVERED 42" {
		t.Errorf("Text = %q, want text from surviving passes", got.Text)
	}
}
