package ocr

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunDetachedReturnsResult(t *testing.T) {
	text, err := runDetached(context.Background(), func() (string, error) {
		return "RECOGNIZED", nil
	})
	if err != nil || text != "RECOGNIZED" {
		t.Errorf("runDetached = (%q, %v)", text, err)
	}

	wantErr := errors.New("engine down")
	if _, err := runDetached(context.Background(), func() (string, error) {
		return "", wantErr
	}); err != wantErr {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

// A deadline must unblock the caller without tearing resources out from
// under the still-running engine call: cleanup belongs to the call's own
// goroutine and happens only after it finishes.
func TestRunDetachedTimeoutLeavesCallRunning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	released := make(chan struct{})
	_, err := runDetached(ctx, func() (string, error) {
		defer close(released)
		time.Sleep(100 * time.Millisecond)
		return "late", nil
	})
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	// The call is still in flight when runDetached gives up.
	select {
	case <-released:
		t.Fatal("engine resources released while the call was still running")
	default:
	}

	// It finishes and releases on its own goroutine.
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("detached call never finished")
	}
}

func TestRunDetachedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runDetached(ctx, func() (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "late", nil
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want Canceled", err)
	}
}
