package delay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestClockDelayWaitsForMockTime(t *testing.T) {
	mock := clock.NewMock()
	d := New(mock)
	done := make(chan error, 1)
	go func() { done <- d.Delay(context.Background(), time.Second) }()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Delay failed: %v", err)
			}
			return
		case <-deadline:
			t.Fatal("delay never completed")
		default:
			mock.Add(250 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestClockDelayHonorsCancellation(t *testing.T) {
	d := New(clock.NewMock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Delay(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScaledZeroIsInstant(t *testing.T) {
	d := NewScaled(clock.NewMock(), 0)
	if err := d.Delay(context.Background(), time.Hour); err != nil {
		t.Fatalf("expected instant delay, got %v", err)
	}
}

func TestRecorderTotals(t *testing.T) {
	var r Recorder
	_ = r.Delay(context.Background(), 800*time.Millisecond)
	_ = r.Delay(context.Background(), 1200*time.Millisecond)
	if r.Total() != 2*time.Second {
		t.Fatalf("unexpected total: %s", r.Total())
	}
	if len(r.Delays()) != 2 {
		t.Fatalf("unexpected delays: %v", r.Delays())
	}
}
