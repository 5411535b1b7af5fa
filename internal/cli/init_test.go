package cli

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShutdownRunsStepsInOrder(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	logger := SetupLogger("test")

	var order []int
	Shutdown(logger, time.Second,
		func(context.Context) error { order = append(order, 1); return nil },
		nil,
		func(context.Context) error { order = append(order, 2); return errors.New("close failed") },
		func(context.Context) error { order = append(order, 3); return nil },
	)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("steps ran as %v, want [1 2 3]", order)
	}
}

func TestShutdownPassesDeadline(t *testing.T) {
	logger := SetupLogger("test")
	Shutdown(logger, 50*time.Millisecond, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("step context has no deadline")
		}
		return nil
	})
}

func TestSignalContext(t *testing.T) {
	ctx, cancel := SignalContext()
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
