package dag

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/dagrun/logger"
)

func TestChain_AppliesOutermostFirst(t *testing.T) {
	var order []string
	mark := func(name string) JobMiddleware {
		return func(next JobFunc) JobFunc {
			return func(ctx context.Context, nodeID string) (any, error) {
				order = append(order, name)
				return next(ctx, nodeID)
			}
		}
	}

	job := Chain(func(ctx context.Context, nodeID string) (any, error) {
		order = append(order, "job")
		return nil, nil
	}, mark("outer"), mark("inner"))

	if _, err := job(context.Background(), "n"); err != nil {
		t.Fatalf("job: %v", err)
	}

	want := []string{"outer", "inner", "job"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestWithLogging_PassesThrough(t *testing.T) {
	jobErr := stderrors.New("boom")
	job := Chain(func(ctx context.Context, nodeID string) (any, error) {
		return nil, jobErr
	}, WithLogging(logger.Nop()))

	_, err := job(context.Background(), "n")
	if !stderrors.Is(err, jobErr) {
		t.Errorf("expected job error, got %v", err)
	}

	job = Chain(func(ctx context.Context, nodeID string) (any, error) {
		return "ok", nil
	}, WithLogging(nil))
	result, err := job(context.Background(), "n")
	if err != nil || result != "ok" {
		t.Errorf("expected ok, got %v (%v)", result, err)
	}
}

func TestWithTimeout_CancelsSlowJob(t *testing.T) {
	job := Chain(func(ctx context.Context, nodeID string) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return "too late", nil
		}
	}, WithTimeout(5*time.Millisecond))

	_, err := job(context.Background(), "n")
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestWithTracing_PassesThrough(t *testing.T) {
	job := Chain(func(ctx context.Context, nodeID string) (any, error) {
		return nodeID, nil
	}, WithTracing())

	result, err := job(context.Background(), "n")
	if err != nil || result != "n" {
		t.Errorf("expected n, got %v (%v)", result, err)
	}
}
