package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
	"github.com/boddenberg/irrbb-bfa-go/internal/service"
)

func TestTracker_NewerRequestSupersedesOlder(t *testing.T) {
	tr := service.NewTracker()

	ctx1, first := tr.Begin(context.Background(), "s1:eve")
	ctx2, second := tr.Begin(context.Background(), "s1:eve")

	select {
	case <-ctx1.Done():
	default:
		t.Fatal("expected first context to be cancelled")
	}
	if ctx2.Err() != nil {
		t.Fatalf("second context should be live, got %v", ctx2.Err())
	}

	var sup *domain.ErrSuperseded
	if err := tr.Finish(first); !errors.As(err, &sup) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if err := tr.Finish(second); err != nil {
		t.Fatalf("expected current request to finish cleanly, got %v", err)
	}
	if tr.Len() != 0 {
		t.Errorf("expected no live keys, got %d", tr.Len())
	}
}

func TestTracker_KeysAreIndependent(t *testing.T) {
	tr := service.NewTracker()

	ctxA, a := tr.Begin(context.Background(), "s1:eve")
	_, b := tr.Begin(context.Background(), "s1:nii")

	if ctxA.Err() != nil {
		t.Fatal("different views must not cancel each other")
	}
	if err := tr.Finish(a); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := tr.Finish(b); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTracker_EmptyKeyIsUnguarded(t *testing.T) {
	tr := service.NewTracker()

	_, a := tr.Begin(context.Background(), "")
	_, b := tr.Begin(context.Background(), "")
	if err := tr.Finish(a); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := tr.Finish(b); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGuarded_DiscardsStaleResult(t *testing.T) {
	tr := service.NewTracker()
	metrics := observability.NewMetrics()

	started := make(chan struct{})
	staleDone := make(chan error, 1)

	go func() {
		_, err := service.Guarded(context.Background(), tr, metrics, "s1", "eve", func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			return "stale", ctx.Err()
		})
		staleDone <- err
	}()

	<-started
	v, err := service.Guarded(context.Background(), tr, metrics, "s1", "eve", func(context.Context) (string, error) {
		return "fresh", nil
	})
	if err != nil || v != "fresh" {
		t.Fatalf("expected fresh result, got %q %v", v, err)
	}

	select {
	case err := <-staleDone:
		var sup *domain.ErrSuperseded
		if !errors.As(err, &sup) {
			t.Fatalf("expected ErrSuperseded, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("stale request never returned")
	}

	if got := metrics.Snapshot().SupersededRequests; got != 1 {
		t.Errorf("expected 1 superseded request, got %d", got)
	}
}
