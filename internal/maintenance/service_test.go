package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/agrigate/agrigate/internal/history"
)

func TestRunRetentionOncePrunesBeforeCutoff(t *testing.T) {
	recorder := &fakeRecorder{removed: 12}
	now := time.Date(2023, time.July, 1, 12, 0, 0, 0, time.UTC)
	service := &Service{
		History: recorder,
		Config:  Config{RetentionMaxAge: 720 * time.Hour},
		Logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Clock:   func() time.Time { return now },
	}

	summary, err := service.RunRetentionOnce(context.Background())
	if err != nil {
		t.Fatalf("RunRetentionOnce() error = %v", err)
	}
	if summary.RemovedRows != 12 {
		t.Fatalf("RemovedRows = %d", summary.RemovedRows)
	}
	wantCutoff := now.Add(-720 * time.Hour)
	if !summary.Cutoff.Equal(wantCutoff) {
		t.Fatalf("Cutoff = %v, want %v", summary.Cutoff, wantCutoff)
	}
	if !recorder.gotCutoff.Equal(wantCutoff) {
		t.Fatalf("recorder cutoff = %v, want %v", recorder.gotCutoff, wantCutoff)
	}
}

func TestRunRetentionOnceRequiresRecorder(t *testing.T) {
	service := &Service{Config: Config{RetentionMaxAge: time.Hour}}
	if _, err := service.RunRetentionOnce(context.Background()); err == nil {
		t.Fatal("expected missing recorder error")
	}
}

func TestRunRetentionOnceRequiresMaxAge(t *testing.T) {
	service := &Service{History: &fakeRecorder{}}
	if _, err := service.RunRetentionOnce(context.Background()); err == nil {
		t.Fatal("expected missing max age error")
	}
}

func TestRunRetentionOncePropagatesDeleteFailure(t *testing.T) {
	recorder := &fakeRecorder{deleteErr: errors.New("connection reset")}
	service := &Service{
		History: recorder,
		Config:  Config{RetentionMaxAge: time.Hour},
	}
	if _, err := service.RunRetentionOnce(context.Background()); err == nil {
		t.Fatal("expected delete failure to propagate")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	recorder := &fakeRecorder{called: make(chan struct{}, 1)}
	service := &Service{
		History: recorder,
		Config:  Config{RetentionMaxAge: time.Hour, RetentionInterval: 5 * time.Millisecond},
		Logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	select {
	case <-recorder.called:
	case <-time.After(2 * time.Second):
		t.Fatal("retention cycle never ran")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

type fakeRecorder struct {
	removed   int64
	deleteErr error
	gotCutoff time.Time
	called    chan struct{}
}

func (f *fakeRecorder) HealthCheck(context.Context) error { return nil }

func (f *fakeRecorder) RecordInvocation(_ context.Context, in history.RecordInvocationInput) (history.Invocation, error) {
	return history.Invocation{InvocationID: in.InvocationID}, nil
}

func (f *fakeRecorder) ListRecent(context.Context, int) ([]history.Invocation, error) {
	return nil, nil
}

func (f *fakeRecorder) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.gotCutoff = cutoff
	if f.called != nil {
		select {
		case f.called <- struct{}{}:
		default:
		}
	}
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.removed, nil
}
