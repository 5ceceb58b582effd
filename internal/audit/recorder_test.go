package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"workspace-platform/internal/rbac"
)

func TestRecorder_AppendRequiresActionAndEntity(t *testing.T) {
	rec := NewRecorder(NewMemoryRepo())

	if err := rec.Append(context.Background(), Event{EntityType: rbac.EntityTenant}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := rec.Append(context.Background(), Event{Action: ActionLogin}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestRecorder_StampsEvents(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecorder(repo, WithClock(func() time.Time { return now }))

	ctx := WithClientIP(context.Background(), "1.2.3.4")
	rec.Record(ctx, Event{TenantID: "t", ActorUserID: "u", Action: ActionCreateProject, EntityType: rbac.EntityProject, EntityID: "p"})

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured, got %q", evs[0].IPAddress)
	}
	if evs[0].ID == "" || !evs[0].CreatedAt.Equal(now) {
		t.Fatalf("expected id and timestamp stamped: %+v", evs[0])
	}
}

func TestRecorder_RecordSwallowsFailures(t *testing.T) {
	repo := NewMemoryRepo()
	repo.FailWith(errors.New("disk full"))
	rec := NewRecorder(repo)

	// Must not panic or block.
	rec.Record(context.Background(), Event{Action: ActionLogin, EntityType: rbac.EntityUser})

	if len(repo.Events()) != 0 {
		t.Fatalf("expected no events persisted")
	}
}

func TestRecorder_SurvivesCanceledCaller(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, Event{Action: ActionLogout, EntityType: rbac.EntityUser})

	if len(repo.Events()) != 1 {
		t.Fatalf("expected event persisted despite canceled request context")
	}
}

func TestRecorder_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	repo := NewMemoryRepo()
	repo.FailWith(errors.New("down"))
	rec := NewRecorder(repo)

	for i := 0; i < 5; i++ {
		_ = rec.Append(context.Background(), Event{Action: ActionLogin, EntityType: rbac.EntityUser})
	}
	repo.FailWith(nil)

	err := rec.Append(context.Background(), Event{Action: ActionLogin, EntityType: rbac.EntityUser})
	if err == nil {
		t.Fatalf("expected open breaker to reject the write")
	}
	if len(repo.Events()) != 0 {
		t.Fatalf("expected repository not called while breaker is open")
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), Event{Action: ActionLogin, EntityType: rbac.EntityUser})
}

// blockingRepo holds every Append until release is closed.
type blockingRepo struct {
	release chan struct{}
	inner   *MemoryRepo
}

func (b *blockingRepo) Append(ctx context.Context, e Event) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.inner.Append(ctx, e)
}

func TestRecorder_QueuedRecordDoesNotWaitForSink(t *testing.T) {
	repo := &blockingRepo{release: make(chan struct{}), inner: NewMemoryRepo()}
	rec := NewRecorder(repo, WithQueue(8), WithTimeout(time.Minute))

	start := time.Now()
	for i := 0; i < 3; i++ {
		rec.Record(context.Background(), Event{Action: ActionCreateProject, EntityType: rbac.EntityProject})
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("record blocked on the sink for %s", elapsed)
	}

	close(repo.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rec.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n := len(repo.inner.Events()); n != 3 {
		t.Fatalf("expected queued events flushed on close, got %d", n)
	}

	// After Close, Record falls back to writing inline.
	rec.Record(context.Background(), Event{Action: ActionLogout, EntityType: rbac.EntityUser})
	if n := len(repo.inner.Events()); n != 4 {
		t.Fatalf("expected inline write after close, got %d", n)
	}
}

func TestRecorder_FullQueueDropsEvents(t *testing.T) {
	repo := &blockingRepo{release: make(chan struct{}), inner: NewMemoryRepo()}
	rec := NewRecorder(repo, WithQueue(1), WithTimeout(time.Minute))

	// One event is held by the writer, one fills the queue, the rest drop.
	for i := 0; i < 10; i++ {
		rec.Record(context.Background(), Event{Action: ActionCreateTask, EntityType: rbac.EntityTask})
	}

	close(repo.release)
	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n := len(repo.inner.Events()); n < 1 || n > 2 {
		t.Fatalf("expected overflow dropped, got %d persisted", n)
	}
}
