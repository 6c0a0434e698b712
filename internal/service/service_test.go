package service_test

import (
	"context"
	"testing"
	"time"

	"qnotes/internal/service"
)

// ─────────────────────────────────────────────────────────────
// RunningJobsGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_Counts(t *testing.T) {
	var g service.ExportedRunningGuard

	g.Begin(1)
	g.Begin(1)
	g.Begin(2)

	if g.Count(1) != 2 {
		t.Errorf("expected 2 runs for query 1, got %d", g.Count(1))
	}
	if g.Total() != 3 {
		t.Errorf("expected 3 runs total, got %d", g.Total())
	}

	g.End(1)
	g.End(2)
	if g.Count(1) != 1 || g.Count(2) != 0 {
		t.Errorf("unexpected counts after End: %d, %d", g.Count(1), g.Count(2))
	}
	g.End(1)
	if g.Total() != 0 {
		t.Errorf("expected no runs, got %d", g.Total())
	}
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard

	g.Begin(7)

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.End(7)
	}()

	select {
	case <-done:
		// success
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

func TestRunningGuard_WaitAllRespectsContext(t *testing.T) {
	var g service.ExportedRunningGuard
	g.Begin(1)
	defer g.End(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	g.WaitAll(ctx)
	if time.Since(start) > time.Second {
		t.Fatal("WaitAll ignored the context deadline")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)
	m.Emit(ctx, "test:event", "again")

	if len(m.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(m.Events))
	}
	if m.Count("test:event") != 2 {
		t.Errorf("expected 2 test:event, got %d", m.Count("test:event"))
	}
	last, ok := m.Last("test:event")
	if !ok || last.Data != "again" {
		t.Errorf("unexpected last event: %+v", last)
	}
	if _, ok := m.Last("missing"); ok {
		t.Error("expected no event for unknown name")
	}
}

// ─────────────────────────────────────────────────────────────
// Broadcaster tests
// ─────────────────────────────────────────────────────────────

func TestBroadcaster_FanOut(t *testing.T) {
	b := service.NewBroadcaster()
	a, unsubA := b.Subscribe(4)
	c, unsubC := b.Subscribe(4)
	defer unsubA()
	defer unsubC()

	b.Emit(context.Background(), service.EventSessionChanged, 1)

	for _, ch := range []<-chan service.EmittedEvent{a, c} {
		select {
		case ev := <-ch:
			if ev.Event != service.EventSessionChanged || ev.Data != 1 {
				t.Errorf("unexpected event %+v", ev)
			}
		default:
			t.Error("subscriber did not receive the event")
		}
	}
}

func TestBroadcaster_FullSubscriberDoesNotBlock(t *testing.T) {
	b := service.NewBroadcaster()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Emit(context.Background(), "e", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}
	if ev := <-ch; ev.Data != 0 {
		t.Errorf("expected the first event to be kept, got %v", ev.Data)
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := service.NewBroadcaster()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub()

	b.Emit(context.Background(), "e", nil)
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after unsubscribe")
	}
}
