package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"qnotes/internal/dbclient"
	"qnotes/internal/domain"
	"qnotes/internal/service"
)

func startLoop(t *testing.T) (*service.Loop, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := service.NewLoop()
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop, cancel
}

func TestLoop_RunsInOrder(t *testing.T) {
	loop, _ := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}
	if err := loop.Call(context.Background(), func() {}); err != nil {
		t.Fatal(err)
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("out of order: %v", got)
		}
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 calls, got %d", len(got))
	}
}

func TestLoop_PostFromInsideLoop(t *testing.T) {
	loop, _ := startLoop(t)

	done := make(chan struct{})
	loop.Post(func() {
		loop.Post(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested post never ran")
	}
}

func TestLoop_StoppedRejectsWork(t *testing.T) {
	loop, cancel := startLoop(t)
	cancel()
	<-loop.Done()

	if loop.Post(func() {}) {
		t.Error("expected Post to fail after stop")
	}
	if err := loop.Call(context.Background(), func() {}); !errors.Is(err, service.ErrLoopStopped) {
		t.Errorf("expected ErrLoopStopped, got %v", err)
	}
}

// asyncRunner completes each command on its own goroutine after a delay and
// hands the completion back through the loop.
type asyncRunner struct {
	loop   *service.Loop
	delays map[string]time.Duration
}

func (r *asyncRunner) Execute(command string, done func(domain.Completion)) {
	delay := r.delays[command]
	go func() {
		time.Sleep(delay)
		r.loop.Dispatch(func() { done(domain.Completion{Success: true, Output: command}) })
	}()
}

func TestLoop_SessionConcurrentCompletions(t *testing.T) {
	loop, _ := startLoop(t)
	reg := dbclient.NewRegistry(dbclient.ClientBinaries{})

	cmd := func(q string) string {
		c, err := mustSource(t, reg).BuildCommand("sqlite:///tmp/a.db", q)
		if err != nil {
			t.Fatal(err)
		}
		return c
	}
	runner := &asyncRunner{loop: loop, delays: map[string]time.Duration{
		cmd("SELECT 1"): 40 * time.Millisecond,
		cmd("SELECT 2"): 5 * time.Millisecond,
	}}
	svc := service.NewSessionService(context.Background(), reg, runner, nil, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	results := map[int]string{}
	ctx := context.Background()
	err := loop.Call(ctx, func() {
		svc.Open(&domain.Document{
			ConnectionURI: "sqlite:///tmp/a.db",
			Queries:       map[int]string{1: "SELECT 1", 2: "SELECT 2"},
		}, "")
		for _, id := range []int{1, 2} {
			id := id
			text, _ := svc.Query(id)
			svc.ExecuteQuery(id, text, func(c domain.Completion) {
				results[id] = c.Output
				wg.Done()
			})
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	svc.WaitIdle(ctx)
	wg.Wait()

	var snap domain.SessionSnapshot
	if err := loop.Call(ctx, func() { snap = svc.Snapshot() }); err != nil {
		t.Fatal(err)
	}
	for _, id := range []int{1, 2} {
		want := cmd(snap.Queries[id])
		if st := snap.State(id); st.Status != domain.QueryStatusSuccess || st.Result != want {
			t.Errorf("query %d: got %+v, want result %q", id, st, want)
		}
	}
}

func mustSource(t *testing.T, reg *dbclient.Registry) domain.Source {
	t.Helper()
	src, ok := reg.Get(domain.BackendSQLite)
	if !ok {
		t.Fatal("sqlite source not registered")
	}
	return src
}
