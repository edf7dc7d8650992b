package scraper

import (
	"context"
	"errors"
	"testing"
	"time"
)

// blockingRunner runs until released, recording the request it got.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	got     RunRequest
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	r.got = req
	close(r.started)
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return &RunResult{Keyword: req.Keyword, Success: true}, nil
}

func waitIdle(t *testing.T, m *RunManager) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for m.Current() != nil {
		select {
		case <-deadline:
			t.Fatal("manager did not become idle")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRunManager_SingleRunAtATime(t *testing.T) {
	runner := newBlockingRunner()
	m := NewRunManager(runner)

	job, err := m.Start(context.Background(), RunRequest{Keyword: "fitness"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-runner.started

	if m.Current() == nil || m.Current().ID != job.ID {
		t.Error("Current() should return the running job")
	}

	// a second run must be refused while the first is still going
	if _, err := m.Start(context.Background(), RunRequest{Keyword: "other"}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Start() error = %v, want ErrAlreadyRunning", err)
	}

	close(runner.release)
	waitIdle(t, m)

	if runner.got.Keyword != "fitness" {
		t.Errorf("runner got keyword %q, want fitness", runner.got.Keyword)
	}
}

func TestRunManager_LastResult(t *testing.T) {
	runner := newBlockingRunner()
	m := NewRunManager(runner)

	if m.LastResult() != nil {
		t.Error("LastResult() should be nil before any run")
	}

	if _, err := m.Start(context.Background(), RunRequest{Keyword: "fitness"}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-runner.started
	close(runner.release)
	waitIdle(t, m)

	deadline := time.After(2 * time.Second)
	for m.LastResult() == nil {
		select {
		case <-deadline:
			t.Fatal("LastResult() never populated")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := m.LastResult(); got.Keyword != "fitness" || !got.Success {
		t.Errorf("LastResult() = %+v", got)
	}
}

func TestRunManager_StopCancelsRun(t *testing.T) {
	runner := newBlockingRunner()
	m := NewRunManager(runner)

	if _, err := m.Start(context.Background(), RunRequest{Keyword: "fitness"}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-runner.started

	m.Stop()
	waitIdle(t, m)

	// manager accepts a fresh run after stopping
	runner2 := newBlockingRunner()
	m.runner = runner2
	if _, err := m.Start(context.Background(), RunRequest{Keyword: "next"}); err != nil {
		t.Fatalf("Start() after Stop() error = %v", err)
	}
	<-runner2.started
	close(runner2.release)
	waitIdle(t, m)
}

func TestRunManager_StopWhenIdle(t *testing.T) {
	m := NewRunManager(nil)
	m.Stop() // must not panic
	if m.Current() != nil {
		t.Error("Current() should be nil")
	}
}
