package scraper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// errors
var (
	ErrAlreadyRunning = errors.New("a crawl run is already in progress")
)

// CrawlJob represents an active crawl run
type CrawlJob struct {
	ID        uuid.UUID
	StartedAt time.Time
	Request   RunRequest
}

// Runner defines the interface for crawl execution
type Runner interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}

// RunManager manages active crawl runs
// ensures only one run at a time, the browser cannot be shared
// thread-safe
type RunManager struct {
	mu       sync.Mutex
	current  *CrawlJob
	cancelFn context.CancelFunc
	runner   Runner
	last     *RunResult
}

// NewRunManager creates a new run manager
func NewRunManager(runner Runner) *RunManager {
	return &RunManager{
		runner: runner,
	}
}

// Start starts a new crawl run
// returns ErrAlreadyRunning if a run is already in progress
func (m *RunManager) Start(_ context.Context, req RunRequest) (*CrawlJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil, ErrAlreadyRunning
	}

	// IMPORTANT: Use background context, NOT the HTTP request context!
	// The HTTP request context gets canceled when the handler returns,
	// which would immediately cancel the crawl. We create a new
	// cancellable context from Background() so the run continues after
	// the HTTP response is sent.
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancelFn = cancel

	job := &CrawlJob{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Request:   req,
	}
	m.current = job

	// run the actual crawl in a goroutine
	go m.run(runCtx, job)

	return job, nil
}

// Stop stops the current crawl run
// safe to call when nothing is running
func (m *RunManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancelFn != nil {
		m.cancelFn()
		m.cancelFn = nil
	}
	m.current = nil
}

// Current returns the running job, or nil when idle
func (m *RunManager) Current() *CrawlJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// LastResult returns the most recent finished run, or nil
func (m *RunManager) LastResult() *RunResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// run executes the crawl
// this is called in a goroutine
func (m *RunManager) run(ctx context.Context, job *CrawlJob) {
	defer func() {
		m.mu.Lock()
		if m.current != nil && m.current.ID == job.ID {
			m.current = nil
			m.cancelFn = nil
		}
		m.mu.Unlock()
	}()

	if m.runner == nil {
		return
	}

	result, _ := m.runner.Run(ctx, job.Request)
	// run errors are already logged and recorded inside Run

	m.mu.Lock()
	m.last = result
	m.mu.Unlock()
}
