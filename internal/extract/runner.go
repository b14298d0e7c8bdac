package extract

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ExecRunner abstracts external command execution for testability.
type ExecRunner interface {
	// LookPath checks if a binary exists in PATH.
	LookPath(name string) (string, error)

	// Run executes a command with the prompt on stdin and returns its output.
	Run(ctx context.Context, name string, args []string, stdin string) (stdout, stderr string, err error)
}

// RealRunner implements ExecRunner using os/exec.
type RealRunner struct {
	// Timeout bounds each command execution.
	Timeout time.Duration
}

// NewRealRunner creates a runner with the given per-call timeout.
func NewRealRunner(timeout time.Duration) *RealRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RealRunner{Timeout: timeout}
}

// LookPath checks if a binary exists in PATH.
func (r *RealRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes a command and returns trimmed stdout/stderr.
func (r *RealRunner) Run(ctx context.Context, name string, args []string, stdin string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), err
}

// MockRunner implements ExecRunner for testing.
type MockRunner struct {
	mu       sync.Mutex
	lookPath map[string]string
	results  map[string]mockResult
	// Delay simulates a slow tool; Run honors context cancellation while
	// waiting so timeout paths are testable.
	Delay time.Duration
	calls int
}

type mockResult struct {
	stdout string
	stderr string
	err    error
}

// NewMockRunner creates a new mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		lookPath: make(map[string]string),
		results:  make(map[string]mockResult),
	}
}

// SetLookPath configures the mock to resolve name to path.
func (m *MockRunner) SetLookPath(name, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookPath[name] = path
}

// SetResult configures the result for any invocation of name.
func (m *MockRunner) SetResult(name, stdout, stderr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[name] = mockResult{stdout: stdout, stderr: stderr, err: err}
}

// Calls reports how many times Run was invoked.
func (m *MockRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LookPath implements ExecRunner.
func (m *MockRunner) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if path, ok := m.lookPath[name]; ok {
		return path, nil
	}
	return "", exec.ErrNotFound
}

// Run implements ExecRunner.
func (m *MockRunner) Run(ctx context.Context, name string, args []string, stdin string) (string, string, error) {
	m.mu.Lock()
	m.calls++
	result, ok := m.results[name]
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", "", ctx.Err()
		}
	}
	if !ok {
		return "", "", exec.ErrNotFound
	}
	return result.stdout, result.stderr, result.err
}
