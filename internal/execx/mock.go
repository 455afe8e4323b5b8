package execx

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// MockHandler simulates one command. It may mutate a mock filesystem to
// stand in for the side effects of the real process.
type MockHandler func(cmd Command) (string, error)

type mockRoute struct {
	prefix  string
	handler MockHandler
}

// MockRunner implements Runner for testing. Commands are matched against
// registered prefixes of their rendered command line; unmatched commands succeed
// with empty output.
type MockRunner struct {
	mu     sync.Mutex
	calls  []Command
	routes []mockRoute
	ctx    context.Context

	// Missing lists binaries LookPath should not find
	Missing map[string]bool
}

// NewMockRunner creates a new MockRunner
func NewMockRunner() *MockRunner {
	return &MockRunner{
		ctx:     context.Background(),
		Missing: make(map[string]bool),
	}
}

// On registers a handler for commands whose command line starts with prefix.
// Later registrations win.
func (m *MockRunner) On(prefix string, handler MockHandler) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, mockRoute{prefix: prefix, handler: handler})
	return m
}

// Fail makes commands starting with prefix exit with status 1
func (m *MockRunner) Fail(prefix string) *MockRunner {
	return m.On(prefix, func(cmd Command) (string, error) {
		return "", fmt.Errorf("%w: %s: exit status 1", ErrCommandFailed, cmd)
	})
}

// Reply makes commands starting with prefix print output
func (m *MockRunner) Reply(prefix, output string) *MockRunner {
	return m.On(prefix, func(Command) (string, error) {
		return output, nil
	})
}

// WithContext returns the same mock; calls are shared
func (m *MockRunner) WithContext(ctx context.Context) Runner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx = ctx
	return m
}

func (m *MockRunner) Run(cmd Command) error {
	_, err := m.dispatch(cmd)
	return err
}

func (m *MockRunner) Output(cmd Command) (string, error) {
	out, err := m.dispatch(cmd)
	return strings.TrimSpace(out), err
}

func (m *MockRunner) LookPath(name string) (string, error) {
	if m.Missing[name] {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/local/bin/" + name, nil
}

func (m *MockRunner) dispatch(cmd Command) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	ctx := m.ctx
	var handler MockHandler
	line := cmd.String()
	for i := len(m.routes) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, m.routes[i].prefix) {
			handler = m.routes[i].handler
			break
		}
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCommandFailed, cmd, err)
	}
	if handler == nil {
		return "", nil
	}
	return handler(cmd)
}

// Calls returns every command executed so far
func (m *MockRunner) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Command(nil), m.calls...)
}

// CommandLines returns the rendered command lines executed so far
func (m *MockRunner) CommandLines() []string {
	calls := m.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}
