package testing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RenderCall records one invocation of a MockRenderer.
type RenderCall struct {
	Filename string
	Source   string
}

// MockRenderer is a render.Renderer that records its calls. By default it
// returns "<filename>|<source>" so tests can check both arguments reached
// the renderer.
type MockRenderer struct {
	mu        sync.Mutex
	calls     []RenderCall
	failures  map[string]error
	transform func(src []byte, filename string) ([]byte, error)
	delay     time.Duration

	inFlight    int64
	maxInFlight int64
}

func NewMockRenderer() *MockRenderer {
	return &MockRenderer{failures: make(map[string]error)}
}

// FailOn makes rendering filename return err.
func (m *MockRenderer) FailOn(filename string, err error) *MockRenderer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[filename] = err
	return m
}

// WithTransform replaces the default output.
func (m *MockRenderer) WithTransform(fn func(src []byte, filename string) ([]byte, error)) *MockRenderer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transform = fn
	return m
}

// WithDelay makes every render sleep for d, unless the context ends first.
func (m *MockRenderer) WithDelay(d time.Duration) *MockRenderer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

func (m *MockRenderer) Render(ctx context.Context, src []byte, filename string) ([]byte, error) {
	current := atomic.AddInt64(&m.inFlight, 1)
	defer atomic.AddInt64(&m.inFlight, -1)
	for {
		peak := atomic.LoadInt64(&m.maxInFlight)
		if current <= peak || atomic.CompareAndSwapInt64(&m.maxInFlight, peak, current) {
			break
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, RenderCall{Filename: filename, Source: string(src)})
	failure := m.failures[filename]
	transform := m.transform
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failure != nil {
		return nil, failure
	}
	if transform != nil {
		return transform(src, filename)
	}
	return []byte(fmt.Sprintf("%s|%s", filename, src)), nil
}

// Calls returns the recorded calls sorted by filename.
func (m *MockRenderer) Calls() []RenderCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]RenderCall, len(m.calls))
	copy(calls, m.calls)
	sort.Slice(calls, func(i, j int) bool {
		return calls[i].Filename < calls[j].Filename
	})
	return calls
}

func (m *MockRenderer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MaxInFlight reports the highest number of concurrent Render calls seen.
func (m *MockRenderer) MaxInFlight() int {
	return int(atomic.LoadInt64(&m.maxInFlight))
}

// UpperRenderer upper-cases its source.
func UpperRenderer(_ context.Context, src []byte, _ string) ([]byte, error) {
	return []byte(strings.ToUpper(string(src))), nil
}
