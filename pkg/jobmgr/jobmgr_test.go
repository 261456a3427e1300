package jobmgr

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// collector is a StatusReporter that records messages and signals when a
// terminal message arrives.
type collector struct {
	mu   sync.Mutex
	msgs []string
	done chan string
}

func newCollector() *collector {
	return &collector{done: make(chan string, 8)}
}

func (c *collector) report(msg string) {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
	if strings.HasPrefix(msg, "done:") || strings.HasPrefix(msg, "error:") {
		c.done <- msg
	}
}

func (c *collector) wait(t *testing.T) string {
	t.Helper()
	select {
	case msg := <-c.done:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job completion")
		return ""
	}
}

func TestStartAsyncLifecycle(t *testing.T) {
	rep := newCollector()
	m := NewManager(rep.report)

	if err := m.StartAsync("work", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("StartAsync: %v", err)
	}
	if msg := rep.wait(t); msg != "done:work" {
		t.Errorf("terminal message = %q", msg)
	}
}

func TestStartAsyncReportsErrors(t *testing.T) {
	rep := newCollector()
	m := NewManager(rep.report)

	_ = m.StartAsync("work", func(context.Context) error { return errors.New("boom") })
	if msg := rep.wait(t); msg != "error:work:boom" {
		t.Errorf("terminal message = %q", msg)
	}
}

func TestStartAsyncRejectsDuplicates(t *testing.T) {
	m := NewManager(nil)
	block := make(chan struct{})
	defer close(block)

	_ = m.StartAsync("work", func(ctx context.Context) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	})
	if err := m.StartAsync("work", func(context.Context) error { return nil }); err == nil {
		t.Error("duplicate StartAsync should fail")
	}
}

func TestStopCancelsJob(t *testing.T) {
	rep := newCollector()
	m := NewManager(rep.report)

	_ = m.StartAsync("work", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	if err := m.Stop("work"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	rep.wait(t)

	if err := m.Stop("work"); err == nil {
		t.Error("stopping a finished job should fail")
	}
}

func TestStopAllAndStatus(t *testing.T) {
	m := NewManager(nil)
	if got := m.Status(); got != "No jobs are running." {
		t.Errorf("Status() = %q", got)
	}

	started := make(chan struct{}, 2)
	finished := make(chan struct{}, 2)
	for _, name := range []string{"a", "b"} {
		_ = m.StartAsync(name, func(ctx context.Context) error {
			started <- struct{}{}
			<-ctx.Done()
			finished <- struct{}{}
			return nil
		})
	}
	<-started
	<-started

	if got := len(m.List()); got != 2 {
		t.Errorf("List() length = %d", got)
	}
	if got := m.Status(); !strings.HasPrefix(got, "Running jobs: ") {
		t.Errorf("Status() = %q", got)
	}

	m.StopAll()
	<-finished
	<-finished
	if got := len(m.List()); got != 0 {
		t.Errorf("List() after StopAll = %d", got)
	}
}
