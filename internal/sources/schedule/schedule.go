// Package schedule synthesizes events on fixed intervals from a YAML job
// file. Each entry becomes a named job that periodically emits a generic
// event; cogs subscribe to them like any other event.
package schedule

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
	"github.com/abrokecube/ravenfall-channelbot-sub000/pkg/jobmgr"
)

// Entry is one scheduled emission.
type Entry struct {
	Name     string `yaml:"name"`
	Every    string `yaml:"every"`
	Text     string `yaml:"text"`
	RoomID   string `yaml:"room_id"`
	RoomName string `yaml:"room_name"`

	interval time.Duration
}

type scheduleFile struct {
	Jobs []Entry `yaml:"jobs"`
}

// Load parses a schedule file. Entries must carry a unique name and a
// positive interval.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}

	var f scheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}

	seen := make(map[string]bool)
	for i := range f.Jobs {
		e := &f.Jobs[i]
		if e.Name == "" {
			return nil, fmt.Errorf("schedule entry %d has no name", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("duplicate schedule entry %q", e.Name)
		}
		seen[e.Name] = true

		e.interval, err = time.ParseDuration(e.Every)
		if err != nil {
			return nil, fmt.Errorf("schedule entry %q: bad interval %q: %w", e.Name, e.Every, err)
		}
		if e.interval <= 0 {
			return nil, fmt.Errorf("schedule entry %q: interval must be positive", e.Name)
		}
	}
	return f.Jobs, nil
}

// Source emits one generic event per entry per interval.
type Source struct {
	events.Emitter

	entries []Entry
	jobs    *jobmgr.Manager
}

func New(entries []Entry) *Source {
	return &Source{
		entries: entries,
		jobs: jobmgr.NewManager(func(msg string) {
			log.Printf("[Schedule] %s", msg)
		}),
	}
}

// Start launches one job per entry. Jobs run until Stop.
func (s *Source) Start() error {
	for _, e := range s.entries {
		entry := e
		err := s.jobs.StartAsync(entry.Name, func(ctx context.Context) error {
			return s.tick(ctx, entry)
		})
		if err != nil {
			s.jobs.StopAll()
			return err
		}
	}
	return nil
}

// Stop cancels every running job.
func (s *Source) Stop() {
	s.jobs.StopAll()
}

// Status reports the active jobs.
func (s *Source) Status() string {
	return s.jobs.Status()
}

func (s *Source) tick(ctx context.Context, entry Entry) error {
	ticker := time.NewTicker(entry.interval)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			seq++
			s.Emit(ctx, s.event(entry, seq))
		}
	}
}

func (s *Source) event(entry Entry, seq int) *events.Message {
	ev := events.NewMessage(events.PlatformSchedule,
		fmt.Sprintf("%s/%d", entry.Name, seq), entry.Text)
	ev.Cats = events.Categories(events.CategoryGeneric)
	ev.RoomID = entry.RoomID
	ev.RoomName = entry.RoomName
	ev.Payload = map[string]string{"job": entry.Name}
	return ev
}
