// /internal/storage/storage_test.go
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/command"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "datastore.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestPrefixesRoundtrip(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.GetPrefixes("twitch/r1")
	if err != nil {
		t.Fatalf("GetPrefixes: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("fresh room prefixes = %v", got)
	}

	if err := s.SetPrefixes("twitch/r1", []string{"?", "~"}); err != nil {
		t.Fatalf("SetPrefixes: %v", err)
	}
	got, err = s.GetPrefixes("twitch/r1")
	if err != nil {
		t.Fatalf("GetPrefixes: %v", err)
	}
	if len(got) != 2 || got[0] != "?" || got[1] != "~" {
		t.Errorf("prefixes = %v", got)
	}

	// Other rooms stay untouched.
	got, _ = s.GetPrefixes("twitch/r2")
	if len(got) != 0 {
		t.Errorf("other room prefixes = %v", got)
	}
}

func TestCommandHistoryBounded(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < commandHistoryLimit+5; i++ {
		rec := CommandHistoryRecord{
			RoomID:  "r1",
			Command: "ping",
			Param:   fmt.Sprintf("call-%d", i),
			Ok:      true,
		}
		if err := s.AppendCommandToHistory("twitch/r1", rec); err != nil {
			t.Fatalf("AppendCommandToHistory: %v", err)
		}
	}

	history, err := s.FetchCommandHistory("twitch/r1")
	if err != nil {
		t.Fatalf("FetchCommandHistory: %v", err)
	}
	if len(history) != commandHistoryLimit {
		t.Fatalf("history length = %d, want %d", len(history), commandHistoryLimit)
	}
	// The oldest entries are the ones dropped.
	if got := history[len(history)-1].Param; got != fmt.Sprintf("call-%d", commandHistoryLimit+4) {
		t.Errorf("newest entry = %q", got)
	}
}

func TestCommandCounters(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < 3; i++ {
		_ = s.AppendCommandToHistory("twitch/r1", CommandHistoryRecord{Command: "ping"})
	}
	_ = s.AppendCommandToHistory("twitch/r1", CommandHistoryRecord{Command: "help"})

	counters, err := s.FetchCommandCounters("twitch/r1")
	if err != nil {
		t.Fatalf("FetchCommandCounters: %v", err)
	}
	if counters["ping"] != 3 || counters["help"] != 1 {
		t.Errorf("counters = %v", counters)
	}
}

func TestPrefixResolverFallback(t *testing.T) {
	s := newTestStorage(t)
	r := &PrefixResolver{Store: s, Fallback: []string{"!"}}

	ev := events.NewMessage(events.PlatformTwitch, "m1", "hi")
	ev.RoomID = "r1"

	got := r.Prefixes(context.Background(), ev)
	if len(got) != 1 || got[0] != "!" {
		t.Errorf("fallback prefixes = %v", got)
	}

	if err := s.SetPrefixes(ev.BucketValue(events.BucketGuild), []string{"?"}); err != nil {
		t.Fatalf("SetPrefixes: %v", err)
	}
	got = r.Prefixes(context.Background(), ev)
	if len(got) != 1 || got[0] != "?" {
		t.Errorf("room prefixes = %v", got)
	}
}

func TestRecorderAppendsHistory(t *testing.T) {
	s := newTestStorage(t)
	hook := Recorder(s)

	ev := events.NewMessage(events.PlatformTwitch, "m1", "!ping now")
	ev.RoomID = "r1"
	ev.AuthorID = "u1"
	ev.AuthorLogin = "alice"
	cmd := &command.Command{Name: "ping"}
	inv := command.NewInvocation(ev, cmd, "!", "ping", "now")

	hook(context.Background(), inv, nil)

	history, err := s.FetchCommandHistory("twitch/r1")
	if err != nil {
		t.Fatalf("FetchCommandHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d", len(history))
	}
	rec := history[0]
	if rec.Command != "ping" || rec.Param != "now" || rec.Username != "alice" || !rec.Ok {
		t.Errorf("record = %+v", rec)
	}
}
