package core

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/engine"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/storage"
)

func newTestBot(t *testing.T) (*engine.Manager, *engine.CommandDispatcher, *storage.Storage) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "datastore.json"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	m := engine.NewManager()
	d := engine.NewCommandDispatcher(&storage.PrefixResolver{Store: store, Fallback: []string{"!"}})
	if err := m.AddDispatcher(d); err != nil {
		t.Fatalf("AddDispatcher: %v", err)
	}
	if err := m.AddCog(context.Background(), New(d, store, []string{"!"})); err != nil {
		t.Fatalf("AddCog: %v", err)
	}
	return m, d, store
}

func send(t *testing.T, m *engine.Manager, text string, roles ...events.Role) []string {
	t.Helper()
	ev := events.NewMessage(events.PlatformTwitch, "m1", text)
	ev.AuthorID = "u1"
	ev.AuthorLogin = "alice"
	ev.RoomID = "r1"
	for _, r := range roles {
		ev.Roles.Add(r)
	}
	var replies []string
	ev.ReplyFunc = func(_ context.Context, text string) error {
		replies = append(replies, text)
		return nil
	}
	m.Process(context.Background(), ev)
	return replies
}

func TestPing(t *testing.T) {
	m, _, _ := newTestBot(t)
	replies := send(t, m, "!ping")
	if len(replies) != 1 || replies[0] != "Pong!" {
		t.Errorf("replies = %q", replies)
	}
}

func TestHelpListsCommands(t *testing.T) {
	m, _, _ := newTestBot(t)
	replies := send(t, m, "!help")
	if len(replies) != 1 {
		t.Fatalf("replies = %q", replies)
	}
	got := replies[0]
	if !strings.HasPrefix(got, "Available commands: ") {
		t.Fatalf("reply = %q", got)
	}
	for _, name := range []string{"!help", "!ping", "!prefix", "!cmdstats"} {
		if !strings.Contains(got, name) {
			t.Errorf("listing %q missing %q", got, name)
		}
	}
}

func TestHelpForCommand(t *testing.T) {
	m, _, _ := newTestBot(t)

	replies := send(t, m, "!help ping")
	if len(replies) != 1 {
		t.Fatalf("replies = %q", replies)
	}
	want := "!ping – Checks that the bot is alive – Cooldown: 5s (channel)"
	if replies[0] != want {
		t.Errorf("reply = %q, want %q", replies[0], want)
	}

	replies = send(t, m, "!help nosuch")
	if len(replies) != 1 || replies[0] != "Command 'nosuch' not found." {
		t.Errorf("replies = %q", replies)
	}
}

func TestPrefixRequiresModerator(t *testing.T) {
	m, _, _ := newTestBot(t)
	replies := send(t, m, "!prefix")
	if len(replies) != 1 || !strings.HasPrefix(replies[0], "❌ ") {
		t.Errorf("replies = %q, want a denial", replies)
	}
}

func TestPrefixShowAndUpdate(t *testing.T) {
	m, _, store := newTestBot(t)

	replies := send(t, m, "!prefix", events.RoleModerator)
	if len(replies) != 1 || replies[0] != "Current prefixes: !" {
		t.Errorf("replies = %q", replies)
	}

	replies = send(t, m, "!prefix ? ~", events.RoleModerator)
	if len(replies) != 1 || replies[0] != "Prefixes updated: ? ~" {
		t.Errorf("replies = %q", replies)
	}

	prefixes, err := store.GetPrefixes("twitch/r1")
	if err != nil {
		t.Fatalf("GetPrefixes: %v", err)
	}
	if len(prefixes) != 2 || prefixes[0] != "?" {
		t.Errorf("stored prefixes = %v", prefixes)
	}

	// The new prefix works immediately through the resolver.
	replies = send(t, m, "?ping")
	if len(replies) != 1 || replies[0] != "Pong!" {
		t.Errorf("replies = %q", replies)
	}
}

func TestCmdStats(t *testing.T) {
	m, d, store := newTestBot(t)
	d.OnInvoke = storage.Recorder(store)

	send(t, m, "!ping")
	replies := send(t, m, "!cmdstats", events.RoleModerator)
	if len(replies) != 1 {
		t.Fatalf("replies = %q", replies)
	}
	want := "Command usage – ping: 1"
	if replies[0] != want {
		t.Errorf("reply = %q, want %q", replies[0], want)
	}
}

func TestCmdStatsEmpty(t *testing.T) {
	m, _, _ := newTestBot(t)
	replies := send(t, m, "!cmdstats", events.RoleModerator)
	if len(replies) != 1 || replies[0] != "No command usage recorded yet." {
		t.Errorf("replies = %q", replies)
	}
}
