package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/command"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

// chatEvent builds a message whose replies are collected into the returned
// slice.
func chatEvent(text string) (*events.Message, *[]string) {
	m := events.NewMessage(events.PlatformTwitch, "m1", text)
	m.AuthorID = "u1"
	m.RoomID = "r1"
	replies := &[]string{}
	m.ReplyFunc = func(_ context.Context, t string) error {
		*replies = append(*replies, t)
		return nil
	}
	return m, replies
}

func TestDispatchInvokesCommand(t *testing.T) {
	d := NewCommandDispatcher(nil)
	var got *command.Invocation
	cmd := &command.Command{
		Name: "ping",
		Run: func(_ context.Context, inv *command.Invocation) error {
			got = inv
			return nil
		},
	}
	if err := d.AddCommand(cmd); err != nil {
		t.Fatalf("AddCommand: %v", err)
	}

	ev, _ := chatEvent("!ping")
	d.Dispatch(context.Background(), ev)
	if got == nil {
		t.Fatal("command did not run")
	}
	if got.Prefix != "!" || got.InvokedWith != "ping" {
		t.Errorf("Prefix = %q, InvokedWith = %q", got.Prefix, got.InvokedWith)
	}
}

func TestDispatchAcceptsRedemptionAsMessage(t *testing.T) {
	d := NewCommandDispatcher(nil)
	var got *command.Invocation
	_ = d.AddCommand(&command.Command{
		Name: "claim",
		Run: func(_ context.Context, inv *command.Invocation) error {
			got = inv
			return nil
		},
	})

	r := events.NewRedemption(events.PlatformTwitch, "red1", "!claim")
	r.Cats = events.Categories(events.CategoryMessage)
	r.AuthorID = "u1"
	r.RoomID = "r1"
	var replies []string
	r.ReplyFunc = func(_ context.Context, text string) error {
		replies = append(replies, text)
		return nil
	}

	d.Dispatch(context.Background(), r)
	if got == nil {
		t.Fatal("redemption did not invoke the command")
	}
	if got.InvokedWith != "claim" {
		t.Errorf("InvokedWith = %q", got.InvokedWith)
	}
	if len(replies) != 0 {
		t.Errorf("unexpected replies: %v", replies)
	}
}

func TestDispatchIgnoresUnprefixedAndUnknown(t *testing.T) {
	d := NewCommandDispatcher(nil)
	ran := false
	_ = d.AddCommand(&command.Command{
		Name: "ping",
		Run:  func(context.Context, *command.Invocation) error { ran = true; return nil },
	})

	for _, text := range []string{"ping", "!pong", "!pingpong", "hello !ping"} {
		ev, replies := chatEvent(text)
		d.Dispatch(context.Background(), ev)
		if ran {
			t.Fatalf("%q should not invoke the command", text)
		}
		if len(*replies) != 0 {
			t.Errorf("%q produced replies: %v", text, *replies)
		}
	}
}

func TestDispatchCaseInsensitiveKeepsCasing(t *testing.T) {
	d := NewCommandDispatcher(nil)
	var got *command.Invocation
	_ = d.AddCommand(&command.Command{
		Name: "ping",
		Run: func(_ context.Context, inv *command.Invocation) error {
			got = inv
			return nil
		},
	})

	ev, _ := chatEvent("!PiNg")
	d.Dispatch(context.Background(), ev)
	if got == nil {
		t.Fatal("command did not run")
	}
	if got.InvokedWith != "PiNg" {
		t.Errorf("InvokedWith = %q, want sender casing preserved", got.InvokedWith)
	}
}

func TestFindCommandPrefersLongestName(t *testing.T) {
	d := NewCommandDispatcher(nil)
	var ran string
	mk := func(name string) *command.Command {
		return &command.Command{
			Name: name,
			Run: func(_ context.Context, inv *command.Invocation) error {
				ran = inv.Command.Name
				return nil
			},
		}
	}
	_ = d.AddCommand(mk("quote"))
	_ = d.AddCommand(mk("quote add"))

	ev, _ := chatEvent("!quote add be excellent")
	d.Dispatch(context.Background(), ev)
	if ran != "quote add" {
		t.Errorf("ran %q, want the longer name", ran)
	}

	cmd, invokedWith, rawArgs := d.findCommand("quote add be excellent")
	if cmd == nil || cmd.Name != "quote add" {
		t.Fatalf("findCommand resolved %v", cmd)
	}
	if invokedWith != "quote add" || rawArgs != "be excellent" {
		t.Errorf("invokedWith = %q, rawArgs = %q", invokedWith, rawArgs)
	}
}

func TestDispatchPrefixPriority(t *testing.T) {
	d := NewCommandDispatcher(StaticPrefixes{"?", "!"})
	ran := 0
	_ = d.AddCommand(&command.Command{
		Name: "ping",
		Run:  func(context.Context, *command.Invocation) error { ran++; return nil },
	})

	for _, text := range []string{"?ping", "!ping"} {
		ev, _ := chatEvent(text)
		d.Dispatch(context.Background(), ev)
	}
	if ran != 2 {
		t.Errorf("ran %d times, want both prefixes accepted", ran)
	}
}

func TestDispatchMissingArgumentNotice(t *testing.T) {
	d := NewCommandDispatcher(nil)
	_ = d.AddCommand(&command.Command{
		Name:   "give",
		Params: []*command.Parameter{{Name: "user", Converter: command.Username{}}},
	})

	ev, replies := chatEvent("!give")
	d.Dispatch(context.Background(), ev)
	want := "❌ Usage: !give <user: Username> – Missing argument: user"
	if len(*replies) != 1 || (*replies)[0] != want {
		t.Errorf("replies = %q, want [%q]", *replies, want)
	}
}

func TestDispatchConversionNotice(t *testing.T) {
	d := NewCommandDispatcher(nil)
	_ = d.AddCommand(&command.Command{
		Name:   "count",
		Params: []*command.Parameter{{Name: "n", Converter: command.Int{}}},
	})

	ev, replies := chatEvent("!count five")
	d.Dispatch(context.Background(), ev)
	want := "❌ Error in argument 'n': Expected an integer"
	if len(*replies) != 1 || (*replies)[0] != want {
		t.Errorf("replies = %q, want [%q]", *replies, want)
	}
}

func TestDispatchUnknownFlagNotice(t *testing.T) {
	d := NewCommandDispatcher(nil)
	_ = d.AddCommand(&command.Command{
		Name:   "say",
		Params: []*command.Parameter{{Name: "text"}},
	})

	ev, replies := chatEvent("!say hi loud=yes")
	d.Dispatch(context.Background(), ev)
	want := "❌ Usage: !say <text: Text> – Unknown parameter: loud"
	if len(*replies) != 1 || (*replies)[0] != want {
		t.Errorf("replies = %q, want [%q]", *replies, want)
	}
}

func TestDispatchCooldownNoticeThrottled(t *testing.T) {
	d := NewCommandDispatcher(nil)
	_ = d.AddCommand(&command.Command{
		Name:     "ping",
		Cooldown: command.NewCooldown(1, time.Minute),
		Run:      func(context.Context, *command.Invocation) error { return nil },
	})

	ev, replies := chatEvent("!ping")
	d.Dispatch(context.Background(), ev) // runs
	d.Dispatch(context.Background(), ev) // denied, notice sent
	d.Dispatch(context.Background(), ev) // denied, notice throttled

	if len(*replies) != 1 {
		t.Fatalf("replies = %q, want exactly one notice", *replies)
	}
	if !strings.HasPrefix((*replies)[0], "❌ Command 'ping' is on cooldown. Try again in ") {
		t.Errorf("notice = %q", (*replies)[0])
	}
}

func TestDispatchCheckFailureNotice(t *testing.T) {
	d := NewCommandDispatcher(nil)
	_ = d.AddCommand(&command.Command{
		Name:   "mod",
		Checks: []command.Check{command.RequireRoles(events.RoleModerator)},
		Run:    func(context.Context, *command.Invocation) error { return nil },
	})

	ev, replies := chatEvent("!mod")
	d.Dispatch(context.Background(), ev)
	want := "❌ You do not have permission to use this command."
	if len(*replies) != 1 || (*replies)[0] != want {
		t.Errorf("replies = %q, want [%q]", *replies, want)
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	d := NewCommandDispatcher(nil)
	_ = d.AddCommand(&command.Command{
		Name: "boom",
		Run:  func(context.Context, *command.Invocation) error { panic("kaboom") },
	})

	ev, replies := chatEvent("!boom")
	d.Dispatch(context.Background(), ev)
	want := "❌ An unknown error occurred"
	if len(*replies) != 1 || (*replies)[0] != want {
		t.Errorf("replies = %q, want [%q]", *replies, want)
	}
}

func TestOnInvokeHook(t *testing.T) {
	d := NewCommandDispatcher(nil)
	_ = d.AddCommand(&command.Command{
		Name: "fail",
		Run:  func(context.Context, *command.Invocation) error { return errors.New("nope") },
	})
	_ = d.AddCommand(&command.Command{
		Name: "ok",
		Run:  func(context.Context, *command.Invocation) error { return nil },
	})

	var outcomes []error
	d.OnInvoke = func(_ context.Context, _ *command.Invocation, err error) {
		outcomes = append(outcomes, err)
	}

	ev, _ := chatEvent("!ok")
	d.Dispatch(context.Background(), ev)
	ev, _ = chatEvent("!fail")
	d.Dispatch(context.Background(), ev)

	if len(outcomes) != 2 || outcomes[0] != nil || outcomes[1] == nil {
		t.Errorf("outcomes = %v", outcomes)
	}
}

func TestAddCommandCollision(t *testing.T) {
	d := NewCommandDispatcher(nil)
	if err := d.AddCommand(&command.Command{Name: "ping", Aliases: []string{"p"}}); err != nil {
		t.Fatalf("AddCommand: %v", err)
	}

	var re *command.RegistrationError
	if err := d.AddCommand(&command.Command{Name: "pong", Aliases: []string{"P"}}); !errors.As(err, &re) {
		t.Errorf("alias collision: got %v, want RegistrationError", err)
	}
	if err := d.AddCommand(&command.Command{Name: "PING"}); !errors.As(err, &re) {
		t.Errorf("name collision: got %v, want RegistrationError", err)
	}
}

func TestRemoveCommandByAlias(t *testing.T) {
	d := NewCommandDispatcher(nil)
	_ = d.AddCommand(&command.Command{Name: "ping", Aliases: []string{"p"}})

	if err := d.RemoveCommand("p"); err != nil {
		t.Fatalf("RemoveCommand: %v", err)
	}
	if _, ok := d.Lookup("ping"); ok {
		t.Error("canonical name still registered after alias removal")
	}
	if _, ok := d.Lookup("p"); ok {
		t.Error("alias still registered")
	}
}

func TestCommandsSorted(t *testing.T) {
	d := NewCommandDispatcher(nil)
	for _, n := range []string{"zeta", "alpha", "mid"} {
		_ = d.AddCommand(&command.Command{Name: n})
	}
	cmds := d.Commands()
	if len(cmds) != 3 || cmds[0].Name != "alpha" || cmds[1].Name != "mid" || cmds[2].Name != "zeta" {
		names := make([]string, len(cmds))
		for i, c := range cmds {
			names[i] = c.Name
		}
		t.Errorf("Commands() order = %v", names)
	}
}
