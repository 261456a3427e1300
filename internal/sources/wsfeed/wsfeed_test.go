package wsfeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

func TestMessageEventMapping(t *testing.T) {
	s := New(Options{URL: "ws://gateway", BotLogin: "botty"})

	f := &frame{
		Type:        "message",
		ID:          "m1",
		Text:        "!ping",
		AuthorLogin: "alice",
		AuthorName:  "Alice",
		AuthorID:    "u1",
		Roles:       []string{"moderator", "subscriber"},
		RoomName:    "somechannel",
		RoomID:      "r1",
		Extra:       map[string]string{"color": "#FF0000"},
	}
	ev := s.messageEvent(f)

	if ev.Platform() != events.PlatformTwitch {
		t.Errorf("platform = %v", ev.Platform())
	}
	if !ev.Categories().Has(events.CategoryMessage) {
		t.Error("user message should carry the message category")
	}
	if ev.AuthorLogin != "alice" || ev.AuthorID != "u1" || ev.RoomID != "r1" {
		t.Errorf("identity = %+v", ev)
	}
	if !ev.Roles.Has(events.RoleModerator) || !ev.Roles.Has(events.RoleSubscriber) || !ev.Roles.Has(events.RoleUser) {
		t.Errorf("roles = %v", ev.Roles)
	}
	if ev.Payload["color"] != "#FF0000" {
		t.Errorf("payload = %v", ev.Payload)
	}
	if ev.Caps.MaxMessageLength != defaultMaxMessageLength {
		t.Errorf("max message length = %d", ev.Caps.MaxMessageLength)
	}
}

func TestMessageEventBotAuthor(t *testing.T) {
	s := New(Options{URL: "ws://gateway", BotLogin: "botty"})
	ev := s.messageEvent(&frame{Type: "message", ID: "m1", Text: "hi", AuthorLogin: "botty"})

	if !ev.Categories().Has(events.CategoryBotMessage) {
		t.Error("bot-authored message should carry the bot message category")
	}
	if ev.Categories().Has(events.CategoryMessage) {
		t.Error("bot-authored message should not route as a user message")
	}
}

func TestRedemptionEventMapping(t *testing.T) {
	s := New(Options{URL: "ws://gateway"})
	f := &frame{
		Type:        "redemption",
		ID:          "red1",
		Text:        "make it rain",
		AuthorID:    "u1",
		RoomID:      "r1",
		RewardID:    "rw1",
		RewardTitle: "Hydrate",
		RewardCost:  500,
	}
	ev := s.redemptionEvent(f)

	if ev.RewardID != "rw1" || ev.RewardTitle != "Hydrate" || ev.RewardCost != 500 {
		t.Errorf("reward = %+v", ev)
	}
	if ev.Status != events.RedemptionUnfulfilled {
		t.Errorf("status = %v", ev.Status)
	}

	// Status pushes need a live connection; a failed push must not
	// transition the redemption.
	if err := ev.Fulfill(context.Background()); err == nil {
		t.Error("Fulfill without a connection should fail")
	}
	if ev.Status != events.RedemptionUnfulfilled {
		t.Errorf("status after failed push = %v", ev.Status)
	}
}

func TestHandleFrameEmits(t *testing.T) {
	s := New(Options{URL: "ws://gateway"})
	var got []events.Event
	s.Attach(func(_ context.Context, ev events.Event) {
		got = append(got, ev)
	})

	s.handleFrame(context.Background(), &frame{Type: "message", ID: "m1", Text: "hi"})
	s.handleFrame(context.Background(), &frame{Type: "redemption", ID: "r1"})
	s.handleFrame(context.Background(), &frame{Type: "something_else"})

	if len(got) != 2 {
		t.Fatalf("emitted %d events", len(got))
	}
	if _, ok := got[0].(*events.Message); !ok {
		t.Errorf("first event is %T", got[0])
	}
	if _, ok := got[1].(*events.Redemption); !ok {
		t.Errorf("second event is %T", got[1])
	}
}

func TestSayWithoutConnection(t *testing.T) {
	s := New(Options{URL: "ws://gateway"})
	if err := s.Say(context.Background(), "r1", "hi"); err == nil {
		t.Error("Say without a connection should fail")
	}
}

// A gateway that drops every connection right after the handshake must not
// exhaust Run: each established connection starts the next cycle with fresh
// retry state, so the source outlives far more drops than one retry budget.
func TestRunSurvivesRepeatedDrops(t *testing.T) {
	var mu sync.Mutex
	conns := 0
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		conns++
		mu.Unlock()
		c.Close()
	}))
	defer srv.Close()

	s := New(Options{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(30 * time.Second)
	for {
		mu.Lock()
		n := conns
		mu.Unlock()
		if n > 110 {
			break
		}
		select {
		case err := <-done:
			t.Fatalf("Run exited after %d connections: %v", n, err)
		case <-deadline:
			t.Fatalf("timed out after %d connections", n)
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
