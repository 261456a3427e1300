// Package wsfeed connects to a chat gateway over a websocket, translates
// inbound frames into engine events and carries replies back out. The
// gateway multiplexes chat messages and reward redemptions from the
// platform into one JSON stream.
package wsfeed

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
	"github.com/abrokecube/ravenfall-channelbot-sub000/pkg/retrylimit"
)

// Options configures a feed connection.
type Options struct {
	URL   string
	Token string

	// BotLogin marks messages authored by the bot itself so they route as
	// bot messages instead of user messages.
	BotLogin string

	// MaxMessageLength advertised to handlers via event capabilities.
	// Zero means the platform default.
	MaxMessageLength int
}

const defaultMaxMessageLength = 500

// frame is the gateway wire format, both directions.
type frame struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Nonce string `json:"nonce,omitempty"`

	Text        string            `json:"text,omitempty"`
	AuthorLogin string            `json:"author_login,omitempty"`
	AuthorName  string            `json:"author_name,omitempty"`
	AuthorID    string            `json:"author_id,omitempty"`
	Roles       []string          `json:"roles,omitempty"`
	RoomName    string            `json:"room_name,omitempty"`
	RoomID      string            `json:"room_id,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`

	RewardID    string `json:"reward_id,omitempty"`
	RewardTitle string `json:"reward_title,omitempty"`
	RewardCost  int    `json:"reward_cost,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Source is a websocket event source. Attach it to the manager, then Run
// it; Run blocks until the context is cancelled, reconnecting with backoff
// whenever the connection drops.
type Source struct {
	events.Emitter

	opts Options
	lim  *retrylimit.AdaptiveLimiter

	mu   sync.Mutex
	conn *websocket.Conn
}

// New builds a feed source. Outbound sends are paced by an adaptive
// limiter so a chatty cog cannot trip the platform's message rate limit.
func New(opts Options) *Source {
	if opts.MaxMessageLength == 0 {
		opts.MaxMessageLength = defaultMaxMessageLength
	}
	return &Source{
		opts: opts,
		lim:  retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
	}
}

// Run connects and pumps events until ctx is done. Connection drops are
// retried with exponential backoff; the backoff resets once a connection
// has been established.
func (s *Source) Run(ctx context.Context) error {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = 0
	cfg.OnRetry = func(attempt int, err error) {
		log.Printf("[WARN] Feed connection attempt %d failed: %v", attempt, err)
	}

	for {
		var conn *websocket.Conn
		err := retrylimit.WithRetryConfig(ctx, func() error {
			c, err := s.dial(ctx)
			if err != nil {
				return err
			}
			conn = c
			return nil
		}, nil, cfg)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}

		if err := s.pump(ctx, conn); err != nil {
			log.Printf("[WARN] Feed connection lost: %v", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *Source) dial(ctx context.Context) (*websocket.Conn, error) {
	header := map[string][]string{}
	if s.opts.Token != "" {
		header["Authorization"] = []string{"Bearer " + s.opts.Token}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.opts.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.opts.URL, err)
	}
	log.Printf("Connected to feed at %s", s.opts.URL)
	return conn, nil
}

func (s *Source) pump(ctx context.Context, conn *websocket.Conn) error {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		s.handleFrame(ctx, &f)
	}
}

func (s *Source) handleFrame(ctx context.Context, f *frame) {
	switch f.Type {
	case "message":
		s.Emit(ctx, s.messageEvent(f))
	case "redemption":
		s.Emit(ctx, s.redemptionEvent(f))
	case "ping":
		if err := s.send(ctx, &frame{Type: "pong", Nonce: f.Nonce}); err != nil {
			log.Printf("[WARN] Failed to answer ping: %v", err)
		}
	default:
		log.Printf("[WARN] Unknown frame type %q", f.Type)
	}
}

func (s *Source) messageEvent(f *frame) *events.Message {
	ev := events.NewMessage(events.PlatformTwitch, f.ID, f.Text)
	ev.AuthorLogin = f.AuthorLogin
	ev.AuthorName = f.AuthorName
	ev.AuthorID = f.AuthorID
	ev.RoomName = f.RoomName
	ev.RoomID = f.RoomID
	ev.Payload = f.Extra
	ev.Caps = events.Capabilities{MaxMessageLength: s.opts.MaxMessageLength}
	for _, r := range f.Roles {
		ev.Roles.Add(events.Role(r))
	}
	if s.opts.BotLogin != "" && f.AuthorLogin == s.opts.BotLogin {
		ev.Cats = events.Categories(events.CategoryBotMessage)
	}
	roomID := f.RoomID
	ev.ReplyFunc = func(ctx context.Context, text string) error {
		return s.Say(ctx, roomID, text)
	}
	return ev
}

func (s *Source) redemptionEvent(f *frame) *events.Redemption {
	ev := events.NewRedemption(events.PlatformTwitch, f.ID, f.Text)
	ev.AuthorLogin = f.AuthorLogin
	ev.AuthorName = f.AuthorName
	ev.AuthorID = f.AuthorID
	ev.RoomName = f.RoomName
	ev.RoomID = f.RoomID
	ev.RewardID = f.RewardID
	ev.RewardTitle = f.RewardTitle
	ev.RewardCost = f.RewardCost
	if f.Status != "" {
		ev.Status = events.RedemptionStatus(f.Status)
	}
	roomID := f.RoomID
	ev.ReplyFunc = func(ctx context.Context, text string) error {
		return s.Say(ctx, roomID, text)
	}
	id := f.ID
	ev.StatusFunc = func(ctx context.Context, status events.RedemptionStatus) error {
		return s.send(ctx, &frame{
			Type:   "redemption_update",
			ID:     id,
			RoomID: roomID,
			Status: string(status),
		})
	}
	return ev
}

// Say sends a chat line to a room, paced by the outbound limiter.
func (s *Source) Say(ctx context.Context, roomID, text string) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}
	err := s.send(ctx, &frame{
		Type:   "say",
		Nonce:  uuid.NewString(),
		RoomID: roomID,
		Text:   text,
	})
	if err != nil {
		s.lim.RateLimited()
		return err
	}
	s.lim.Success()
	return nil
}

func (s *Source) send(_ context.Context, f *frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("feed is not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteJSON(f)
}
