package events

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// ErrNoReplyChannel is returned by Reply when the source did not install a
// reply function.
var ErrNoReplyChannel = errors.New("events: no reply channel for this event")

// ReplyFunc sends text back to the room an event came from. Installed by the
// event source that constructed the event.
type ReplyFunc func(ctx context.Context, text string) error

// Message is the normalized chat-message envelope. Sources should build it
// with NewMessage so the category and role invariants hold.
type Message struct {
	Cats CategorySet
	From Platform

	ID   string
	Text string

	AuthorLogin string
	AuthorName  string
	AuthorID    string
	Roles       RoleSet

	RoomName string
	RoomID   string
	Caps     Capabilities

	// Payload carries platform-specific string fields that nothing in the
	// engine interprets.
	Payload map[string]string

	ReplyFunc ReplyFunc
}

// NewMessage builds a Message tagged with the message category and the
// baseline user role.
func NewMessage(from Platform, id, text string) *Message {
	return &Message{
		Cats:  Categories(CategoryMessage),
		From:  from,
		ID:    id,
		Text:  text,
		Roles: Roles(RoleUser),
	}
}

func (m *Message) Categories() CategorySet { return m.Cats }

func (m *Message) Platform() Platform { return m.From }

func (m *Message) Clone() Event {
	c := m.clone()
	return &c
}

func (m *Message) clone() Message {
	c := *m
	c.Roles = m.Roles.Clone()
	if m.Payload != nil {
		c.Payload = maps.Clone(m.Payload)
	}
	return c
}

// Reply sends text back through the source's reply channel.
func (m *Message) Reply(ctx context.Context, text string) error {
	if m.ReplyFunc == nil {
		return ErrNoReplyChannel
	}
	return m.ReplyFunc(ctx, text)
}

// BucketValue resolves a cooldown bucket dimension to a stable identity.
func (m *Message) BucketValue(b Bucket) string {
	switch b {
	case BucketUser:
		return m.AuthorID
	case BucketChannel:
		return m.RoomID
	case BucketGuild:
		return fmt.Sprintf("%s/%s", m.From, m.RoomID)
	case BucketGlobal:
		return "*"
	}
	return ""
}

// RedemptionStatus is the lifecycle state of a reward redemption.
type RedemptionStatus string

const (
	RedemptionUnfulfilled RedemptionStatus = "UNFULFILLED"
	RedemptionFulfilled   RedemptionStatus = "FULFILLED"
	RedemptionCanceled    RedemptionStatus = "CANCELED"
)

// StatusFunc updates a redemption's status on its originating platform.
type StatusFunc func(ctx context.Context, status RedemptionStatus) error

// Redemption is a reward-redemption event. It routes as a generic event by
// default, keeping redemptions out of the command path unless a source says
// otherwise.
type Redemption struct {
	Message

	RewardID    string
	RewardTitle string
	RewardCost  int
	Status      RedemptionStatus

	StatusFunc StatusFunc
}

// NewRedemption builds a Redemption in the unfulfilled state.
func NewRedemption(from Platform, id, userInput string) *Redemption {
	return &Redemption{
		Message: Message{
			Cats:  Categories(CategoryGeneric),
			From:  from,
			ID:    id,
			Text:  userInput,
			Roles: Roles(RoleUser),
		},
		Status: RedemptionUnfulfilled,
	}
}

func (r *Redemption) Clone() Event {
	c := *r
	c.Message = r.Message.clone()
	return &c
}

// UpdateStatus pushes a status change back to the platform. Only an
// unfulfilled redemption can transition.
func (r *Redemption) UpdateStatus(ctx context.Context, status RedemptionStatus) error {
	if r.StatusFunc == nil {
		return errors.New("events: redemption has no status channel")
	}
	if r.Status != RedemptionUnfulfilled {
		return fmt.Errorf("events: redemption is not unfulfilled (current: %s)", r.Status)
	}
	if err := r.StatusFunc(ctx, status); err != nil {
		return err
	}
	r.Status = status
	return nil
}

func (r *Redemption) Fulfill(ctx context.Context) error {
	return r.UpdateStatus(ctx, RedemptionFulfilled)
}

func (r *Redemption) Cancel(ctx context.Context) error {
	return r.UpdateStatus(ctx, RedemptionCanceled)
}
