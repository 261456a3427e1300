// Package events defines the normalized event envelopes the engine routes:
// category and platform tags, author identity and roles, room identity and
// formatting capabilities. Event sources construct these and hand them to
// the manager; everything downstream (dispatchers, listeners, commands)
// consumes them read-only.
package events

import (
	"context"
	"strings"
)

// Category tags an event for dispatcher routing. Dispatchers subscribe to a
// set of categories and receive every event whose set intersects theirs.
type Category uint8

const (
	CategoryGeneric Category = iota
	CategoryMessage
	CategoryCommand
	CategoryGameMessage
	CategoryBotMessage

	categoryCount
)

func (c Category) String() string {
	switch c {
	case CategoryGeneric:
		return "generic"
	case CategoryMessage:
		return "message"
	case CategoryCommand:
		return "command"
	case CategoryGameMessage:
		return "game_message"
	case CategoryBotMessage:
		return "bot_message"
	}
	return "unknown"
}

// CategorySet is a bitmask of categories.
type CategorySet uint16

func Categories(cats ...Category) CategorySet {
	var s CategorySet
	for _, c := range cats {
		s = s.Add(c)
	}
	return s
}

func (s CategorySet) Add(c Category) CategorySet { return s | 1<<c }

func (s CategorySet) Has(c Category) bool { return s&(1<<c) != 0 }

func (s CategorySet) Intersects(other CategorySet) bool { return s&other != 0 }

func (s CategorySet) Empty() bool { return s == 0 }

func (s CategorySet) String() string {
	var names []string
	for c := Category(0); c < categoryCount; c++ {
		if s.Has(c) {
			names = append(names, c.String())
		}
	}
	return strings.Join(names, ",")
}

// Platform identifies where an event originated.
type Platform uint8

const (
	PlatformUnknown Platform = iota
	PlatformTwitch
	PlatformWebFeed
	PlatformSchedule
	PlatformHTTP
)

func (p Platform) String() string {
	switch p {
	case PlatformTwitch:
		return "twitch"
	case PlatformWebFeed:
		return "webfeed"
	case PlatformSchedule:
		return "schedule"
	case PlatformHTTP:
		return "http"
	}
	return "unknown"
}

// Role is an author role. Every event author carries at least RoleUser.
type Role string

const (
	RoleBotAdmin   Role = "bot_admin"
	RoleAdmin      Role = "admin"
	RoleModerator  Role = "moderator"
	RoleSubscriber Role = "subscriber"
	RoleUser       Role = "user"
)

// RoleSet is the set of roles an event author holds.
type RoleSet map[Role]struct{}

func Roles(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles)+1)
	for _, r := range roles {
		s.Add(r)
	}
	return s
}

func (s RoleSet) Add(r Role) { s[r] = struct{}{} }

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

func (s RoleSet) Clone() RoleSet {
	out := make(RoleSet, len(s))
	for r := range s {
		out[r] = struct{}{}
	}
	return out
}

// Capabilities describes what the reply channel of a room supports.
type Capabilities struct {
	Multiline        bool
	MaxMessageLength int
}

// Bucket is a rate-limiting scope used to key cooldown windows.
type Bucket uint8

const (
	BucketUser Bucket = iota
	BucketChannel
	BucketGuild
	BucketGlobal
)

func (b Bucket) String() string {
	switch b {
	case BucketUser:
		return "user"
	case BucketChannel:
		return "channel"
	case BucketGuild:
		return "guild"
	case BucketGlobal:
		return "global"
	}
	return "unknown"
}

// Event is the envelope contract every routed occurrence satisfies.
// Clone must return a copy deep enough that mutating the copy is never
// observable through the original; the middleware chain relies on it.
type Event interface {
	Categories() CategorySet
	Platform() Platform
	Clone() Event
}

// Keyed is implemented by events that can resolve cooldown bucket
// dimensions to stable identity values.
type Keyed interface {
	BucketValue(b Bucket) string
}

// Replier is implemented by events that carry a usable reply channel.
type Replier interface {
	Reply(ctx context.Context, text string) error
}
