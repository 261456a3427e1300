// /internal/storage/resolver.go
package storage

import (
	"context"
	"log"
	"time"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/command"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

// PrefixResolver serves per-room command prefixes, falling back to a
// static list for rooms without an override.
type PrefixResolver struct {
	Store    *Storage
	Fallback []string
}

func (r *PrefixResolver) Prefixes(_ context.Context, ev *events.Message) []string {
	key := ev.BucketValue(events.BucketGuild)
	prefixes, err := r.Store.GetPrefixes(key)
	if err != nil {
		log.Printf("[WARN] Failed to load prefixes for %s: %v", key, err)
		return r.Fallback
	}
	if len(prefixes) == 0 {
		return r.Fallback
	}
	return prefixes
}

// Recorder returns an invocation hook that appends every command call to
// the room's history.
func Recorder(s *Storage) func(ctx context.Context, inv *command.Invocation, err error) {
	return func(_ context.Context, inv *command.Invocation, err error) {
		rec := CommandHistoryRecord{
			RoomID:   inv.Event.RoomID,
			RoomName: inv.Event.RoomName,
			UserID:   inv.Event.AuthorID,
			Username: inv.Event.AuthorLogin,
			Command:  inv.Command.Name,
			Param:    inv.RawArgs,
			Ok:       err == nil,
			Datetime: time.Now(),
		}
		key := inv.Event.BucketValue(events.BucketGuild)
		if e := s.AppendCommandToHistory(key, rec); e != nil {
			log.Printf("[WARN] Failed to log command %s: %v", inv.Command.Name, e)
		}
	}
}
