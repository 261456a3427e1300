// Package core is the built-in cog: help and command discovery, a ping
// probe, and per-channel prefix and usage administration.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/command"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/engine"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/storage"
)

type Cog struct {
	engine.NopLifecycle

	dispatcher *engine.CommandDispatcher
	store      *storage.Storage
	defaults   []string
}

// New builds the core cog. The store may be nil; prefix and stats
// commands then report that persistence is unavailable.
func New(dispatcher *engine.CommandDispatcher, store *storage.Storage, defaultPrefixes []string) *Cog {
	return &Cog{
		dispatcher: dispatcher,
		store:      store,
		defaults:   defaultPrefixes,
	}
}

func (c *Cog) Name() string { return "core" }

func (c *Cog) Listeners() []engine.Listener { return nil }

func (c *Cog) Commands() []*command.Command {
	return []*command.Command{
		c.helpCommand(),
		c.pingCommand(),
		c.prefixCommand(),
		c.statsCommand(),
	}
}

func (c *Cog) helpCommand() *command.Command {
	return &command.Command{
		Name:      "help",
		Aliases:   []string{"commands"},
		ShortHelp: "Shows help for a command or lists all commands",
		Params: []*command.Parameter{
			{Name: "command", Optional: true, Help: "The command to show help for"},
		},
		Cooldown: command.NewCooldown(3, 10*time.Second, events.BucketChannel),
		Run: func(ctx context.Context, inv *command.Invocation) error {
			if !inv.Has("command") {
				return inv.Reply(ctx, c.listCommands(inv.Prefix))
			}

			name := strings.TrimPrefix(inv.String("command"), inv.Prefix)
			cmd, ok := c.dispatcher.Lookup(name)
			if !ok || cmd.Hidden {
				return inv.Reply(ctx, fmt.Sprintf("Command '%s' not found.", name))
			}
			return inv.Reply(ctx, cmd.HelpText(inv.Prefix, cmd.Name))
		},
	}
}

func (c *Cog) listCommands(prefix string) string {
	var names []string
	for _, cmd := range c.dispatcher.Commands() {
		if cmd.Hidden {
			continue
		}
		names = append(names, prefix+cmd.Name)
	}
	if len(names) == 0 {
		return "No commands are registered."
	}
	return "Available commands: " + strings.Join(names, ", ")
}

func (c *Cog) pingCommand() *command.Command {
	return &command.Command{
		Name:      "ping",
		ShortHelp: "Checks that the bot is alive",
		Cooldown:  command.NewCooldown(1, 5*time.Second, events.BucketChannel),
		Run: func(ctx context.Context, inv *command.Invocation) error {
			return inv.Reply(ctx, "Pong!")
		},
	}
}

func (c *Cog) prefixCommand() *command.Command {
	return &command.Command{
		Name:      "prefix",
		ShortHelp: "Shows or changes the command prefixes for this channel",
		Checks: []command.Check{
			command.RequireRoles(events.RoleModerator, events.RoleAdmin, events.RoleBotAdmin),
		},
		Params: []*command.Parameter{
			{Name: "prefixes", Kind: command.KindVarPositional,
				Help: "New prefixes, e.g. ! ?"},
		},
		Run: func(ctx context.Context, inv *command.Invocation) error {
			if c.store == nil {
				return inv.Reply(ctx, "Prefix storage is not available.")
			}
			key := inv.Event.BucketValue(events.BucketGuild)

			rest := inv.Rest()
			if len(rest) == 0 {
				prefixes, err := c.store.GetPrefixes(key)
				if err != nil {
					return err
				}
				if len(prefixes) == 0 {
					prefixes = c.defaults
				}
				return inv.Reply(ctx, "Current prefixes: "+strings.Join(prefixes, " "))
			}

			prefixes := make([]string, 0, len(rest))
			for _, v := range rest {
				p, _ := v.(string)
				if p == "" {
					continue
				}
				prefixes = append(prefixes, p)
			}
			if err := c.store.SetPrefixes(key, prefixes); err != nil {
				return err
			}
			return inv.Reply(ctx, "Prefixes updated: "+strings.Join(prefixes, " "))
		},
	}
}

func (c *Cog) statsCommand() *command.Command {
	return &command.Command{
		Name:      "cmdstats",
		ShortHelp: "Shows command usage counts for this channel",
		Checks: []command.Check{
			command.RequireRoles(events.RoleModerator, events.RoleAdmin, events.RoleBotAdmin),
		},
		Cooldown: command.NewCooldown(1, 30*time.Second, events.BucketChannel),
		Run: func(ctx context.Context, inv *command.Invocation) error {
			if c.store == nil {
				return inv.Reply(ctx, "Usage storage is not available.")
			}
			key := inv.Event.BucketValue(events.BucketGuild)

			counters, err := c.store.FetchCommandCounters(key)
			if err != nil {
				return err
			}
			if len(counters) == 0 {
				return inv.Reply(ctx, "No command usage recorded yet.")
			}

			type count struct {
				name string
				n    int
			}
			counts := make([]count, 0, len(counters))
			for name, n := range counters {
				counts = append(counts, count{name, n})
			}
			sort.Slice(counts, func(i, j int) bool {
				if counts[i].n != counts[j].n {
					return counts[i].n > counts[j].n
				}
				return counts[i].name < counts[j].name
			})
			if len(counts) > 10 {
				counts = counts[:10]
			}

			parts := make([]string, len(counts))
			for i, c := range counts {
				parts[i] = fmt.Sprintf("%s: %d", c.name, c.n)
			}
			return inv.Reply(ctx, "Command usage – "+strings.Join(parts, ", "))
		},
	}
}
