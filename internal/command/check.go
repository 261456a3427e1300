package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

// Check is an authorization/precondition predicate evaluated before a
// command runs. Evaluate returns nil to pass, a *CheckFailure to deny with a
// custom message, or any other error (wrapped into a generic denial so raw
// internals never reach the reply channel).
type Check interface {
	Title() string
	ShortHelp() string
	Help() string
	Evaluate(ctx context.Context, inv *Invocation) error
}

// HasRole passes when the event author holds at least one required role.
type HasRole struct {
	roles []events.Role
	title string
	help  string
}

// RequireRoles builds a HasRole check over the given roles.
func RequireRoles(roles ...events.Role) *HasRole {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = strings.ReplaceAll(string(r), "_", " ")
	}
	title := strings.Join(names, ", ")
	help := fmt.Sprintf("Requires the %s role.", title)
	if len(roles) > 1 {
		help = fmt.Sprintf("Requires one of the following roles: %s.", title)
	}
	return &HasRole{roles: roles, title: title, help: help}
}

func (c *HasRole) Title() string     { return c.title }
func (c *HasRole) ShortHelp() string { return c.title }
func (c *HasRole) Help() string      { return c.help }

func (c *HasRole) Evaluate(_ context.Context, inv *Invocation) error {
	for _, r := range c.roles {
		if inv.Event.Roles.Has(r) {
			return nil
		}
	}
	return NewCheckFailure("You do not have permission to use this command.")
}

// PlatformOnly passes only for events from one platform.
type PlatformOnly struct {
	platform events.Platform
}

// RequirePlatform builds a PlatformOnly check.
func RequirePlatform(p events.Platform) *PlatformOnly {
	return &PlatformOnly{platform: p}
}

func (c *PlatformOnly) Title() string {
	return fmt.Sprintf("%s only", c.platform)
}

func (c *PlatformOnly) ShortHelp() string { return c.Title() }

func (c *PlatformOnly) Help() string {
	return fmt.Sprintf("Can only be run on %s", c.platform)
}

func (c *PlatformOnly) Evaluate(_ context.Context, inv *Invocation) error {
	if inv.Event.From != c.platform {
		return NewCheckFailure(fmt.Sprintf("This command can only be run on %s.", c.platform))
	}
	return nil
}

// CheckFunc adapts a plain predicate into a Check. The predicate returns
// pass/deny plus an optional custom denial message.
type CheckFunc struct {
	Name string
	Desc string
	Fn   func(ctx context.Context, inv *Invocation) (bool, string)
}

func (c *CheckFunc) Title() string     { return c.Name }
func (c *CheckFunc) ShortHelp() string { return c.Desc }
func (c *CheckFunc) Help() string      { return c.Desc }

func (c *CheckFunc) Evaluate(ctx context.Context, inv *Invocation) error {
	ok, msg := c.Fn(ctx, inv)
	if ok {
		return nil
	}
	if msg == "" {
		msg = fmt.Sprintf("Check failed for command '%s'", inv.Command.Name)
	}
	return NewCheckFailure(msg)
}
