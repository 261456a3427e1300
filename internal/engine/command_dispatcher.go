package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/command"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
	"github.com/abrokecube/ravenfall-channelbot-sub000/pkg/util"
)

// PrefixResolver supplies the command prefixes accepted for a message, in
// priority order. Allows per-room prefixes backed by storage.
type PrefixResolver interface {
	Prefixes(ctx context.Context, ev *events.Message) []string
}

// StaticPrefixes is a fixed prefix list.
type StaticPrefixes []string

func (p StaticPrefixes) Prefixes(context.Context, *events.Message) []string { return p }

// CommandRegistrar is implemented by dispatchers that hold commands.
type CommandRegistrar interface {
	AddCommand(cmd *command.Command) error
	RemoveCommand(name string) error
}

// CommandDispatcher resolves message events to registered commands,
// invokes them and reports failures back to the invoking user.
type CommandDispatcher struct {
	prefixes PrefixResolver

	// OnInvoke, when set, is called after every command invocation with
	// the outcome. Used for usage accounting.
	OnInvoke func(ctx context.Context, inv *command.Invocation, err error)

	mu       sync.RWMutex
	commands map[string]*command.Command
	index    map[string]*command.Command

	noticeCooldown *command.Cooldown
}

// NewCommandDispatcher builds a command dispatcher. A nil resolver falls
// back to the "!" prefix.
func NewCommandDispatcher(prefixes PrefixResolver) *CommandDispatcher {
	if prefixes == nil {
		prefixes = StaticPrefixes{"!"}
	}
	return &CommandDispatcher{
		prefixes: prefixes,
		commands: make(map[string]*command.Command),
		index:    make(map[string]*command.Command),
		noticeCooldown: command.NewCooldown(1, 5*time.Second,
			events.BucketUser, events.BucketChannel),
	}
}

func (d *CommandDispatcher) ID() string { return DispatcherCommand }

func (d *CommandDispatcher) Categories() events.CategorySet {
	return events.Categories(events.CategoryMessage)
}

// AddCommand compiles and registers a command under its name and every
// alias. Collisions with already registered names are an error.
func (d *CommandDispatcher) AddCommand(cmd *command.Command) error {
	if err := cmd.Compile(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	names := append([]string{cmd.Name}, cmd.Aliases...)
	for _, n := range names {
		if _, ok := d.index[strings.ToLower(n)]; ok {
			return &command.RegistrationError{Name: n, Kind: "command"}
		}
	}
	d.commands[cmd.Name] = cmd
	for _, n := range names {
		d.index[strings.ToLower(n)] = cmd
	}
	return nil
}

// RemoveCommand unregisters a command and all of its aliases. The name may
// be the canonical name or any alias.
func (d *CommandDispatcher) RemoveCommand(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmd, ok := d.index[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("command %q does not exist", name)
	}
	delete(d.commands, cmd.Name)
	delete(d.index, strings.ToLower(cmd.Name))
	for _, a := range cmd.Aliases {
		delete(d.index, strings.ToLower(a))
	}
	return nil
}

// Lookup resolves a command by name or alias.
func (d *CommandDispatcher) Lookup(name string) (*command.Command, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cmd, ok := d.index[strings.ToLower(name)]
	return cmd, ok
}

// Commands returns every registered command, sorted by name.
func (d *CommandDispatcher) Commands() []*command.Command {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*command.Command, 0, len(d.commands))
	for _, cmd := range d.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// findCommand matches content against registered names longest-first, so
// multi-word names win over their single-word prefixes. The match is
// case-insensitive; the returned invoked name keeps the sender's casing.
func (d *CommandDispatcher) findCommand(content string) (*command.Command, string, string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.index))
	for n := range d.index {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	folded := strings.ToLower(content)
	for _, n := range names {
		if folded == n || strings.HasPrefix(folded, n+" ") {
			return d.index[n], content[:len(n)], strings.TrimSpace(content[len(n):])
		}
	}
	return nil, "", content
}

func (d *CommandDispatcher) Dispatch(ctx context.Context, ev events.Event) {
	// Redemptions are messages underneath, so a source that routes them as
	// chat can trigger commands with them too.
	var msg *events.Message
	switch v := ev.(type) {
	case *events.Message:
		msg = v
	case *events.Redemption:
		msg = &v.Message
	default:
		return
	}

	var used string
	for _, p := range d.prefixes.Prefixes(ctx, msg) {
		if p != "" && strings.HasPrefix(msg.Text, p) {
			used = p
			break
		}
	}
	if used == "" {
		return
	}
	content := msg.Text[len(used):]

	cmd, invokedWith, rawArgs := d.findCommand(content)
	if cmd == nil {
		return
	}

	inv := command.NewInvocation(msg, cmd, used, invokedWith, rawArgs)
	err := d.invoke(ctx, inv)
	if d.OnInvoke != nil {
		d.OnInvoke(ctx, inv, err)
	}
	if err != nil {
		log.Printf("[ERROR] Error occurred during command %s invocation: %v", cmd.Name, err)
		d.respondError(ctx, inv, err)
	}
}

func (d *CommandDispatcher) invoke(ctx context.Context, inv *command.Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %s panicked: %v", inv.Command.Name, r)
		}
	}()
	return inv.Command.Invoke(ctx, inv)
}

// respondError maps a failed invocation to a user-facing notice. Cooldown
// and check denials are themselves throttled so a spammed command does not
// make the bot spam back.
func (d *CommandDispatcher) respondError(ctx context.Context, inv *command.Invocation, err error) {
	usage := inv.Command.Usage(inv.Prefix, inv.InvokedWith)

	var (
		onCooldown *command.OnCooldownError
		missing    *command.MissingRequiredArgumentError
		emptyFlag  *command.EmptyFlagValueError
		conversion *command.ConversionError
		unkArg     *command.UnknownArgumentError
		unkFlag    *command.UnknownFlagError
		check      *command.CheckFailure
		verify     *command.VerificationFailure
	)

	var text string
	switch {
	case errors.As(err, &onCooldown):
		if d.noticeCooldown.RetryAfter(inv.Event) > 0 {
			return
		}
		d.noticeCooldown.Update(inv.Event)
		text = fmt.Sprintf("❌ Command '%s' is on cooldown. Try again in %s.",
			inv.Command.Name, util.HumanDurationLong(onCooldown.RetryAfter))
	case errors.As(err, &missing):
		text = fmt.Sprintf("❌ Usage: %s – Missing argument: %s", usage, missing.Parameter.Name)
	case errors.As(err, &emptyFlag):
		text = fmt.Sprintf("❌ Expected a value for argument '%s' (type: %s)",
			emptyFlag.Parameter.Name, emptyFlag.Parameter.TypeTitle())
	case errors.As(err, &conversion):
		if conversion.Msg != "" {
			text = fmt.Sprintf("❌ Error in argument '%s': %s",
				conversion.Parameter.Name, conversion.Msg)
		} else {
			text = fmt.Sprintf("❌ Error turning '%s' (%s) into %s",
				conversion.Value, conversion.Parameter.Name, conversion.Parameter.TypeTitle())
		}
	case errors.As(err, &unkArg):
		text = fmt.Sprintf("❌ Usage: %s – Unknown argument: %s", usage, unkArg.Arguments[0])
	case errors.As(err, &unkFlag):
		text = fmt.Sprintf("❌ Usage: %s – Unknown parameter: %s", usage, unkFlag.Flag)
	case errors.As(err, &check):
		if d.noticeCooldown.RetryAfter(inv.Event) > 0 {
			return
		}
		d.noticeCooldown.Update(inv.Event)
		text = "❌ " + check.Msg
	case errors.As(err, &verify):
		text = "❌ " + verify.Msg
	default:
		var known command.Error
		if errors.As(err, &known) {
			text = "❌ " + known.Error()
		} else {
			text = "❌ An unknown error occurred"
		}
	}

	if rerr := inv.Reply(ctx, text); rerr != nil {
		log.Printf("[WARN] Failed to report command error: %v", rerr)
	}
}
