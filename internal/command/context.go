package command

import (
	"context"
	"time"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

// Invocation carries one command invocation through checks, conversion and
// the handler. Bound values are reached through the typed accessors.
type Invocation struct {
	Event       *events.Message
	Command     *Command
	Prefix      string
	InvokedWith string
	RawArgs     string
	Args        *Args

	values map[string]any
	rest   []any
	extra  map[string]any
}

// NewInvocation builds the context for one command call. RawArgs is the
// text after the command name; it is tokenized lazily on first bind.
func NewInvocation(ev *events.Message, cmd *Command, prefix, invokedWith, rawArgs string) *Invocation {
	return &Invocation{
		Event:       ev,
		Command:     cmd,
		Prefix:      prefix,
		InvokedWith: invokedWith,
		RawArgs:     rawArgs,
		values:      make(map[string]any),
	}
}

// Has reports whether a value was bound for the named parameter. Optional
// parameters without a default report false when nothing was supplied.
func (inv *Invocation) Has(name string) bool {
	_, ok := inv.values[name]
	return ok
}

// Value returns the bound value for the named parameter, or nil.
func (inv *Invocation) Value(name string) any {
	return inv.values[name]
}

func (inv *Invocation) String(name string) string {
	v, _ := inv.values[name].(string)
	return v
}

func (inv *Invocation) Int(name string) int {
	v, _ := inv.values[name].(int)
	return v
}

func (inv *Invocation) Float(name string) float64 {
	v, _ := inv.values[name].(float64)
	return v
}

func (inv *Invocation) Bool(name string) bool {
	v, _ := inv.values[name].(bool)
	return v
}

func (inv *Invocation) Duration(name string) time.Duration {
	v, _ := inv.values[name].(time.Duration)
	return v
}

// Rest returns the values consumed by a variadic positional parameter.
func (inv *Invocation) Rest() []any {
	return inv.rest
}

// Extra returns the flags consumed by a variadic keyword parameter, keyed
// by flag name.
func (inv *Invocation) Extra() map[string]any {
	return inv.extra
}

// Flags returns the raw parsed flags, including ones bound to parameters.
func (inv *Invocation) Flags() []Arg {
	if inv.Args == nil {
		return nil
	}
	return inv.Args.Flags
}

// Reply sends text back to where the event came from.
func (inv *Invocation) Reply(ctx context.Context, text string) error {
	return inv.Event.Reply(ctx, text)
}

func (inv *Invocation) set(name string, v any) {
	if inv.values == nil {
		inv.values = make(map[string]any)
	}
	inv.values[name] = v
}
