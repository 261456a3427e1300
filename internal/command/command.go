package command

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/abrokecube/ravenfall-channelbot-sub000/pkg/util"
)

// Handler runs a bound invocation.
type Handler func(ctx context.Context, inv *Invocation) error

// Verifier runs after binding and before the handler, for business-rule
// rejections that depend on the bound values. Return a VerificationFailure
// to surface a custom message to the user.
type Verifier func(ctx context.Context, inv *Invocation) error

// Command is a declarative command definition. Build one with a literal,
// then Compile it before use; the command dispatcher compiles on
// registration.
type Command struct {
	Name    string
	Aliases []string

	Title     string
	ShortHelp string
	Help      string
	Hidden    bool

	// Dispatcher is the id of the dispatcher this command belongs to.
	// Empty means the default command dispatcher.
	Dispatcher string

	Params   []*Parameter
	Checks   []Check
	Cooldown *Cooldown
	Verify   Verifier
	Run      Handler

	argNames     map[string]string
	paramsByName map[string]*Parameter
	compiled     bool
}

// Compile validates the definition and builds the lookup tables. It is
// idempotent and safe to call on an already compiled command.
func (c *Command) Compile() error {
	if c.compiled {
		return nil
	}
	if c.Name == "" {
		return &RegistrationError{Name: "(unnamed)", Kind: "command"}
	}
	if c.Title == "" {
		c.Title = capitalize(c.Name)
	}

	c.argNames = make(map[string]string)
	c.paramsByName = make(map[string]*Parameter)
	for _, p := range c.Params {
		if p.Converter == nil {
			p.Converter = String{}
		}
		if _, dup := c.paramsByName[p.Name]; dup {
			return &RegistrationError{Name: p.Name, Kind: "parameter"}
		}
		c.paramsByName[p.Name] = p

		names := append([]string{p.Name}, p.Aliases...)
		if p.DisplayName != "" {
			names = append(names, p.DisplayName)
		}
		for _, n := range names {
			key := strings.ToLower(n)
			if prev, dup := c.argNames[key]; dup && prev != p.Name {
				return &RegistrationError{Name: n, Kind: "parameter alias"}
			}
			c.argNames[key] = p.Name
		}
	}
	c.compiled = true
	return nil
}

// Invoke runs the full pipeline: checks, cooldown, argument binding,
// verification, handler. The first failing stage short-circuits.
func (c *Command) Invoke(ctx context.Context, inv *Invocation) error {
	if err := c.Compile(); err != nil {
		return err
	}
	for _, chk := range c.Checks {
		if err := chk.Evaluate(ctx, inv); err != nil {
			var cf *CheckFailure
			if errors.As(err, &cf) {
				return err
			}
			return NewCheckFailure("Check failed for command '" + c.Name + "'")
		}
	}
	if c.Cooldown != nil {
		if err := c.Cooldown.Check(inv.Event); err != nil {
			return err
		}
	}
	if len(c.Params) > 0 {
		if inv.Args == nil {
			inv.Args = ParseArgs(inv.RawArgs)
		}
		if err := c.bind(ctx, inv); err != nil {
			return err
		}
	}
	if c.Verify != nil {
		if err := c.Verify(ctx, inv); err != nil {
			var vf *VerificationFailure
			if errors.As(err, &vf) {
				return err
			}
			return NewVerificationFailure("Verification failed for command '" + c.Name + "'")
		}
	}
	if c.Run == nil {
		return nil
	}
	return c.Run(ctx, inv)
}

// bind walks the declared parameters in order and assigns tokens to them.
// Flags bind by name before positionals are considered; variadic parameters
// sweep up whatever remains on their side. Leftover tokens are an error.
func (c *Command) bind(ctx context.Context, inv *Invocation) error {
	positionals := inv.Args.Positional()

	named := make(map[string]Arg)
	var namedOrder []string
	hasVarKeyword := false
	for _, p := range c.Params {
		if p.Kind == KindVarKeyword {
			hasVarKeyword = true
		}
	}
	for _, tok := range inv.Args.Flags {
		name, ok := c.argNames[strings.ToLower(tok.Name)]
		if !ok {
			if !hasVarKeyword {
				return &UnknownFlagError{Flag: tok.Name}
			}
			name = tok.Name
		}
		if _, dup := named[name]; dup {
			return &DuplicateParameterError{Name: name}
		}
		named[name] = tok
		namedOrder = append(namedOrder, name)
	}

	pi := 0
	for i, p := range c.Params {
		switch p.Kind {
		case KindVarPositional:
			for _, raw := range positionals[pi:] {
				v, err := c.convertArg(ctx, inv, p, Arg{Value: raw, HasValue: true})
				if err != nil {
					return err
				}
				inv.rest = append(inv.rest, v)
			}
			pi = len(positionals)
			continue

		case KindVarKeyword:
			for _, name := range namedOrder {
				tok, ok := named[name]
				if !ok {
					continue
				}
				v, err := c.convertArg(ctx, inv, p, tok)
				if err != nil {
					return err
				}
				if inv.extra == nil {
					inv.extra = make(map[string]any)
				}
				inv.extra[name] = v
				delete(named, name)
			}
			continue
		}

		if tok, ok := named[p.Name]; ok {
			delete(named, p.Name)
			v, err := c.convertArg(ctx, inv, p, tok)
			if err != nil {
				return err
			}
			inv.set(p.Name, v)
			continue
		}

		if p.Kind == KindKeywordOnly {
			switch {
			case p.Default != nil:
				inv.set(p.Name, p.Default)
			case p.Optional:
				// stays unbound, Has reports false
			default:
				return &MissingRequiredArgumentError{Parameter: p}
			}
			continue
		}

		if pi < len(positionals) {
			raw := positionals[pi]
			pi++

			last := i == len(c.Params)-1
			_, isText := p.Converter.(String)
			if (p.Greedy || (last && isText)) && pi < len(positionals) {
				raw = raw + " " + strings.Join(positionals[pi:], " ")
				pi = len(positionals)
			} else if p.Absorb != nil && matchesAtStart(p.Absorb, raw) {
				// Extend with following tokens while the growing string
				// still matches.
				for pi < len(positionals) {
					next := raw + " " + positionals[pi]
					if !matchesAtStart(p.Absorb, next) {
						break
					}
					raw = next
					pi++
				}
			}

			v, err := c.convertArg(ctx, inv, p, Arg{Value: raw, HasValue: true})
			if err != nil {
				return err
			}
			inv.set(p.Name, v)
			continue
		}

		switch {
		case p.Default != nil:
			inv.set(p.Name, p.Default)
		case p.Optional:
		default:
			return &MissingRequiredArgumentError{Parameter: p}
		}
	}

	if len(named) > 0 {
		var left []string
		for _, name := range namedOrder {
			if _, ok := named[name]; ok {
				left = append(left, name)
			}
		}
		return &UnknownArgumentError{Arguments: left}
	}
	if pi < len(positionals) {
		return &UnknownArgumentError{Arguments: positionals[pi:]}
	}
	return nil
}

func (c *Command) convertArg(ctx context.Context, inv *Invocation, p *Parameter, tok Arg) (any, error) {
	if !tok.HasValue {
		if bare, ok := p.Converter.(BareFlagConverter); ok {
			return bare.BareFlagValue(), nil
		}
		return nil, &EmptyFlagValueError{Parameter: p}
	}
	v, err := p.Converter.Convert(ctx, inv, tok.Value)
	if err != nil {
		var ce *ConversionError
		if errors.As(err, &ce) {
			return nil, &ConversionError{Msg: ce.Msg, Value: tok.Value, Parameter: p, Err: ce.Err}
		}
		return nil, &ConversionError{Value: tok.Value, Parameter: p, Err: err}
	}
	return v, nil
}

func matchesAtStart(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}

// Usage renders the one-line usage string, e.g.
// "!give <user: Text> (amount: Number)".
func (c *Command) Usage(prefix, invokedWith string) string {
	if invokedWith == "" {
		invokedWith = c.Name
	}
	parts := []string{prefix + invokedWith}
	for _, p := range c.Params {
		if p.Hidden {
			continue
		}
		parts = append(parts, p.Display(""))
	}
	return strings.Join(parts, " ")
}

// HelpText renders the full help line: usage, description, check
// restrictions, aliases and cooldown, joined with " – ".
func (c *Command) HelpText(prefix, invokedWith string) string {
	if invokedWith == "" {
		invokedWith = c.Name
	}
	description := c.ShortHelp
	if description == "" {
		description = c.Help
	}

	var aliases string
	if len(c.Aliases) > 0 {
		list := append([]string(nil), c.Aliases...)
		if invokedWith != c.Name {
			for i, a := range list {
				if a == invokedWith {
					list = append(list[:i], list[i+1:]...)
					break
				}
			}
			list = append(list, c.Name)
		}
		sort.Strings(list)
		aliases = "Aliases: " + strings.Join(list, ", ")
	}

	var restrictions string
	if len(c.Checks) > 0 {
		titles := make([]string, 0, len(c.Checks))
		for _, chk := range c.Checks {
			t := chk.Title()
			if t == "" {
				t = chk.ShortHelp()
			}
			if t == "" {
				t = chk.Help()
			}
			titles = append(titles, t)
		}
		restrictions = "Limited to: " + capitalize(strings.Join(titles, ", "))
	}

	var cooldown string
	if c.Cooldown != nil {
		cooldown = "Cooldown: " + c.Cooldown.Describe()
	}

	return util.JoinNonEmpty(" – ",
		c.Usage(prefix, invokedWith), description, restrictions, aliases, cooldown)
}
