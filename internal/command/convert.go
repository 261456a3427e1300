package command

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Converter turns raw token text into a typed value. Implementations expose
// help metadata used to autogenerate usage text. To surface a custom message
// when conversion fails, return NewConversionError from Convert.
type Converter interface {
	Title() string
	ShortHelp() string
	Help() string
	Convert(ctx context.Context, inv *Invocation, raw string) (any, error)
}

// BareFlagConverter is implemented by converters that accept a flag given
// with no value (only Bool, which reads it as true).
type BareFlagConverter interface {
	BareFlagValue() any
}

// String passes text through unchanged.
type String struct{}

func (String) Title() string     { return "Text" }
func (String) ShortHelp() string { return "A text string" }
func (String) Help() string      { return "A sequence of characters." }

func (String) Convert(_ context.Context, _ *Invocation, raw string) (any, error) {
	return raw, nil
}

// Int parses a whole number.
type Int struct{}

func (Int) Title() string     { return "Number" }
func (Int) ShortHelp() string { return "An integer number" }
func (Int) Help() string      { return "A whole number without decimals." }

func (Int) Convert(_ context.Context, _ *Invocation, raw string) (any, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, NewConversionError("Expected an integer")
	}
	return n, nil
}

// Float parses a decimal number.
type Float struct{}

func (Float) Title() string     { return "Decimal" }
func (Float) ShortHelp() string { return "A decimal number" }
func (Float) Help() string      { return "A number with a decimal point." }

func (Float) Convert(_ context.Context, _ *Invocation, raw string) (any, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, NewConversionError("Expected a number")
	}
	return f, nil
}

// Bool parses a boolean literal. Accepts true/yes/1/on case-insensitively;
// everything else is false. A flag with no value reads as true.
type Bool struct{}

func (Bool) Title() string     { return "Boolean" }
func (Bool) ShortHelp() string { return "True or False" }
func (Bool) Help() string      { return "A boolean value (true/false, yes/no, on/off)." }

func (Bool) BareFlagValue() any { return true }

func (Bool) Convert(_ context.Context, _ *Invocation, raw string) (any, error) {
	switch strings.ToLower(raw) {
	case "true", "yes", "1", "on":
		return true, nil
	default:
		return false, nil
	}
}

// Duration parses a Go duration string such as 90s or 1h30m.
type Duration struct{}

func (Duration) Title() string     { return "Duration" }
func (Duration) ShortHelp() string { return "A duration like 30s or 5m" }
func (Duration) Help() string      { return "A time span with a unit suffix (s, m, h)." }

func (Duration) Convert(_ context.Context, _ *Invocation, raw string) (any, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, NewConversionError("Expected a duration like 30s or 5m")
	}
	return d, nil
}

// Choice restricts a value to a fixed option set, with optional aliases
// mapping onto canonical option names.
type Choice struct {
	title         string
	shortHelp     string
	caseSensitive bool
	definition    map[string][]string
	mapping       map[string]string
}

// NewChoice builds a Choice over plain options.
func NewChoice(options ...string) *Choice {
	defs := make(map[string][]string, len(options))
	for _, o := range options {
		defs[o] = nil
	}
	return NewChoiceMap(defs)
}

// NewChoiceMap builds a Choice from canonical options to their aliases.
func NewChoiceMap(definition map[string][]string) *Choice {
	c := &Choice{definition: definition}
	options := make([]string, 0, len(definition))
	for opt := range definition {
		options = append(options, opt)
	}
	sort.Strings(options)
	c.title = fmt.Sprintf("Choice (%d)", len(options))
	c.shortHelp = "One of the following: " + joinOr(options)
	c.rebuild()
	return c
}

// WithTitle overrides the generated title.
func (c *Choice) WithTitle(title string) *Choice {
	c.title = title
	return c
}

// CaseSensitive makes option matching case-sensitive. Must be called before
// the converter is used; it refolds the option and alias table.
func (c *Choice) CaseSensitive() *Choice {
	c.caseSensitive = true
	c.rebuild()
	return c
}

func (c *Choice) rebuild() {
	c.mapping = make(map[string]string, len(c.definition))
	for opt, aliases := range c.definition {
		c.mapping[c.fold(opt)] = opt
		for _, a := range aliases {
			c.mapping[c.fold(a)] = opt
		}
	}
}

func (c *Choice) fold(s string) string {
	if c.caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func (c *Choice) Title() string     { return c.title }
func (c *Choice) ShortHelp() string { return c.shortHelp }
func (c *Choice) Help() string      { return c.shortHelp }

func (c *Choice) Convert(_ context.Context, _ *Invocation, raw string) (any, error) {
	if opt, ok := c.mapping[c.fold(raw)]; ok {
		return opt, nil
	}
	return nil, NewConversionError(fmt.Sprintf("Choice %q is not a valid option. Valid choices: %s", raw, c.shortHelp))
}

// IntRange parses an integer constrained to an inclusive range.
type IntRange struct {
	Min, Max       int
	HasMin, HasMax bool
}

// IntBetween constrains to min..max inclusive.
func IntBetween(min, max int) IntRange {
	return IntRange{Min: min, Max: max, HasMin: true, HasMax: true}
}

// IntAtLeast constrains to values >= min.
func IntAtLeast(min int) IntRange { return IntRange{Min: min, HasMin: true} }

// IntAtMost constrains to values <= max.
func IntAtMost(max int) IntRange { return IntRange{Max: max, HasMax: true} }

func (r IntRange) Title() string {
	switch {
	case r.HasMin && r.HasMax:
		return fmt.Sprintf("Number (%d-%d)", r.Min, r.Max)
	case r.HasMax:
		return fmt.Sprintf("Number (%d-)", r.Max)
	default:
		return fmt.Sprintf("Number (%d+)", r.Min)
	}
}

func (r IntRange) ShortHelp() string {
	switch {
	case r.HasMin && r.HasMax:
		return fmt.Sprintf("An integer in the range %d to %d", r.Min, r.Max)
	case r.HasMax:
		return fmt.Sprintf("An integer less than or equal to %d", r.Max)
	default:
		return fmt.Sprintf("An integer greater than or equal to %d", r.Min)
	}
}

func (r IntRange) Help() string { return r.ShortHelp() }

func (r IntRange) Convert(_ context.Context, _ *Invocation, raw string) (any, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, NewConversionError("Expected an integer")
	}
	if r.HasMax && n > r.Max {
		return nil, NewConversionError(fmt.Sprintf("Number is out of range! Maximum value: %d", r.Max))
	}
	if r.HasMin && n < r.Min {
		return nil, NewConversionError(fmt.Sprintf("Number is out of range! Minimum value: %d", r.Min))
	}
	return n, nil
}

// FloatRange parses a decimal constrained to an inclusive range.
type FloatRange struct {
	Min, Max       float64
	HasMin, HasMax bool
}

// FloatBetween constrains to min..max inclusive.
func FloatBetween(min, max float64) FloatRange {
	return FloatRange{Min: min, Max: max, HasMin: true, HasMax: true}
}

func (r FloatRange) Title() string {
	switch {
	case r.HasMin && r.HasMax:
		return fmt.Sprintf("Decimal (%g-%g)", r.Min, r.Max)
	case r.HasMax:
		return fmt.Sprintf("Decimal (%g-)", r.Max)
	default:
		return fmt.Sprintf("Decimal (%g+)", r.Min)
	}
}

func (r FloatRange) ShortHelp() string {
	switch {
	case r.HasMin && r.HasMax:
		return fmt.Sprintf("A decimal number in the range %g to %g", r.Min, r.Max)
	case r.HasMax:
		return fmt.Sprintf("A decimal number less than or equal to %g", r.Max)
	default:
		return fmt.Sprintf("A decimal number greater than or equal to %g", r.Min)
	}
}

func (r FloatRange) Help() string { return r.ShortHelp() }

func (r FloatRange) Convert(_ context.Context, _ *Invocation, raw string) (any, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, NewConversionError("Expected a number")
	}
	if r.HasMax && f > r.Max {
		return nil, NewConversionError(fmt.Sprintf("Number is out of range! Maximum value: %g", r.Max))
	}
	if r.HasMin && f < r.Min {
		return nil, NewConversionError(fmt.Sprintf("Number is out of range! Minimum value: %g", r.Min))
	}
	return f, nil
}

var usernameRe = regexp.MustCompile(`^@?[a-zA-Z0-9][a-zA-Z0-9_]{2,24}$`)

// Username validates a chat username and strips the optional leading @.
type Username struct{}

func (Username) Title() string     { return "Username" }
func (Username) ShortHelp() string { return "A valid chat username" }
func (Username) Help() string      { return "A valid chat username" }

func (Username) Convert(_ context.Context, _ *Invocation, raw string) (any, error) {
	if !usernameRe.MatchString(raw) {
		return nil, NewConversionError("Not a valid username.")
	}
	return strings.TrimPrefix(raw, "@"), nil
}

// Pattern compiles the value as a regular expression.
type Pattern struct{}

func (Pattern) Title() string     { return "Regex" }
func (Pattern) ShortHelp() string { return "A regular expression" }
func (Pattern) Help() string      { return "A regular expression" }

func (Pattern) Convert(_ context.Context, _ *Invocation, raw string) (any, error) {
	re, err := regexp.Compile(raw)
	if err != nil {
		return nil, NewConversionError("Couldn't compile regex")
	}
	return re, nil
}

// joinOr joins options with commas and a final "or".
func joinOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " or " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
	}
}
