package command

import (
	"regexp"
	"strings"
	"unicode"
)

// Arg is a single parsed token: either a bare value or a name=value flag.
// A flag supplied without a value (e.g. a bare --verbose) has HasValue false.
type Arg struct {
	Name     string
	Value    string
	HasValue bool
}

// IsFlag reports whether the token was written in flag form.
func (a Arg) IsFlag() bool { return a.Name != "" }

var flagDelimiters = []string{"=", ":"}

// Flag grammar: name=value / name:value with a name of at least three
// letters, -x short flags, --name long flags.
var flagRe = regexp.MustCompile(`^(?:[-a-zA-Z]{2}[a-zA-Z]+[:=]+.+|-[a-zA-Z]\b|--[a-zA-Z_]+\b)`)

// Args is the tokenized trailing text of a command invocation.
type Args struct {
	Text string

	// List holds every token in order of appearance.
	List []Arg
	// Flags holds only the flag tokens, in order of appearance.
	Flags []Arg
	// Grouped joins consecutive bare tokens with spaces; flags act as
	// separators and are not included.
	Grouped []string
}

// ParseArgs tokenizes raw trailing text: whitespace-separated, honoring
// single/double quoting and backslash-escaped quote characters.
func ParseArgs(text string) *Args {
	a := &Args{Text: text}
	a.parse()
	return a
}

func (a *Args) parse() {
	if strings.TrimSpace(a.Text) == "" {
		return
	}

	raw := lexTokens(a.Text)

	for _, tok := range raw {
		quoted := len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"'
		if flagRe.MatchString(tok) {
			name := strings.TrimLeft(tok, "-")
			arg := Arg{Name: name}
			for _, d := range flagDelimiters {
				if !strings.Contains(tok, d) {
					continue
				}
				if j := strings.Index(name, d); j >= 0 {
					value := name[j+1:]
					arg.Name = name[:j]
					if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
						value = value[1 : len(value)-1]
					}
					arg.Value = value
					arg.HasValue = true
				}
				break
			}
			a.Flags = append(a.Flags, arg)
			a.List = append(a.List, arg)
			continue
		}
		if quoted {
			tok = tok[1 : len(tok)-1]
		}
		a.List = append(a.List, Arg{Value: tok, HasValue: true})
	}

	var group []string
	for _, arg := range a.List {
		if arg.IsFlag() {
			if len(group) > 0 {
				a.Grouped = append(a.Grouped, strings.Join(group, " "))
				group = nil
			}
			continue
		}
		group = append(group, arg.Value)
	}
	if len(group) > 0 {
		a.Grouped = append(a.Grouped, strings.Join(group, " "))
	}
}

// Flag returns the first flag matching one of the given names,
// case-insensitively.
func (a *Args) Flag(names ...string) (Arg, bool) {
	for _, f := range a.Flags {
		for _, n := range names {
			if strings.EqualFold(f.Name, n) {
				return f, true
			}
		}
	}
	return Arg{}, false
}

// Positional returns the bare (non-flag) token values in order.
func (a *Args) Positional() []string {
	var out []string
	for _, arg := range a.List {
		if !arg.IsFlag() {
			out = append(out, arg.Value)
		}
	}
	return out
}

// lexTokens splits text on whitespace outside quotes. Quoted runs are kept
// as single tokens wrapped in double quotes regardless of which quote
// character opened them; \" and \' produce literal quote characters.
func lexTokens(text string) []string {
	var (
		tokens  []string
		current []rune
		inQuote rune // 0 when outside quotes
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"' || ch == '\'':
			if i > 0 && runes[i-1] == '\\' && len(current) > 0 {
				// Escaped quote: the backslash already sits at the end of
				// current; replace it with the literal quote.
				current[len(current)-1] = ch
			} else if inQuote == 0 {
				current = append(current, '"')
				inQuote = ch
			} else if ch == inQuote {
				current = append(current, '"')
				inQuote = 0
			} else {
				current = append(current, ch)
			}
		case unicode.IsSpace(ch) && inQuote == 0:
			if len(current) > 0 {
				tokens = append(tokens, string(current))
				current = current[:0]
			}
		default:
			current = append(current, ch)
		}
	}
	if len(current) > 0 {
		tokens = append(tokens, string(current))
	}
	return tokens
}
