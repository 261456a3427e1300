package command

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ParamKind is how a parameter consumes tokens.
type ParamKind uint8

const (
	// KindPositional binds from the next positional token or a matching
	// flag, whichever is supplied.
	KindPositional ParamKind = iota
	// KindKeywordOnly binds only from a matching flag.
	KindKeywordOnly
	// KindVarPositional consumes every remaining positional token.
	KindVarPositional
	// KindVarKeyword consumes every remaining unmatched flag.
	KindVarKeyword
)

// Parameter is a static descriptor declared per command at registration
// time. The zero value of optional fields is usable: the converter defaults
// to String and the display name to the parameter name.
type Parameter struct {
	Name        string
	DisplayName string
	Aliases     []string
	Converter   Converter
	Kind        ParamKind

	// Optional marks the parameter as allowed to bind nothing. Implied by a
	// non-nil Default and by the variadic kinds.
	Optional bool
	// Default is bound when no token supplies a value. A non-nil Default
	// implies Optional.
	Default any

	// Greedy makes the parameter consume and space-join every remaining
	// positional token.
	Greedy bool
	// Absorb extends the bound value with subsequent positional tokens for
	// as long as the growing string still matches, anchored at its start.
	Absorb *regexp.Regexp

	Hidden bool
	Help   string
}

func (p *Parameter) display() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// TypeTitle is the converter's title, used in usage and error text.
func (p *Parameter) TypeTitle() string {
	if p.Converter == nil {
		return String{}.Title()
	}
	return p.Converter.Title()
}

// Display renders the parameter for usage text: <required>, (optional) or
// (--flag) forms, annotated with the converter title.
func (p *Parameter) Display(invokedName string) string {
	s := invokedName
	if s == "" {
		s = p.display()
	}
	if title := p.TypeTitle(); title != "" {
		s += ": " + title
	}
	switch {
	case p.Kind == KindKeywordOnly:
		if len(s) == 1 {
			return "(-" + s + ")"
		}
		return "(--" + s + ")"
	case p.optional():
		return "(" + s + ")"
	default:
		return "<" + s + ">"
	}
}

func (p *Parameter) optional() bool {
	return p.Optional || p.Default != nil ||
		p.Kind == KindVarPositional || p.Kind == KindVarKeyword
}

// HelpText renders the detailed single-line help for this parameter.
func (p *Parameter) HelpText(invokedName string) string {
	aliases := append([]string(nil), p.Aliases...)
	if invokedName != "" && invokedName != p.Name {
		for i, a := range aliases {
			if a == invokedName {
				aliases = append(aliases[:i], aliases[i+1:]...)
				break
			}
		}
		aliases = append(aliases, p.Name)
	}
	if p.DisplayName != "" && p.DisplayName != p.Name && (invokedName == "" || invokedName == p.Name) {
		aliases = append(aliases, p.DisplayName)
	}
	sort.Strings(aliases)

	var parts []string
	parts = append(parts, p.Display(invokedName))

	help := p.Help
	typeHelp := ""
	if p.Converter != nil {
		typeHelp = p.Converter.ShortHelp()
		if typeHelp == "" {
			typeHelp = p.Converter.Help()
		}
	}
	if help == "" {
		switch {
		case p.Kind == KindVarKeyword:
			help = "Command accepts any named argument"
		case p.Kind == KindVarPositional:
			help = "Command accepts any additional arguments"
		default:
			help = typeHelp
			typeHelp = ""
		}
	}
	if help != "" {
		parts = append(parts, help)
	}

	props := []string{"required"}
	if p.optional() {
		props = []string{"optional"}
	}
	if p.Kind == KindKeywordOnly {
		props = append(props, "keyword-only")
	}
	parts = append(parts, capitalize(strings.Join(props, ", ")))

	if p.Default != nil && p.Default != false {
		parts = append(parts, fmt.Sprintf("Default: %v", p.Default))
	}
	if typeHelp != "" {
		parts = append(parts, fmt.Sprintf("Expects %s: %s", p.TypeTitle(), typeHelp))
	}
	if len(aliases) > 0 {
		parts = append(parts, "Aliases: "+strings.Join(aliases, ", "))
	}
	return strings.Join(parts, " – ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
