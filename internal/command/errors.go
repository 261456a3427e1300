package command

import (
	"fmt"
	"strings"
	"time"
)

// Error is the root of the command error taxonomy. Dispatchers classify
// failures with errors.As against the concrete types below; anything that
// does not satisfy this interface is an unclassified handler error.
type Error interface {
	error
	commandError()
}

// ArgumentError marks errors detected while binding arguments. Always
// recoverable, always reported to the invoking user.
type ArgumentError interface {
	Error
	argumentError()
}

type commandErr struct{}

func (commandErr) commandError() {}

type argumentErr struct{ commandErr }

func (argumentErr) argumentError() {}

// UnknownFlagError reports a flag that maps to no parameter.
type UnknownFlagError struct {
	argumentErr
	Flag string
}

func (e *UnknownFlagError) Error() string {
	return fmt.Sprintf("unknown flag %q", e.Flag)
}

// DuplicateParameterError reports a parameter supplied more than once.
type DuplicateParameterError struct {
	argumentErr
	Name string
}

func (e *DuplicateParameterError) Error() string {
	return fmt.Sprintf("multiple values provided for parameter %q", e.Name)
}

// MissingRequiredArgumentError reports a required parameter with no value.
type MissingRequiredArgumentError struct {
	argumentErr
	Parameter *Parameter
}

func (e *MissingRequiredArgumentError) Error() string {
	kind := "argument"
	if e.Parameter.Kind == KindKeywordOnly {
		kind = "keyword-only argument"
	}
	return fmt.Sprintf("missing required %s: %s", kind, e.Parameter.Name)
}

// UnknownArgumentError reports leftover tokens no parameter consumed.
type UnknownArgumentError struct {
	argumentErr
	Arguments []string
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("unknown arguments: %s", strings.Join(e.Arguments, " "))
}

// ConversionError reports a token a converter could not turn into a value.
// Msg is the converter's user-facing message, if it supplied one.
type ConversionError struct {
	argumentErr
	Msg       string
	Value     string
	Parameter *Parameter
	Err       error
}

func (e *ConversionError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	name, title := "?", "value"
	if e.Parameter != nil {
		name = e.Parameter.Name
		title = e.Parameter.TypeTitle()
	}
	return fmt.Sprintf("could not convert %q (%s) to %s", e.Value, name, title)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// NewConversionError builds the error converters should return to surface a
// custom message to the user. The binder fills in value and parameter.
func NewConversionError(msg string) *ConversionError {
	return &ConversionError{Msg: msg}
}

// EmptyFlagValueError reports a value-less flag bound to a parameter whose
// converter needs a value.
type EmptyFlagValueError struct {
	argumentErr
	Parameter *Parameter
}

func (e *EmptyFlagValueError) Error() string {
	return fmt.Sprintf("expected a value for argument %q (type: %s)",
		e.Parameter.Name, e.Parameter.TypeTitle())
}

// CheckFailure is an authorization or precondition denial.
type CheckFailure struct {
	commandErr
	Msg string
}

func (e *CheckFailure) Error() string { return e.Msg }

// NewCheckFailure builds a CheckFailure with a custom user-facing message.
func NewCheckFailure(msg string) *CheckFailure { return &CheckFailure{Msg: msg} }

// VerificationFailure is a post-binding business-rule rejection raised by a
// command's verifier.
type VerificationFailure struct {
	commandErr
	Msg string
}

func (e *VerificationFailure) Error() string { return e.Msg }

// NewVerificationFailure builds a VerificationFailure with a custom message.
func NewVerificationFailure(msg string) *VerificationFailure {
	return &VerificationFailure{Msg: msg}
}

// OnCooldownError is a rate-limit denial carrying the time until the bucket
// frees up.
type OnCooldownError struct {
	commandErr
	RetryAfter time.Duration
	Cooldown   *Cooldown
}

func (e *OnCooldownError) Error() string {
	return fmt.Sprintf("on cooldown, retry in %s", e.RetryAfter.Round(time.Second))
}

// RegistrationError reports a duplicate name or alias at registration time.
type RegistrationError struct {
	commandErr
	Name string
	Kind string
}

func (e *RegistrationError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "command"
	}
	return fmt.Sprintf("%s %q already exists", kind, e.Name)
}
