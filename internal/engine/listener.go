package engine

import (
	"context"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/command"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

// Listener receives events from a dispatcher. Match decides whether the
// listener wants the event; Invoke runs it. Both are called with the
// dispatcher's failure isolation in place.
type Listener interface {
	Name() string
	DispatcherID() string
	Match(ctx context.Context, ev events.Event) (bool, error)
	Invoke(ctx context.Context, ev events.Event) error
}

// Filter restricts which events a generic listener matches. Zero-value
// fields do not restrict.
type Filter struct {
	Categories        events.CategorySet
	ExcludeCategories events.CategorySet
	Platforms         []events.Platform
	ExcludePlatforms  []events.Platform
}

func (f Filter) Match(ev events.Event) bool {
	if !f.Categories.Empty() && !f.Categories.Intersects(ev.Categories()) {
		return false
	}
	if f.ExcludeCategories.Intersects(ev.Categories()) {
		return false
	}
	if len(f.Platforms) > 0 && !containsPlatform(f.Platforms, ev.Platform()) {
		return false
	}
	if containsPlatform(f.ExcludePlatforms, ev.Platform()) {
		return false
	}
	return true
}

func containsPlatform(list []events.Platform, p events.Platform) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

// GenericListener adapts a plain handler function into a Listener for the
// generic dispatcher.
type GenericListener struct {
	ID       string
	Filter   Filter
	Cooldown *command.Cooldown
	Handler  func(ctx context.Context, ev events.Event) error
}

func (l *GenericListener) Name() string         { return l.ID }
func (l *GenericListener) DispatcherID() string { return DispatcherGeneric }

func (l *GenericListener) Match(_ context.Context, ev events.Event) (bool, error) {
	return l.Filter.Match(ev), nil
}

func (l *GenericListener) Invoke(ctx context.Context, ev events.Event) error {
	if l.Cooldown != nil {
		if err := l.Cooldown.Check(ev); err != nil {
			return err
		}
	}
	return l.Handler(ctx, ev)
}
