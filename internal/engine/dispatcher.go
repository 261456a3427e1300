package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

// Dispatcher ids known to the manager. Custom dispatchers register under
// their own ids.
const (
	DispatcherGeneric = "generic"
	DispatcherCommand = "command"
)

// Dispatcher receives every event whose category set intersects its own.
type Dispatcher interface {
	ID() string
	Categories() events.CategorySet
	Dispatch(ctx context.Context, ev events.Event)
}

// ListenerRegistrar is implemented by dispatchers that hold listeners.
type ListenerRegistrar interface {
	AddListener(l Listener) error
	RemoveListener(name string) error
}

// SimpleDispatcher runs every matching listener for every event it
// receives. A failing listener never prevents the others from running.
type SimpleDispatcher struct {
	id   string
	cats events.CategorySet

	mu        sync.RWMutex
	listeners map[string]Listener
}

// NewSimpleDispatcher builds the default generic dispatcher, subscribed to
// every built-in category.
func NewSimpleDispatcher() *SimpleDispatcher {
	cats := events.Categories(
		events.CategoryGeneric, events.CategoryMessage,
		events.CategoryGameMessage, events.CategoryBotMessage,
	)
	return NewDispatcher(DispatcherGeneric, cats)
}

// NewDispatcher builds a listener dispatcher with a custom id and category
// subscription.
func NewDispatcher(id string, cats events.CategorySet) *SimpleDispatcher {
	return &SimpleDispatcher{
		id:        id,
		cats:      cats,
		listeners: make(map[string]Listener),
	}
}

func (d *SimpleDispatcher) ID() string { return d.id }

func (d *SimpleDispatcher) Categories() events.CategorySet { return d.cats }

func (d *SimpleDispatcher) AddListener(l Listener) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.listeners[l.Name()]; ok {
		return fmt.Errorf("listener %q already exists", l.Name())
	}
	if l.DispatcherID() != d.id {
		return fmt.Errorf("listener %q expects dispatcher %q, not %q",
			l.Name(), l.DispatcherID(), d.id)
	}
	d.listeners[l.Name()] = l
	return nil
}

func (d *SimpleDispatcher) RemoveListener(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.listeners[name]; !ok {
		return fmt.Errorf("listener %q does not exist", name)
	}
	delete(d.listeners, name)
	return nil
}

func (d *SimpleDispatcher) Dispatch(ctx context.Context, ev events.Event) {
	d.mu.RLock()
	snapshot := make([]Listener, 0, len(d.listeners))
	for _, l := range d.listeners {
		snapshot = append(snapshot, l)
	}
	d.mu.RUnlock()

	for _, l := range snapshot {
		d.run(ctx, l, ev)
	}
}

func (d *SimpleDispatcher) run(ctx context.Context, l Listener, ev events.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] Listener %s panicked: %v", l.Name(), r)
		}
	}()

	matches, err := l.Match(ctx, ev)
	if err != nil {
		log.Printf("[ERROR] Listener %s matcher returned an error: %v", l.Name(), err)
	}
	if !matches {
		return
	}
	if err := l.Invoke(ctx, ev); err != nil {
		log.Printf("[ERROR] Error occurred during listener %s invocation: %v", l.Name(), err)
	}
}
