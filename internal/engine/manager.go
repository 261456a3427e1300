package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/command"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

// Middleware transforms or validates one event. It receives a fresh copy
// and may mutate it in place; returning an error skips this middleware for
// the event without dropping it.
type Middleware func(ctx context.Context, ev events.Event) error

type middlewareEntry struct {
	name  string
	match func(events.Event) bool
	fn    Middleware
}

// Manager owns the event sources, the middleware chain, the dispatcher
// table and the cog registry. It is the single entry point event producers
// call, via Process.
type Manager struct {
	mu          sync.RWMutex
	sources     []events.Source
	dispatchers map[string]Dispatcher
	middlewares []middlewareEntry
	cogs        map[string]*loadedCog
}

type loadedCog struct {
	cog       Cog
	commands  []commandRef
	listeners []listenerRef
}

type listenerRef struct {
	dispatcherID string
	name         string
}

type commandRef struct {
	dispatcherID string
	name         string
}

// NewManager builds a manager with the generic dispatcher preinstalled.
func NewManager() *Manager {
	m := &Manager{
		dispatchers: make(map[string]Dispatcher),
		cogs:        make(map[string]*loadedCog),
	}
	m.dispatchers[DispatcherGeneric] = NewSimpleDispatcher()
	return m
}

// AddEventSource attaches a source; every event it emits from now on flows
// through Process on its own goroutine.
func (m *Manager) AddEventSource(src events.Source) {
	src.Attach(func(ctx context.Context, ev events.Event) {
		go m.Process(ctx, ev)
	})
	m.mu.Lock()
	m.sources = append(m.sources, src)
	m.mu.Unlock()
}

// RemoveEventSource detaches a source. Events already in flight still
// complete.
func (m *Manager) RemoveEventSource(src events.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sources {
		if s == src {
			s.Detach()
			m.sources = append(m.sources[:i], m.sources[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("source not found")
}

func (m *Manager) AddDispatcher(d Dispatcher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dispatchers[d.ID()]; ok {
		return &command.RegistrationError{Name: d.ID(), Kind: "dispatcher"}
	}
	m.dispatchers[d.ID()] = d
	return nil
}

func (m *Manager) RemoveDispatcher(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dispatchers[id]; !ok {
		return fmt.Errorf("dispatcher %q was not found", id)
	}
	delete(m.dispatchers, id)
	return nil
}

// Dispatcher returns the dispatcher registered under id.
func (m *Manager) Dispatcher(id string) (Dispatcher, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.dispatchers[id]
	return d, ok
}

// AddListener routes the listener to the dispatcher it names.
func (m *Manager) AddListener(l Listener) error {
	d, ok := m.Dispatcher(l.DispatcherID())
	if !ok {
		return fmt.Errorf("no dispatcher %q exists for listener %q", l.DispatcherID(), l.Name())
	}
	reg, ok := d.(ListenerRegistrar)
	if !ok {
		return fmt.Errorf("dispatcher %q does not accept listeners", l.DispatcherID())
	}
	return reg.AddListener(l)
}

func (m *Manager) RemoveListener(dispatcherID, name string) error {
	d, ok := m.Dispatcher(dispatcherID)
	if !ok {
		return fmt.Errorf("no dispatcher %q exists", dispatcherID)
	}
	reg, ok := d.(ListenerRegistrar)
	if !ok {
		return fmt.Errorf("dispatcher %q does not accept listeners", dispatcherID)
	}
	return reg.RemoveListener(name)
}

// AddCommand routes the command to its dispatcher, defaulting to the
// command dispatcher.
func (m *Manager) AddCommand(cmd *command.Command) error {
	id := cmd.Dispatcher
	if id == "" {
		id = DispatcherCommand
	}
	d, ok := m.Dispatcher(id)
	if !ok {
		return fmt.Errorf("no dispatcher %q exists for command %q", id, cmd.Name)
	}
	reg, ok := d.(CommandRegistrar)
	if !ok {
		return fmt.Errorf("dispatcher %q does not accept commands", id)
	}
	return reg.AddCommand(cmd)
}

func (m *Manager) RemoveCommand(dispatcherID, name string) error {
	if dispatcherID == "" {
		dispatcherID = DispatcherCommand
	}
	d, ok := m.Dispatcher(dispatcherID)
	if !ok {
		return fmt.Errorf("no dispatcher %q exists", dispatcherID)
	}
	reg, ok := d.(CommandRegistrar)
	if !ok {
		return fmt.Errorf("dispatcher %q does not accept commands", dispatcherID)
	}
	return reg.RemoveCommand(name)
}

// Use appends a middleware run for every event of type E, in registration
// order.
func Use[E events.Event](m *Manager, name string, fn func(ctx context.Context, ev E) error) {
	entry := middlewareEntry{
		name: name,
		match: func(ev events.Event) bool {
			_, ok := ev.(E)
			return ok
		},
		fn: func(ctx context.Context, ev events.Event) error {
			return fn(ctx, ev.(E))
		},
	}
	m.mu.Lock()
	m.middlewares = append(m.middlewares, entry)
	m.mu.Unlock()
}

// Process runs one event through the middleware chain and fans it out to
// every dispatcher whose categories intersect the event's. Each middleware
// works on a fresh copy so concurrent in-flight events never alias state;
// each dispatcher failure is contained and logged.
func (m *Manager) Process(ctx context.Context, ev events.Event) {
	m.mu.RLock()
	middlewares := make([]middlewareEntry, len(m.middlewares))
	copy(middlewares, m.middlewares)
	dispatchers := make([]Dispatcher, 0, len(m.dispatchers))
	for _, d := range m.dispatchers {
		dispatchers = append(dispatchers, d)
	}
	m.mu.RUnlock()

	for _, mw := range middlewares {
		if !mw.match(ev) {
			continue
		}
		next := ev.Clone()
		if err := mw.fn(ctx, next); err != nil {
			log.Printf("[WARN] Middleware %s failed, skipping: %v", mw.name, err)
			continue
		}
		ev = next
	}

	matched := false
	for _, d := range dispatchers {
		if !d.Categories().Intersects(ev.Categories()) {
			continue
		}
		matched = true
		m.deliver(ctx, d, ev)
	}
	if !matched {
		log.Printf("[WARN] A matching dispatcher for event %v was not found", ev)
	}
}

func (m *Manager) deliver(ctx context.Context, d Dispatcher, ev events.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] Dispatcher %s panicked: %v", d.ID(), r)
		}
	}()
	d.Dispatch(ctx, ev)
}
