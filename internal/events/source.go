package events

import (
	"context"
	"sync"
)

// Handler is the ingestion callback the manager installs on each source.
type Handler func(ctx context.Context, ev Event)

// Source is an event producer. The engine places no constraints on how a
// source produces events; it only installs (and later removes) its
// processing callback.
type Source interface {
	Attach(h Handler)
	Detach()
}

// Emitter is a Source building block: embed it and call Emit for every
// produced event. Events emitted while detached are dropped.
type Emitter struct {
	mu      sync.RWMutex
	handler Handler
}

func (e *Emitter) Attach(h Handler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

func (e *Emitter) Detach() {
	e.mu.Lock()
	e.handler = nil
	e.mu.Unlock()
}

// Emit hands an event to the attached handler, if any.
func (e *Emitter) Emit(ctx context.Context, ev Event) {
	e.mu.RLock()
	h := e.handler
	e.mu.RUnlock()
	if h != nil {
		h(ctx, ev)
	}
}
