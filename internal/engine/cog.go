package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/command"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

// Cog is a self-contained feature module: a named bundle of commands and
// listeners with a lifecycle. Registration is explicit; a cog declares
// exactly what it contributes.
type Cog interface {
	Name() string
	Commands() []*command.Command
	Listeners() []Listener
	Setup(ctx context.Context, m *Manager) error
	Stop(ctx context.Context) error
}

// NopLifecycle provides no-op Setup and Stop for cogs without lifecycle
// needs.
type NopLifecycle struct{}

func (NopLifecycle) Setup(context.Context, *Manager) error { return nil }
func (NopLifecycle) Stop(context.Context) error            { return nil }

// AddCog registers every command and listener the cog declares, then runs
// its Setup. Any failure rolls back everything already added, so a cog is
// either fully loaded or not loaded at all.
func (m *Manager) AddCog(ctx context.Context, cog Cog) error {
	m.mu.Lock()
	if _, ok := m.cogs[cog.Name()]; ok {
		m.mu.Unlock()
		return fmt.Errorf("cog %q is already loaded", cog.Name())
	}
	m.mu.Unlock()

	loaded := &loadedCog{cog: cog}
	rollback := func() {
		for _, ref := range loaded.listeners {
			if err := m.RemoveListener(ref.dispatcherID, ref.name); err != nil {
				log.Printf("[WARN] Rollback: failed to remove listener %s: %v", ref.name, err)
			}
		}
		for _, ref := range loaded.commands {
			if err := m.RemoveCommand(ref.dispatcherID, ref.name); err != nil {
				log.Printf("[WARN] Rollback: failed to remove command %s: %v", ref.name, err)
			}
		}
	}

	for _, cmd := range cog.Commands() {
		if err := m.AddCommand(cmd); err != nil {
			rollback()
			return fmt.Errorf("cog %s: %w", cog.Name(), err)
		}
		loaded.commands = append(loaded.commands, commandRef{cmd.Dispatcher, cmd.Name})
	}
	for _, l := range cog.Listeners() {
		if err := m.AddListener(l); err != nil {
			rollback()
			return fmt.Errorf("cog %s: %w", cog.Name(), err)
		}
		loaded.listeners = append(loaded.listeners, listenerRef{l.DispatcherID(), l.Name()})
	}
	if err := cog.Setup(ctx, m); err != nil {
		rollback()
		return fmt.Errorf("cog %s setup: %w", cog.Name(), err)
	}

	m.mu.Lock()
	m.cogs[cog.Name()] = loaded
	m.mu.Unlock()
	return nil
}

// RemoveCog unregisters exactly what the cog contributed and runs its
// Stop. A failing Stop is logged, never propagated.
func (m *Manager) RemoveCog(ctx context.Context, name string) error {
	m.mu.Lock()
	loaded, ok := m.cogs[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("cog %q is not loaded", name)
	}
	delete(m.cogs, name)
	m.mu.Unlock()

	for _, ref := range loaded.listeners {
		if err := m.RemoveListener(ref.dispatcherID, ref.name); err != nil {
			log.Printf("[WARN] Failed to remove listener %s from cog %s: %v", ref.name, name, err)
		}
	}
	for _, ref := range loaded.commands {
		if err := m.RemoveCommand(ref.dispatcherID, ref.name); err != nil {
			log.Printf("[WARN] Failed to remove command %s from cog %s: %v", ref.name, name, err)
		}
	}
	if err := loaded.cog.Stop(ctx); err != nil {
		log.Printf("[ERROR] Error occurred while stopping cog %s: %v", name, err)
	}
	return nil
}

// StopAll unloads every cog and detaches every source.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.RLock()
	names := make([]string, 0, len(m.cogs))
	for name := range m.cogs {
		names = append(names, name)
	}
	sources := make([]events.Source, 0, len(m.sources))
	sources = append(sources, m.sources...)
	m.mu.RUnlock()

	for _, name := range names {
		if err := m.RemoveCog(ctx, name); err != nil {
			log.Printf("[WARN] Failed to remove cog %s: %v", name, err)
		}
	}
	for _, s := range sources {
		s.Detach()
	}
}
