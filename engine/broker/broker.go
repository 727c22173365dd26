package broker

import (
	"sync"

	"github.com/spaghettifunk/atelier/engine/core"
	"github.com/spaghettifunk/atelier/engine/store"
)

// Broker holds the current avatar reference in memory as the single source of
// truth, treating the durable store as a write-through side effect with its
// own failure channel. Consumers subscribe for changes they did not initiate.
type Broker struct {
	mu          sync.Mutex
	store       store.Store
	current     string
	hasValue    bool
	subscribers map[uint64]func(ref string, ok bool)
	nextSubID   uint64
}

// New creates a Broker hydrated from the store's persisted reference. A store
// read failure is logged and leaves the broker empty; the stored value stays
// untouched for the diagnostic tools.
func New(s store.Store) *Broker {
	b := &Broker{
		store:       s,
		subscribers: make(map[uint64]func(ref string, ok bool)),
	}
	value, ok, err := s.Get(store.KeyAvatarReference)
	if err != nil {
		core.LogError("broker: failed to hydrate avatar reference: %s", err.Error())
		return b
	}
	if ok {
		b.current = value
		b.hasValue = true
	}
	return b
}

// Get returns the current avatar reference, if any.
func (b *Broker) Get() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.hasValue
}

// Set validates the reference, updates the in-memory value, and writes it
// through to the store. On a store failure the in-memory value still reflects
// the caller's intent and the error is returned for the caller to surface.
func (b *Broker) Set(ref string) error {
	canonical, err := ValidateReference(ref)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.current = canonical
	b.hasValue = true
	subs := b.snapshotSubscribers()
	b.mu.Unlock()

	b.notify(subs, canonical, true)

	if err := b.store.Put(store.KeyAvatarReference, canonical); err != nil {
		core.LogError("broker: store write failed for avatar reference: %s", err.Error())
		return err
	}
	return nil
}

// Clear removes the reference from memory and the store.
func (b *Broker) Clear() error {
	b.mu.Lock()
	b.current = ""
	b.hasValue = false
	subs := b.snapshotSubscribers()
	b.mu.Unlock()

	b.notify(subs, "", false)

	if err := b.store.Delete(store.KeyAvatarReference); err != nil {
		core.LogError("broker: store delete failed for avatar reference: %s", err.Error())
		return err
	}
	return nil
}

// Subscribe registers a change callback and returns an unsubscribe function.
// The callback receives the new reference, or ("", false) on clear.
func (b *Broker) Subscribe(fn func(ref string, ok bool)) func() {
	b.mu.Lock()
	b.nextSubID++
	id := b.nextSubID
	b.subscribers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

func (b *Broker) snapshotSubscribers() []func(ref string, ok bool) {
	subs := make([]func(ref string, ok bool), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func (b *Broker) notify(subs []func(ref string, ok bool), ref string, ok bool) {
	for _, fn := range subs {
		fn(ref, ok)
	}
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_AVATAR_REFERENCE_CHANGED,
		Data: ref,
	})
}
