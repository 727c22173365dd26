package broker

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/atelier/engine/store"
)

const testRef = "https://models.readyplayer.me/12345.glb"

func TestSetRoundTrip(t *testing.T) {
	ms := store.NewMemoryStore()
	b := New(ms)

	if _, ok := b.Get(); ok {
		t.Fatalf("fresh broker should hold no reference")
	}
	if err := b.Set(testRef); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	ref, ok := b.Get()
	if !ok || ref != testRef {
		t.Fatalf("got %q, %v", ref, ok)
	}
	persisted, ok, err := ms.Get(store.KeyAvatarReference)
	if err != nil || !ok || persisted != testRef {
		t.Fatalf("store not written through: %q, %v, %v", persisted, ok, err)
	}
}

func TestSetRejectsInvalidReference(t *testing.T) {
	ms := store.NewMemoryStore()
	b := New(ms)

	if err := b.Set("not-a-url"); !errors.Is(err, ErrBadScheme) {
		t.Fatalf("expected ErrBadScheme, got %v", err)
	}
	if err := b.Set("   "); !errors.Is(err, ErrEmptyReference) {
		t.Fatalf("expected ErrEmptyReference, got %v", err)
	}
	if _, ok := b.Get(); ok {
		t.Fatalf("rejected reference must not be stored")
	}
}

func TestSetKeepsMemoryOnStoreFailure(t *testing.T) {
	ms := store.NewMemoryStore()
	b := New(ms)
	ms.FailNextPut = errors.New("disk full")

	if err := b.Set(testRef); err == nil {
		t.Fatalf("expected store failure to surface")
	}
	ref, ok := b.Get()
	if !ok || ref != testRef {
		t.Fatalf("memory should reflect the caller's intent, got %q, %v", ref, ok)
	}
	if _, ok, _ := ms.Get(store.KeyAvatarReference); ok {
		t.Fatalf("store should not hold the value after a failed write")
	}
}

func TestHydrationFromStore(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.Set(store.KeyAvatarReference, testRef)

	b := New(ms)
	ref, ok := b.Get()
	if !ok || ref != testRef {
		t.Fatalf("broker should hydrate from the store, got %q, %v", ref, ok)
	}
}

func TestSubscribeAndClear(t *testing.T) {
	ms := store.NewMemoryStore()
	b := New(ms)

	var gotRef string
	var gotOK bool
	calls := 0
	unsubscribe := b.Subscribe(func(ref string, ok bool) {
		gotRef, gotOK = ref, ok
		calls++
	})

	if err := b.Set(testRef); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if calls != 1 || gotRef != testRef || !gotOK {
		t.Fatalf("subscriber not notified of set: %d %q %v", calls, gotRef, gotOK)
	}

	if err := b.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if calls != 2 || gotRef != "" || gotOK {
		t.Fatalf("subscriber not notified of clear: %d %q %v", calls, gotRef, gotOK)
	}
	if _, ok, _ := ms.Get(store.KeyAvatarReference); ok {
		t.Fatalf("clear should delete the persisted reference")
	}

	unsubscribe()
	if err := b.Set(testRef); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("unsubscribed callback still invoked")
	}
}

func TestValidateModelReference(t *testing.T) {
	if _, err := ValidateModelReference("https://models.readyplayer.me/1.glb"); err != nil {
		t.Fatalf("valid model reference rejected: %v", err)
	}
	if _, err := ValidateModelReference("https://example.com/avatar.png"); !errors.Is(err, ErrBadExtension) {
		t.Fatalf("expected ErrBadExtension, got %v", err)
	}
}

func TestValidateReferenceTrims(t *testing.T) {
	ref, err := ValidateReference("  " + testRef + "\n")
	if err != nil {
		t.Fatalf("trimmed reference rejected: %v", err)
	}
	if ref != testRef {
		t.Fatalf("canonical form not trimmed: %q", ref)
	}
}
