package core

import "testing"

func setupEvents(t *testing.T) {
	t.Helper()
	if !EventSystemInitialize() {
		t.Fatalf("event system did not initialize")
	}
	t.Cleanup(func() {
		if err := EventSystemShutdown(); err != nil {
			t.Fatalf("shutdown failed: %v", err)
		}
	})
}

func TestFireAndPump(t *testing.T) {
	setupEvents(t)

	var got []EventContext
	EventRegister(EVENT_CODE_AVATAR_LOADED, func(context EventContext) {
		got = append(got, context)
	})

	if !EventFire(EventContext{Type: EVENT_CODE_AVATAR_LOADED, Data: "ref-1"}) {
		t.Fatalf("fire failed")
	}
	if !EventFire(EventContext{Type: EVENT_CODE_AVATAR_LOADED, Data: "ref-2"}) {
		t.Fatalf("fire failed")
	}
	// Listeners run on the pump, not inline.
	if len(got) != 0 {
		t.Fatalf("listener ran before pump")
	}

	EventPump()
	if len(got) != 2 || got[0].Data != "ref-1" || got[1].Data != "ref-2" {
		t.Fatalf("events not delivered in order: %+v", got)
	}
}

func TestListenersFilteredByCode(t *testing.T) {
	setupEvents(t)

	calls := 0
	EventRegister(EVENT_CODE_CART_CHANGED, func(EventContext) { calls++ })

	EventFire(EventContext{Type: EVENT_CODE_AVATAR_LOADED})
	EventPump()
	if calls != 0 {
		t.Fatalf("listener received a foreign code")
	}

	EventFire(EventContext{Type: EVENT_CODE_CART_CHANGED})
	EventPump()
	if calls != 1 {
		t.Fatalf("listener not invoked: %d", calls)
	}
}

func TestUnregister(t *testing.T) {
	setupEvents(t)

	calls := 0
	id := EventRegister(EVENT_CODE_CART_CHANGED, func(EventContext) { calls++ })

	if !EventUnregister(EVENT_CODE_CART_CHANGED, id) {
		t.Fatalf("unregister failed")
	}
	if EventUnregister(EVENT_CODE_CART_CHANGED, id) {
		t.Fatalf("double unregister should report false")
	}

	EventFire(EventContext{Type: EVENT_CODE_CART_CHANGED})
	EventPump()
	if calls != 0 {
		t.Fatalf("unregistered listener invoked")
	}
}

func TestFireWithoutInitialization(t *testing.T) {
	if EventFire(EventContext{Type: EVENT_CODE_CART_CHANGED}) {
		t.Fatalf("fire should fail before initialization")
	}
	if EventRegister(EVENT_CODE_CART_CHANGED, func(EventContext) {}) != 0 {
		t.Fatalf("register should fail before initialization")
	}
}

func TestReinitializeAfterShutdown(t *testing.T) {
	if !EventSystemInitialize() {
		t.Fatalf("event system did not initialize")
	}
	if err := EventSystemShutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if !EventSystemInitialize() {
		t.Fatalf("event system did not reinitialize")
	}
	defer EventSystemShutdown()

	calls := 0
	EventRegister(EVENT_CODE_CART_CHANGED, func(EventContext) { calls++ })
	EventFire(EventContext{Type: EVENT_CODE_CART_CHANGED})
	EventPump()
	if calls != 1 {
		t.Fatalf("reinitialized system not delivering events")
	}
}
