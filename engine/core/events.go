package core

import (
	"sync"

	"github.com/spaghettifunk/atelier/engine/containers"
)

// EventCode identifies the kind of event carried by an EventContext.
// System internal event codes. Application should use codes beyond 255.
type EventCode int

const (
	// Shuts the application down on the next pump.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// The broker's avatar reference changed (set or cleared).
	/* Context usage:
	 * ref, _ := data.Data.(string) // empty string on clear
	 */
	EVENT_CODE_AVATAR_REFERENCE_CHANGED EventCode = 0x10

	// The embedded creation surface finished booting.
	EVENT_CODE_CREATOR_FRAME_READY EventCode = 0x11

	// The creation surface exported an avatar.
	/* Context usage:
	 * ref := data.Data.(string)
	 */
	EVENT_CODE_AVATAR_EXPORTED EventCode = 0x12

	// The scene finished loading an avatar mesh.
	EVENT_CODE_AVATAR_LOADED EventCode = 0x13

	// The scene failed to load an avatar mesh.
	/* Context usage:
	 * err := data.Data.(error)
	 */
	EVENT_CODE_AVATAR_LOAD_FAILED EventCode = 0x14

	// A garment overlay was installed in the scene.
	EVENT_CODE_GARMENT_SELECTED EventCode = 0x15

	// The cart contents changed.
	EVENT_CODE_CART_CHANGED EventCode = 0x16

	MAX_EVENT_CODE EventCode = 0xFF
)

// Pending events beyond this are dropped with a warning.
const maxPendingEvents = 512

// EventContext carries a fired event to its listeners.
type EventContext struct {
	Type EventCode
	Data interface{}
}

type FnOnEvent func(context EventContext)

type registeredEvent struct {
	id       uint32
	callback FnOnEvent
}

type eventSystemState struct {
	mu         sync.Mutex
	registered map[EventCode][]*registeredEvent
	pending    *containers.RingQueue
	signal     chan struct{}
	done       chan struct{}
	nextID     uint32
}

var isInitialized bool = false
var eventState *eventSystemState = nil

func EventSystemInitialize() bool {
	if isInitialized {
		return false
	}
	eventState = &eventSystemState{
		registered: make(map[EventCode][]*registeredEvent),
		pending:    containers.NewRingQueue(maxPendingEvents),
		signal:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	isInitialized = true
	return true
}

func EventSystemShutdown() error {
	if !isInitialized {
		return nil
	}
	isInitialized = false
	close(eventState.done)

	eventState.mu.Lock()
	eventState.registered = make(map[EventCode][]*registeredEvent)
	eventState.mu.Unlock()
	return nil
}

// Register to listen for when events are sent with the provided code.
// Returns a registration id usable with EventUnregister.
func EventRegister(code EventCode, onEvent FnOnEvent) uint32 {
	if !isInitialized {
		return 0
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	eventState.nextID++
	re := &registeredEvent{
		id:       eventState.nextID,
		callback: onEvent,
	}
	eventState.registered[code] = append(eventState.registered[code], re)
	return re.id
}

// Unregister from listening for when events are sent with the provided code.
// If no matching registration is found, this function returns false.
func EventUnregister(code EventCode, id uint32) bool {
	if !isInitialized {
		return false
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	events := eventState.registered[code]
	for i, e := range events {
		if e.id == id {
			eventState.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// EventFire queues an event for the listeners of its code. Listeners are
// invoked from the ProcessEvents goroutine, in registration order.
// Returns false if the event system is not running or the queue is full.
func EventFire(context EventContext) bool {
	if !isInitialized {
		return false
	}
	eventState.mu.Lock()
	if err := eventState.pending.Enqueue(context); err != nil {
		eventState.mu.Unlock()
		LogWarn("event queue full, dropping event code %d", context.Type)
		return false
	}
	eventState.mu.Unlock()

	select {
	case eventState.signal <- struct{}{}:
	default:
	}
	return true
}

// ProcessEvents drains the pending queue until the event system shuts down.
// Run it once, on its own goroutine.
func ProcessEvents() {
	for {
		select {
		case <-eventState.done:
			return
		case <-eventState.signal:
			drainPending()
		}
	}
}

// EventPump synchronously drains pending events on the caller's goroutine.
// Useful for single-threaded hosts and tests.
func EventPump() {
	if !isInitialized {
		return
	}
	drainPending()
}

func drainPending() {
	for {
		eventState.mu.Lock()
		value, err := eventState.pending.Dequeue()
		if err != nil {
			eventState.mu.Unlock()
			return
		}
		context := value.(EventContext)
		listeners := make([]*registeredEvent, len(eventState.registered[context.Type]))
		copy(listeners, eventState.registered[context.Type])
		eventState.mu.Unlock()

		for _, e := range listeners {
			e.callback(context)
		}
	}
}
