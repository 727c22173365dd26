package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/spaghettifunk/atelier/engine/broker"
	"github.com/spaghettifunk/atelier/engine/core"
	"github.com/spaghettifunk/atelier/engine/store"
)

// ErrVerificationFailed marks a save whose read-back did not return the value
// just written. Distinct from a hard store write error: the write may have
// been superseded by another writer, and prior state is left visible so the
// user can recover through the diagnostic tools.
var ErrVerificationFailed = errors.New("avatar reference verification failed")

type SaveStatus int

const (
	SaveStatusIdle SaveStatus = iota
	// The reference was written and the read-back matched.
	SaveStatusSaved
	// The durable store rejected the write. Memory still holds the value.
	SaveStatusWriteFailed
	// The read-back returned a different value than the one written.
	SaveStatusVerifyMismatch
	// An export notification arrived without a usable reference.
	SaveStatusNoReference
)

func (s SaveStatus) String() string {
	switch s {
	case SaveStatusSaved:
		return "saved"
	case SaveStatusWriteFailed:
		return "write-failed"
	case SaveStatusVerifyMismatch:
		return "verify-mismatch"
	case SaveStatusNoReference:
		return "no-reference"
	default:
		return "idle"
	}
}

// SessionStatus is the user-visible state of the creation session.
type SessionStatus struct {
	Text string
	Save SaveStatus
}

type AdapterConfig struct {
	// Origin suffix that inbound notifications must match. Anything else is
	// dropped silently; it is a noise filter, not an error.
	CreatorDomain string
	// When set, manual entry additionally requires a .glb asset path.
	RequireModelExtension bool
}

// Adapter bridges the embedded creation surface's asynchronous message
// protocol into the broker. It owns the inbound dispatch goroutine; Stop
// deregisters it, after which late messages are discarded.
type Adapter struct {
	config *AdapterConfig
	broker *broker.Broker
	store  store.Store

	inbound  chan Message
	outbound chan []byte
	done     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	status   SessionStatus
	onStatus func(SessionStatus)
	started  bool
}

func NewAdapter(config *AdapterConfig, b *broker.Broker, s store.Store) *Adapter {
	if config.CreatorDomain == "" {
		config.CreatorDomain = ".readyplayer.me"
	}
	return &Adapter{
		config:   config,
		broker:   b,
		store:    s,
		inbound:  make(chan Message, 16),
		outbound: make(chan []byte, 4),
		done:     make(chan struct{}),
		status:   SessionStatus{Text: "Loading creation surface..."},
	}
}

// Inbound is where creation-surface notifications are delivered.
func (a *Adapter) Inbound() chan<- Message {
	return a.inbound
}

// Outbound carries requests to post back into the creation surface, such as
// the wildcard subscribe handshake.
func (a *Adapter) Outbound() <-chan []byte {
	return a.outbound
}

// Start launches the dispatch goroutine. Calling Start twice is a no-op.
func (a *Adapter) Start() {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-a.done:
				return
			case msg := <-a.inbound:
				a.handle(msg)
			}
		}
	}()
}

// Stop deregisters the listener. Messages arriving afterwards are dropped.
func (a *Adapter) Stop() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	a.mu.Unlock()

	close(a.done)
	a.wg.Wait()
}

// Status returns the current user-visible session status.
func (a *Adapter) Status() SessionStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// OnStatusChange registers a callback invoked on every status transition.
func (a *Adapter) OnStatusChange(fn func(SessionStatus)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onStatus = fn
}

func (a *Adapter) setStatus(save SaveStatus, text string) {
	a.mu.Lock()
	a.status = SessionStatus{Text: text, Save: save}
	fn := a.onStatus
	status := a.status
	a.mu.Unlock()

	if fn != nil {
		fn(status)
	}
}

// handle processes one inbound notification: origin check, shape check,
// variant dispatch.
func (a *Adapter) handle(msg Message) {
	if !strings.HasSuffix(msg.Origin, a.config.CreatorDomain) {
		return
	}

	ev, ok := decodeCreatorEvent(msg.Data)
	if !ok {
		core.LogDebug("session: dropping undecodable creator payload from %s", msg.Origin)
		return
	}
	if ev.Source != creatorSource {
		return
	}

	switch ev.EventName {
	case eventFrameReady:
		a.setStatus(SaveStatusIdle, "Creation surface loaded — customize your avatar.")
		select {
		case a.outbound <- encodeSubscribeRequest():
		default:
			core.LogWarn("session: outbound channel full, subscribe request dropped")
		}
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_CREATOR_FRAME_READY})

	case eventAvatarExported:
		if ev.Data.URL == "" {
			a.setStatus(SaveStatusNoReference, "Avatar exported but no URL found in payload.")
			return
		}
		status, err := a.SaveAndVerify(ev.Data.URL)
		if err != nil {
			core.LogWarn("session: export save failed (%s): %s", status, err.Error())
			return
		}
		core.EventFire(core.EventContext{
			Type: core.EVENT_CODE_AVATAR_EXPORTED,
			Data: ev.Data.URL,
		})
	}
}

// SaveAndVerify runs the write-then-read-back protocol: persist the candidate
// through the broker, re-read the durable store, and compare. The sequence
// completes before any status is reported.
func (a *Adapter) SaveAndVerify(ref string) (SaveStatus, error) {
	if err := a.broker.Set(ref); err != nil {
		a.setStatus(SaveStatusWriteFailed, "Could not persist avatar reference.")
		return SaveStatusWriteFailed, err
	}

	persisted, ok, err := a.store.Get(store.KeyAvatarReference)
	if err != nil || !ok || persisted != ref {
		a.setStatus(SaveStatusVerifyMismatch, "Saved avatar reference did not verify; stored value differs.")
		if err != nil {
			core.LogError("session: verification read failed: %s", err.Error())
		}
		return SaveStatusVerifyMismatch, ErrVerificationFailed
	}

	a.setStatus(SaveStatusSaved, "Avatar saved. You can continue to try outfits.")
	return SaveStatusSaved, nil
}

// SubmitManualEntry validates user-supplied text and routes it through the
// save-and-verify protocol. Validation failures reject synchronously with the
// specific reason and leave stored state untouched.
func (a *Adapter) SubmitManualEntry(raw string) (SaveStatus, error) {
	var (
		ref string
		err error
	)
	if a.config.RequireModelExtension {
		ref, err = broker.ValidateModelReference(raw)
	} else {
		ref, err = broker.ValidateReference(raw)
	}
	if err != nil {
		return SaveStatusIdle, err
	}
	return a.SaveAndVerify(ref)
}
