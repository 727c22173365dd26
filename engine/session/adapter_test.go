package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/spaghettifunk/atelier/engine/broker"
	"github.com/spaghettifunk/atelier/engine/store"
)

const exportedRef = "https://models.readyplayer.me/abc123.glb"

func newTestAdapter(t *testing.T) (*Adapter, *store.MemoryStore, *broker.Broker) {
	t.Helper()
	ms := store.NewMemoryStore()
	b := broker.New(ms)
	a := NewAdapter(&AdapterConfig{}, b, ms)
	return a, ms, b
}

func exportPayload(url string) string {
	return `{"source":"readyplayerme","eventName":"v1.avatar.exported","data":{"url":"` + url + `"}}`
}

func TestHandleDropsForeignOrigin(t *testing.T) {
	a, ms, _ := newTestAdapter(t)

	a.handle(Message{Origin: "https://evil.example.com", Data: exportPayload(exportedRef)})

	if _, ok, _ := ms.Get(store.KeyAvatarReference); ok {
		t.Fatalf("foreign-origin message must not persist a reference")
	}
	if a.Status().Save != SaveStatusIdle {
		t.Fatalf("foreign-origin message must not change status")
	}
}

func TestHandleDropsUndecodablePayload(t *testing.T) {
	a, ms, _ := newTestAdapter(t)

	a.handle(Message{Origin: "https://demo.readyplayer.me", Data: "{{{not json"})
	a.handle(Message{Origin: "https://demo.readyplayer.me", Data: nil})

	if _, ok, _ := ms.Get(store.KeyAvatarReference); ok {
		t.Fatalf("undecodable payload must not persist a reference")
	}
}

func TestHandleDropsForeignSource(t *testing.T) {
	a, ms, _ := newTestAdapter(t)

	a.handle(Message{
		Origin: "https://demo.readyplayer.me",
		Data:   `{"source":"someoneelse","eventName":"v1.avatar.exported","data":{"url":"` + exportedRef + `"}}`,
	})

	if _, ok, _ := ms.Get(store.KeyAvatarReference); ok {
		t.Fatalf("foreign-source message must not persist a reference")
	}
}

func TestFrameReadySendsSubscribe(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	a.handle(Message{
		Origin: "https://demo.readyplayer.me",
		Data:   `{"source":"readyplayerme","eventName":"v1.frame.ready"}`,
	})

	select {
	case req := <-a.Outbound():
		body := string(req)
		if !strings.Contains(body, `"v1.**"`) || !strings.Contains(body, `"subscribe"`) {
			t.Fatalf("unexpected subscribe request: %s", body)
		}
	default:
		t.Fatalf("frame ready should enqueue a subscribe request")
	}
}

func TestExportSavesAndVerifies(t *testing.T) {
	a, ms, b := newTestAdapter(t)

	a.handle(Message{Origin: "https://demo.readyplayer.me", Data: exportPayload(exportedRef)})

	if got := a.Status().Save; got != SaveStatusSaved {
		t.Fatalf("expected saved status, got %s", got)
	}
	persisted, ok, _ := ms.Get(store.KeyAvatarReference)
	if !ok || persisted != exportedRef {
		t.Fatalf("store not updated: %q, %v", persisted, ok)
	}
	if ref, ok := b.Get(); !ok || ref != exportedRef {
		t.Fatalf("broker not updated: %q, %v", ref, ok)
	}
}

func TestExportWithoutURL(t *testing.T) {
	a, ms, _ := newTestAdapter(t)

	a.handle(Message{
		Origin: "https://demo.readyplayer.me",
		Data:   `{"source":"readyplayerme","eventName":"v1.avatar.exported","data":{}}`,
	})

	if got := a.Status().Save; got != SaveStatusNoReference {
		t.Fatalf("expected no-reference status, got %s", got)
	}
	if _, ok, _ := ms.Get(store.KeyAvatarReference); ok {
		t.Fatalf("no reference should be persisted")
	}
}

func TestSaveAndVerifyWriteFailure(t *testing.T) {
	a, ms, b := newTestAdapter(t)
	ms.FailNextPut = errors.New("disk full")

	status, err := a.SaveAndVerify(exportedRef)
	if status != SaveStatusWriteFailed || err == nil {
		t.Fatalf("expected write failure, got %s, %v", status, err)
	}
	if errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("a write failure is not a verification failure")
	}
	// Memory keeps the intent even though the store rejected the write.
	if ref, ok := b.Get(); !ok || ref != exportedRef {
		t.Fatalf("broker should keep the value: %q, %v", ref, ok)
	}
}

func TestSaveAndVerifyDetectsDrift(t *testing.T) {
	a, ms, _ := newTestAdapter(t)
	// A concurrent writer replaces the stored value between the write and
	// the verification read.
	ms.InterceptPut = func(key, value string) {
		ms.Set(key, "https://models.readyplayer.me/other.glb")
	}

	status, err := a.SaveAndVerify(exportedRef)
	if status != SaveStatusVerifyMismatch {
		t.Fatalf("expected verify mismatch, got %s", status)
	}
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestSubmitManualEntryValidation(t *testing.T) {
	a, ms, _ := newTestAdapter(t)

	if _, err := a.SubmitManualEntry("not-a-url"); !errors.Is(err, broker.ErrBadScheme) {
		t.Fatalf("expected ErrBadScheme, got %v", err)
	}
	if _, err := a.SubmitManualEntry("   "); !errors.Is(err, broker.ErrEmptyReference) {
		t.Fatalf("expected ErrEmptyReference, got %v", err)
	}
	if _, ok, _ := ms.Get(store.KeyAvatarReference); ok {
		t.Fatalf("rejected entries must leave the store untouched")
	}

	status, err := a.SubmitManualEntry("  " + exportedRef + "  ")
	if err != nil || status != SaveStatusSaved {
		t.Fatalf("valid entry should save: %s, %v", status, err)
	}
}

func TestSubmitManualEntryModelExtension(t *testing.T) {
	ms := store.NewMemoryStore()
	b := broker.New(ms)
	a := NewAdapter(&AdapterConfig{RequireModelExtension: true}, b, ms)

	if _, err := a.SubmitManualEntry("https://example.com/avatar.png"); !errors.Is(err, broker.ErrBadExtension) {
		t.Fatalf("expected ErrBadExtension, got %v", err)
	}
	if status, err := a.SubmitManualEntry(exportedRef); err != nil || status != SaveStatusSaved {
		t.Fatalf("valid model entry should save: %s, %v", status, err)
	}
}

func TestStartStopDispatch(t *testing.T) {
	a, ms, _ := newTestAdapter(t)
	a.Start()

	statusCh := make(chan SessionStatus, 1)
	a.OnStatusChange(func(s SessionStatus) {
		if s.Save == SaveStatusSaved {
			select {
			case statusCh <- s:
			default:
			}
		}
	})

	a.Inbound() <- Message{Origin: "https://demo.readyplayer.me", Data: exportPayload(exportedRef)}

	<-statusCh
	a.Stop()

	persisted, ok, _ := ms.Get(store.KeyAvatarReference)
	if !ok || persisted != exportedRef {
		t.Fatalf("dispatched export not persisted: %q, %v", persisted, ok)
	}
}

func TestDecodeCreatorEventShapes(t *testing.T) {
	payload := exportPayload(exportedRef)

	if ev, ok := decodeCreatorEvent(payload); !ok || ev.Data.URL != exportedRef {
		t.Fatalf("string payload not decoded")
	}
	if ev, ok := decodeCreatorEvent([]byte(payload)); !ok || ev.Data.URL != exportedRef {
		t.Fatalf("byte payload not decoded")
	}
	parsed := map[string]interface{}{
		"source":    "readyplayerme",
		"eventName": "v1.avatar.exported",
		"data":      map[string]interface{}{"url": exportedRef},
	}
	if ev, ok := decodeCreatorEvent(parsed); !ok || ev.Data.URL != exportedRef {
		t.Fatalf("pre-parsed payload not decoded")
	}
}
