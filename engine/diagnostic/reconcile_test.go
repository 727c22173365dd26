package diagnostic

import (
	"testing"

	"github.com/spaghettifunk/atelier/engine/broker"
	"github.com/spaghettifunk/atelier/engine/store"
)

const ref = "https://models.readyplayer.me/12345.glb"

func strptr(s string) *string { return &s }

func TestReconcileNoReference(t *testing.T) {
	r := Reconcile(Snapshot{})
	if r.Class != ClassNoReference {
		t.Fatalf("expected no-reference, got %s", r.Class)
	}
	if r.Store.Present || r.Broker.Present || r.Local.Present {
		t.Fatalf("no location should report present: %+v", r)
	}
	if len(r.Remediations()) == 0 {
		t.Fatalf("no-reference should suggest creating an avatar")
	}
}

func TestReconcileConsistent(t *testing.T) {
	r := Reconcile(Snapshot{Store: strptr(ref), Broker: strptr(ref), Local: strptr(ref)})
	if r.Class != ClassConsistent {
		t.Fatalf("expected consistent, got %s", r.Class)
	}
	if !r.StoreMatchesBroker || !r.StoreMatchesLocal || !r.BrokerMatchesLocal {
		t.Fatalf("all pairs should match: %+v", r)
	}
	if r.Remediations() != nil {
		t.Fatalf("consistent state needs no remediation")
	}
}

func TestReconcilePartialPresenceIsConsistent(t *testing.T) {
	// Only the store and broker are populated and they agree; an absent
	// local view is not a conflict.
	r := Reconcile(Snapshot{Store: strptr(ref), Broker: strptr(ref)})
	if r.Class != ClassConsistent {
		t.Fatalf("expected consistent, got %s", r.Class)
	}
	if r.StoreMatchesLocal || r.BrokerMatchesLocal {
		t.Fatalf("absent location cannot match: %+v", r)
	}
}

func TestReconcileStoreWithoutBrokerIsSyncLag(t *testing.T) {
	// A persisted reference the broker never picked up is exactly the drift
	// the save protocol guards against.
	r := Reconcile(Snapshot{Store: strptr(ref)})
	if r.Class != ClassSyncLag {
		t.Fatalf("expected sync-lag, got %s", r.Class)
	}

	// The inverse (memory holds a value the store lost) is also lag.
	r = Reconcile(Snapshot{Broker: strptr(ref)})
	if r.Class != ClassSyncLag {
		t.Fatalf("expected sync-lag, got %s", r.Class)
	}
}

func TestReconcileSyncLag(t *testing.T) {
	other := "https://models.readyplayer.me/other.glb"
	r := Reconcile(Snapshot{Store: strptr(ref), Broker: strptr(other), Local: strptr(ref)})
	if r.Class != ClassSyncLag {
		t.Fatalf("expected sync-lag, got %s", r.Class)
	}
	if !r.StoreMatchesLocal || r.StoreMatchesBroker {
		t.Fatalf("wrong pairwise flags: %+v", r)
	}
}

func TestReconcileCorrupted(t *testing.T) {
	r := Reconcile(Snapshot{Store: strptr("not-a-url"), Broker: strptr(ref)})
	if r.Class != ClassCorrupted {
		t.Fatalf("expected corrupted, got %s", r.Class)
	}
	if r.Store.Valid {
		t.Fatalf("store location should be invalid")
	}
	if r.Store.Problem == "" {
		t.Fatalf("invalid location should carry the validation problem")
	}
	if r.Broker.Valid != true {
		t.Fatalf("broker location should stay valid")
	}
	if len(r.Remediations()) < 2 {
		t.Fatalf("corrupted state should suggest clearing and re-exporting")
	}
}

func TestCollect(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.Set(store.KeyAvatarReference, ref)
	b := broker.New(ms)

	snap := Collect(ms, b, nil)
	if snap.Store == nil || *snap.Store != ref {
		t.Fatalf("store not collected: %+v", snap.Store)
	}
	if snap.Broker == nil || *snap.Broker != ref {
		t.Fatalf("broker not collected: %+v", snap.Broker)
	}
	if snap.Local != nil {
		t.Fatalf("local should be absent")
	}

	if r := Reconcile(snap); r.Class != ClassConsistent {
		t.Fatalf("hydrated broker and store should reconcile, got %s", r.Class)
	}
}

func TestCollectSurvivesStoreFailure(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.Set(store.KeyAvatarReference, ref)
	b := broker.New(ms)
	ms.Close()

	snap := Collect(ms, b, nil)
	if snap.Store != nil {
		t.Fatalf("failed store read should report absent")
	}
	if snap.Broker == nil {
		t.Fatalf("broker value should still be collected")
	}
}
