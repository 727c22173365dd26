package diagnostic

import (
	"time"

	"github.com/spaghettifunk/atelier/engine/broker"
	"github.com/spaghettifunk/atelier/engine/core"
	"github.com/spaghettifunk/atelier/engine/store"
)

// Class is the overall verdict over the three avatar reference locations.
type Class int

const (
	// No location holds a reference.
	ClassNoReference Class = iota
	// The store and broker agree on a valid reference, and the local view,
	// when populated, agrees too.
	ClassConsistent
	// The store and broker disagree, in presence or in value, or a populated
	// local view holds a different reference.
	ClassSyncLag
	// At least one location holds a value that fails validation.
	ClassCorrupted
)

func (c Class) String() string {
	switch c {
	case ClassConsistent:
		return "consistent"
	case ClassSyncLag:
		return "sync-lag"
	case ClassCorrupted:
		return "corrupted"
	default:
		return "no-reference"
	}
}

// Location is the inspection result for one place a reference can live.
type Location struct {
	Present bool
	Value   string
	Valid   bool
	Problem string
}

// Snapshot captures the three locations at one instant. Nil means the
// location holds nothing.
type Snapshot struct {
	Store  *string
	Broker *string
	Local  *string
}

/**
 * @brief Report is a read-only reconciliation of the avatar reference across
 * the durable store, the in-memory broker, and the host's local view. It
 * never mutates state; repairs are left to the user through Remediations.
 */
type Report struct {
	Store  Location
	Broker Location
	Local  Location

	StoreMatchesBroker bool
	StoreMatchesLocal  bool
	BrokerMatchesLocal bool

	Class       Class
	GeneratedAt time.Time
}

// Collect reads all three locations. A store read error is reported inside
// the store location rather than failing the whole inspection.
func Collect(s store.Store, b *broker.Broker, local *string) Snapshot {
	var snap Snapshot

	value, ok, err := s.Get(store.KeyAvatarReference)
	if err != nil {
		core.LogError("diagnostic: store read failed: %s", err.Error())
	} else if ok {
		snap.Store = &value
	}

	if ref, ok := b.Get(); ok {
		snap.Broker = &ref
	}

	snap.Local = local
	return snap
}

// Reconcile inspects a snapshot and classifies the overall state.
func Reconcile(snap Snapshot) Report {
	r := Report{
		Store:       inspect(snap.Store),
		Broker:      inspect(snap.Broker),
		Local:       inspect(snap.Local),
		GeneratedAt: time.Now().UTC(),
	}
	r.StoreMatchesBroker = matches(r.Store, r.Broker)
	r.StoreMatchesLocal = matches(r.Store, r.Local)
	r.BrokerMatchesLocal = matches(r.Broker, r.Local)
	r.Class = classify(r)
	return r
}

func inspect(value *string) Location {
	if value == nil {
		return Location{}
	}
	loc := Location{Present: true, Value: *value}
	if _, err := broker.ValidateReference(*value); err != nil {
		loc.Problem = err.Error()
		return loc
	}
	loc.Valid = true
	return loc
}

func matches(a, b Location) bool {
	return a.Present && b.Present && a.Value == b.Value
}

func classify(r Report) Class {
	for _, loc := range []Location{r.Store, r.Broker, r.Local} {
		if loc.Present && !loc.Valid {
			return ClassCorrupted
		}
	}
	if !r.Store.Present && !r.Broker.Present && !r.Local.Present {
		return ClassNoReference
	}

	// Store and broker are the synchronized pair; one holding a reference
	// the other lacks is the lag the save protocol guards against.
	if r.Store.Present != r.Broker.Present {
		return ClassSyncLag
	}
	if r.Store.Present && r.Store.Value != r.Broker.Value {
		return ClassSyncLag
	}
	// A populated local view must agree with whichever pair value is live.
	if r.Local.Present {
		if r.Broker.Present && r.Local.Value != r.Broker.Value {
			return ClassSyncLag
		}
		if !r.Broker.Present {
			return ClassSyncLag
		}
	}
	return ClassConsistent
}

// Remediations suggests user actions for the report's verdict. The
// diagnostic never applies them itself.
func (r Report) Remediations() []string {
	switch r.Class {
	case ClassNoReference:
		return []string{"Create an avatar to establish a reference."}
	case ClassCorrupted:
		return []string{
			"Clear the stored avatar reference.",
			"Create or re-export the avatar to write a fresh reference.",
		}
	case ClassSyncLag:
		return []string{
			"Re-save the avatar so every location converges.",
			"Reload the host if the local view is stale.",
		}
	default:
		return nil
	}
}
