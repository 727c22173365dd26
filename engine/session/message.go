package session

import (
	"encoding/json"
)

// Protocol discriminators used by the embedded creation surface.
const (
	creatorSource       = "readyplayerme"
	eventFrameReady     = "v1.frame.ready"
	eventAvatarExported = "v1.avatar.exported"
	subscribeAllEvents  = "v1.**"
)

// Message is one inbound notification from the embedded creation surface.
// Data may be a serialized JSON string, raw bytes, or an already-parsed map,
// mirroring how postMessage payloads arrive.
type Message struct {
	Origin string
	Data   interface{}
}

// creatorEvent is the decoded shape of a creation-surface notification.
// Unknown fields are ignored.
type creatorEvent struct {
	Source    string `json:"source"`
	EventName string `json:"eventName"`
	Data      struct {
		URL string `json:"url"`
	} `json:"data"`
}

// subscribeRequest is posted back into the surface once it reports ready.
type subscribeRequest struct {
	Target    string `json:"target"`
	Type      string `json:"type"`
	EventName string `json:"eventName"`
}

// decodeCreatorEvent parses a notification payload. It returns false for
// anything undecodable; creation-surface chatter is expected and non-fatal.
func decodeCreatorEvent(data interface{}) (*creatorEvent, bool) {
	var raw []byte
	switch d := data.(type) {
	case nil:
		return nil, false
	case string:
		raw = []byte(d)
	case []byte:
		raw = d
	case json.RawMessage:
		raw = d
	default:
		// Pre-parsed structure; round-trip through JSON to apply the schema.
		encoded, err := json.Marshal(d)
		if err != nil {
			return nil, false
		}
		raw = encoded
	}

	var ev creatorEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, false
	}
	return &ev, true
}

func encodeSubscribeRequest() []byte {
	payload, _ := json.Marshal(subscribeRequest{
		Target:    creatorSource,
		Type:      "subscribe",
		EventName: subscribeAllEvents,
	})
	return payload
}
