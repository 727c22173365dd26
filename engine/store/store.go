package store

import "errors"

// Well-known keys. The avatar key matches what the web storefront prototype
// used in browser storage, so exported data stays portable.
const (
	KeyAvatarReference = "vogue_avatar_url"
	KeyCart            = "vogueCart"
)

var ErrClosed = errors.New("store is closed")

// Store is a durable key-value store holding whole string values. Writes are
// atomic single-value replacements; there are no partial or merge writes.
type Store interface {
	// Get returns the value under key and whether it exists.
	Get(key string) (string, bool, error)
	// Put replaces the value under key.
	Put(key, value string) error
	// Delete removes the value under key. Deleting a missing key is not an error.
	Delete(key string) error
	Close() error
}
