package broker

import (
	"errors"
	"net/url"
	"strings"
)

var (
	ErrEmptyReference = errors.New("avatar reference is empty")
	ErrBadScheme      = errors.New("avatar reference must start with http:// or https://")
	ErrBadExtension   = errors.New("avatar reference must point to a .glb asset")
)

// ValidateReference trims and validates a candidate avatar reference. It
// returns the canonical (trimmed) form. Only whole well-formed URLs are ever
// accepted into the broker or the store.
func ValidateReference(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyReference
	}
	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrBadScheme
	}
	return trimmed, nil
}

// ValidateModelReference additionally requires the reference to name a known
// downloadable model format. Used by the manual-entry path when the strict
// extension check is enabled.
func ValidateModelReference(raw string) (string, error) {
	trimmed, err := ValidateReference(raw)
	if err != nil {
		return "", err
	}
	u, _ := url.Parse(trimmed)
	if !strings.HasSuffix(strings.ToLower(u.Path), ".glb") {
		return "", ErrBadExtension
	}
	return trimmed, nil
}
