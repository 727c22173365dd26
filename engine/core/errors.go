package core

import (
	"errors"
)

var (
	ErrNotMounted = errors.New("scene is not mounted")
	ErrUnknown    = errors.New("unknown")
)
