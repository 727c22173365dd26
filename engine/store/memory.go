package store

import "sync"

// MemoryStore is an in-process Store. It backs tests and ephemeral sessions,
// and exposes hooks to inject faults and interleavings that exercise the
// save-and-verify protocol.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	closed bool

	// FailNextPut, when set, makes the next Put return the given error.
	FailNextPut error
	// InterceptPut, when set, runs after every successful Put. It can mutate
	// the store to simulate a concurrent external writer.
	InterceptPut func(key, value string)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Put(key, value string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if err := s.FailNextPut; err != nil {
		s.FailNextPut = nil
		s.mu.Unlock()
		return err
	}
	s.values[key] = value
	intercept := s.InterceptPut
	s.mu.Unlock()

	if intercept != nil {
		intercept(key, value)
	}
	return nil
}

// Set writes a value directly, bypassing hooks. For test arrangement.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
