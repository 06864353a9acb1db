// Package keyhandle owns the in-memory lifetime of a session's derived key.
//
// The key lives in a memguard LockedBuffer: the pages are mlock'ed, guarded
// and made read-only, and Destroy overwrites them with zeros before they
// are released. Callers never receive a copy of the key, only a borrowed
// view that is valid for the duration of a Use callback.
package keyhandle

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

var (
	// ErrDestroyed is returned by Use once the handle has been destroyed.
	ErrDestroyed = errors.New("key handle destroyed")

	// ErrEmptyKey is returned by New for a zero-length key.
	ErrEmptyKey = errors.New("empty key")
)

// Handle holds the only live copy of a derived key.
type Handle struct {
	mu  sync.RWMutex
	buf *memguard.LockedBuffer
}

// New moves key into protected memory. The source slice is wiped, so the
// caller is left without a copy.
func New(key []byte) (*Handle, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &Handle{buf: memguard.NewBufferFromBytes(key)}, nil
}

// Use lends the key to fn. The slice must not be retained or modified after
// fn returns; the underlying memory is unmapped on Destroy.
func (h *Handle) Use(fn func(key []byte) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.buf == nil || !h.buf.IsAlive() {
		return ErrDestroyed
	}
	return fn(h.buf.Bytes())
}

// Alive reports whether the key is still held.
func (h *Handle) Alive() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.buf != nil && h.buf.IsAlive()
}

// Destroy wipes and releases the key. Safe to call more than once.
func (h *Handle) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.buf != nil {
		h.buf.Destroy()
		h.buf = nil
	}
}
