package userlock

import "sync"

// Registry hands out one mutex per user ID so lifecycle operations on the
// same user are serialized within the process. Entries are created on demand
// and kept for the registry's lifetime; the per-user footprint is one mutex.
type Registry struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[uint64]*sync.Mutex)}
}

// Lock acquires the mutex for the user and returns its unlock function.
func (r *Registry) Lock(userID uint64) func() {
	r.mu.Lock()
	entry := r.locks[userID]
	if entry == nil {
		entry = &sync.Mutex{}
		r.locks[userID] = entry
	}
	r.mu.Unlock()

	entry.Lock()
	return entry.Unlock
}
