package executor

import "sync"

// Results holds the result of every action completed or reused in a run,
// keyed by canonical action id. Deploy results are checksummed addresses;
// call results are 0x-prefixed return data.
type Results struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewResults returns an empty set.
func NewResults() *Results {
	return &Results{values: make(map[string]string)}
}

// Set records the result of key.
func (r *Results) Set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// Get returns the result of key.
func (r *Results) Get(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Snapshot copies the current results.
func (r *Results) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
