// Package runcache keeps the lazily loaded run history of expanded
// pipelines, one entry per pipeline id. The loading flag is the sole
// source of truth for in-flight fetches: a key fetches at most once while
// absent, and a failed fetch resets the key so it can be retried. The
// cache is mutated only from the UI update loop and carries no lock.
package runcache

import "github.com/devease/devease/internal/models"

// State describes where a key is in its load cycle.
type State int

const (
	// Absent means no fetch has been issued (or the last one failed).
	Absent State = iota
	// Loading means a fetch is in flight.
	Loading
	// Populated means runs are loaded; an empty slice is still populated.
	Populated
)

type entry struct {
	runs    []models.Run
	loading bool
}

// Cache maps pipeline ids to their loaded run lists.
type Cache struct {
	entries map[int]*entry
}

// New returns an empty run cache.
func New() *Cache {
	return &Cache{entries: make(map[int]*entry)}
}

// EnsureLoaded reports whether the caller must issue a fetch for the
// pipeline. It returns true exactly once per absent key: the key is
// marked loading so concurrent expansions of the same pipeline do not
// issue a second request.
func (c *Cache) EnsureLoaded(pipelineID int) bool {
	if _, ok := c.entries[pipelineID]; ok {
		return false
	}
	c.entries[pipelineID] = &entry{loading: true}
	return true
}

// Complete stores the fetched runs for a pipeline. A completion for a key
// that was invalidated while the fetch was in flight is dropped.
func (c *Cache) Complete(pipelineID int, runs []models.Run) {
	e, ok := c.entries[pipelineID]
	if !ok || !e.loading {
		return
	}
	e.loading = false
	e.runs = runs
}

// Fail resets a key to absent after a failed fetch so it can be retried.
func (c *Cache) Fail(pipelineID int) {
	if e, ok := c.entries[pipelineID]; ok && e.loading {
		delete(c.entries, pipelineID)
	}
}

// Invalidate removes one key, allowing a future reload.
func (c *Cache) Invalidate(pipelineID int) {
	delete(c.entries, pipelineID)
}

// InvalidateAll clears every key. Used on project switch and provider
// reconnect.
func (c *Cache) InvalidateAll() {
	c.entries = make(map[int]*entry)
}

// Get returns the runs for a pipeline and its load state. The runs slice
// is only meaningful when the state is Populated.
func (c *Cache) Get(pipelineID int) ([]models.Run, State) {
	e, ok := c.entries[pipelineID]
	if !ok {
		return nil, Absent
	}
	if e.loading {
		return nil, Loading
	}
	return e.runs, Populated
}

// Len reports how many keys are tracked (loading or populated).
func (c *Cache) Len() int {
	return len(c.entries)
}
