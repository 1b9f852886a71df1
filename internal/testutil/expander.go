package testutil

import (
	"context"
	"slices"
	"sync"
)

// StaticExpander is a folder expander backed by a fixed path table.
//
// Unknown paths expand to no folders. Every call is recorded so tests can
// assert which paths were looked up.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StaticExpander struct {
	mu    sync.Mutex
	paths map[string][]int64
	calls []string
	err   error
}

// NewStaticExpander creates an expander answering from paths.
func NewStaticExpander(paths map[string][]int64) *StaticExpander {
	return &StaticExpander{paths: paths}
}

// FailWith makes every later call return err.
func (e *StaticExpander) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// ExpandPath implements compiler.FolderExpander.
func (e *StaticExpander) ExpandPath(_ context.Context, path string) ([]int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, path)
	if e.err != nil {
		return nil, e.err
	}
	return slices.Clone(e.paths[path]), nil
}

// Calls returns the paths looked up so far, in call order.
func (e *StaticExpander) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.calls)
}

// Reset forgets recorded calls.
func (e *StaticExpander) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}
