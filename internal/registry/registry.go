// Package registry tracks the datasets loaded into a session. Every
// upload is stored under a name and the most recent one becomes the
// active dataset that tools operate on by default.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"datachat_llm/internal/dataset"
)

type Registry struct {
	mu     sync.RWMutex
	frames map[string]*dataset.Frame
	active string
}

func New() *Registry {
	return &Registry{frames: make(map[string]*dataset.Frame)}
}

// Put stores a frame under its name and makes it the active dataset.
func (r *Registry) Put(f *dataset.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames[f.Name] = f
	r.active = f.Name
}

// Get returns the named frame, or the active one when name is empty.
func (r *Registry) Get(name string) (*dataset.Frame, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.active
	}
	if name == "" {
		return nil, fmt.Errorf("no dataset loaded yet, upload a CSV or Excel file first")
	}
	f, ok := r.frames[name]
	if !ok {
		return nil, fmt.Errorf("no dataset named %q, loaded datasets: %v", name, r.names())
	}
	return f, nil
}

// SetActive switches the default dataset.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.frames[name]; !ok {
		return fmt.Errorf("no dataset named %q, loaded datasets: %v", name, r.names())
	}
	r.active = name
	return nil
}

// Active returns the name of the current default dataset, if any.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Names lists loaded datasets in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.frames))
	for n := range r.frames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
