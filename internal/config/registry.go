package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/latticegraph/vocabengine/pkg/vocab/embeddings"
	"github.com/latticegraph/vocabengine/pkg/vocab/graph"
	"github.com/latticegraph/vocabengine/pkg/vocab/reasoner"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory
// has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// external collaborator kind. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	graph      map[string]func(ProviderEntry) (graph.Adapter, error)
	embeddings map[string]func(ProviderEntry) (embeddings.Provider, error)
	reasoner   map[string]func(ProviderEntry) (reasoner.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		graph:      make(map[string]func(ProviderEntry) (graph.Adapter, error)),
		embeddings: make(map[string]func(ProviderEntry) (embeddings.Provider, error)),
		reasoner:   make(map[string]func(ProviderEntry) (reasoner.Provider, error)),
	}
}

// RegisterGraph registers a Graph Adapter factory under name. Subsequent
// calls with the same name overwrite the previous registration.
func (r *Registry) RegisterGraph(name string, factory func(ProviderEntry) (graph.Adapter, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graph[name] = factory
}

// RegisterEmbeddings registers an Embedding Provider factory under name.
func (r *Registry) RegisterEmbeddings(name string, factory func(ProviderEntry) (embeddings.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embeddings[name] = factory
}

// RegisterReasoner registers a Reasoning Provider factory under name.
func (r *Registry) RegisterReasoner(name string, factory func(ProviderEntry) (reasoner.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasoner[name] = factory
}

// CreateGraph instantiates a Graph Adapter using the factory registered
// under entry.Name. Returns [ErrProviderNotRegistered] if no factory has
// been registered for that name.
func (r *Registry) CreateGraph(entry ProviderEntry) (graph.Adapter, error) {
	r.mu.RLock()
	factory, ok := r.graph[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: graph/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateEmbeddings instantiates an Embedding Provider using the factory
// registered under entry.Name.
func (r *Registry) CreateEmbeddings(entry ProviderEntry) (embeddings.Provider, error) {
	r.mu.RLock()
	factory, ok := r.embeddings[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: embeddings/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateReasoner instantiates a Reasoning Provider using the factory
// registered under entry.Name.
func (r *Registry) CreateReasoner(entry ProviderEntry) (reasoner.Provider, error) {
	r.mu.RLock()
	factory, ok := r.reasoner[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: reasoner/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
