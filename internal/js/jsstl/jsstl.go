// Package jsstl bundles the JavaScript implementations of the Hog standard
// library. Each helper is a source snippet plus the helpers it calls;
// Import emits the transitive closure of a request in dependency order.
package jsstl

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Snippet is the source of one helper and the names it depends on.
type Snippet struct {
	Source string
	Deps   []string
}

// Graph maps a helper name to its snippet.
type Graph map[string]Snippet

// Resolver computes import bundles over a fixed graph.
type Resolver struct {
	graph Graph
}

// NewResolver creates a resolver over graph. The graph is not copied and
// must not be modified afterwards.
func NewResolver(graph Graph) *Resolver {
	return &Resolver{graph: graph}
}

var std = NewResolver(stdlib)

// Default returns the resolver over the standard library snippets.
func Default() *Resolver { return std }

// Has reports whether name is a known helper.
func (r *Resolver) Has(name string) bool {
	_, ok := r.graph[name]
	return ok
}

// Names returns the sorted helper names.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.graph))
	for name := range r.graph {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Order returns the closure of names, each helper after its dependencies.
// Traversal is sorted, so the order is deterministic for a given request.
func (r *Resolver) Order(names ...string) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	marks := make(map[string]int)
	var (
		order []string
		path  []string
	)

	var visit func(name string) error
	visit = func(name string) error {
		switch marks[name] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, p := range path {
				if p == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), name)
			return errors.Errorf("jsstl: dependency cycle: %s", strings.Join(cycle, " -> "))
		}
		snippet, ok := r.graph[name]
		if !ok {
			if len(path) > 0 {
				return errors.Errorf("jsstl: unknown function %q required by %q", name, path[len(path)-1])
			}
			return errors.Errorf("jsstl: unknown function %q", name)
		}

		marks[name] = visiting
		path = append(path, name)
		deps := append([]string(nil), snippet.Deps...)
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		marks[name] = done
		order = append(order, name)
		return nil
	}

	requested := append([]string(nil), names...)
	sort.Strings(requested)
	for _, name := range requested {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Import returns the sources of names and everything they depend on, each
// exactly once, dependencies first.
func (r *Resolver) Import(names ...string) (string, error) {
	order, err := r.Order(names...)
	if err != nil {
		return "", err
	}
	sources := make([]string, len(order))
	for i, name := range order {
		sources[i] = strings.TrimSpace(r.graph[name].Source)
	}
	return strings.Join(sources, "\n"), nil
}

// Import resolves names against the standard library.
func Import(names ...string) (string, error) {
	return std.Import(names...)
}
