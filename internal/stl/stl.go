// Package stl is the Hog standard library: a fixed table of builtin functions
// shared by every VM invocation. The table is built once at package
// initialization and never mutated afterwards.
package stl

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/object"
)

// Team is the host context consumed by query builtins such as run().
type Team interface {
	ID() int64
	Query(ctx context.Context, query string, args []object.Object) (object.Object, error)
}

// Env carries the per-invocation state every builtin receives.
type Env struct {
	Team    Team
	Stdout  io.Writer
	Timeout time.Duration
	// Deadline, when set, is when the whole invocation runs out of time.
	// Host calls get what is left of it instead of a fresh Timeout.
	Deadline time.Time
	Context  context.Context
}

func (e *Env) context() context.Context {
	if e == nil || e.Context == nil {
		return context.Background()
	}
	return e.Context
}

// Function is the uniform builtin signature.
type Function func(env *Env, name string, args []object.Object) (object.Object, error)

// Builtin is one entry of the table. MaxArgs of -1 means variadic.
type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      Function
}

// Call checks the argument count and invokes the builtin.
func (b *Builtin) Call(env *Env, args []object.Object) (object.Object, error) {
	if len(args) < b.MinArgs || (b.MaxArgs >= 0 && len(args) > b.MaxArgs) {
		return nil, errors.Errorf("function %s %s, got %d", b.Name, b.arity(), len(args))
	}
	res, err := b.Fn(env, b.Name, args)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return object.NULL, nil
	}
	return res, nil
}

func (b *Builtin) arity() string {
	switch {
	case b.MaxArgs < 0:
		return "expects at least " + plural(b.MinArgs)
	case b.MinArgs == b.MaxArgs:
		return "expects " + plural(b.MinArgs)
	}
	return "expects " + itoa(b.MinArgs) + " to " + plural(b.MaxArgs)
}

// Registry is an immutable name to builtin table.
type Registry struct {
	builtins map[string]*Builtin
	names    []string
}

// New builds a registry. Duplicate names are a programming error.
func New(builtins ...*Builtin) *Registry {
	r := &Registry{builtins: make(map[string]*Builtin, len(builtins))}
	for _, b := range builtins {
		if _, dup := r.builtins[b.Name]; dup {
			panic("stl: duplicate builtin " + b.Name)
		}
		r.builtins[b.Name] = b
		r.names = append(r.names, b.Name)
	}
	sort.Strings(r.names)
	return r
}

// Lookup returns the builtin registered under name.
func (r *Registry) Lookup(name string) (*Builtin, bool) {
	b, ok := r.builtins[name]
	return b, ok
}

// Has reports whether name is a builtin.
func (r *Registry) Has(name string) bool {
	_, ok := r.builtins[name]
	return ok
}

// Names returns the sorted builtin names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

var std = New(allBuiltins()...)

// Default returns the standard library table.
func Default() *Registry { return std }

func allBuiltins() []*Builtin {
	var all []*Builtin
	all = append(all, stringBuiltins()...)
	all = append(all, collectionBuiltins()...)
	all = append(all, encodingBuiltins()...)
	all = append(all, mathBuiltins()...)
	all = append(all, systemBuiltins()...)
	return all
}

func fixed(name string, n int, fn Function) *Builtin {
	return &Builtin{Name: name, MinArgs: n, MaxArgs: n, Fn: fn}
}

func ranged(name string, min, max int, fn Function) *Builtin {
	return &Builtin{Name: name, MinArgs: min, MaxArgs: max, Fn: fn}
}

func variadic(name string, min int, fn Function) *Builtin {
	return &Builtin{Name: name, MinArgs: min, MaxArgs: -1, Fn: fn}
}

func plural(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return itoa(n) + " arguments"
}
