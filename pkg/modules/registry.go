// Package modules is the capability catalog: the robot parts a program can
// `use`, the actions each part exposes, and their tick-by-tick behaviour.
package modules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyscript/rustyscript/pkg/types"
)

// Variadic marks an action that accepts any number of arguments.
const Variadic = -1

// Cost is the resource footprint of a module or action.
type Cost struct {
	Health int `json:"health" yaml:"health"`
	CPU    int `json:"cpu" yaml:"cpu"`
	Weight int `json:"weight" yaml:"weight"`
}

func (c Cost) add(o Cost) Cost {
	return Cost{Health: c.Health + o.Health, CPU: c.CPU + o.CPU, Weight: c.Weight + o.Weight}
}

// Host is the agent an action operates on. The sandbox implements it with a
// handle into the world's agent table.
type Host interface {
	Position() (x, y int)
	InBounds(x, y int) bool
	IsOccupied(x, y int) bool
	MoveTo(x, y int)
	AddParticle(x, y int, glyph, color string)
	Intn(n int) int
	Print(line string)
}

// Action is one in-flight action call. Step performs one tick and reports
// true, or reports false once the action is exhausted; Result is only
// meaningful after that. By convention 1 means success and 0 failure.
type Action interface {
	Step() bool
	Result() int
}

// StartFunc begins an action for host with already evaluated arguments.
// It must not touch the world; all effects happen inside Step.
type StartFunc func(h Host, args []types.Value) Action

// ActionSpec describes one action of a module.
type ActionSpec struct {
	Name  string
	Arity int
	Cost  Cost
	Start StartFunc
}

// Accepts reports whether n arguments satisfy the arity contract.
func (s *ActionSpec) Accepts(n int) bool {
	return s.Arity == Variadic || s.Arity == n
}

// ArityString renders the contract for error messages.
func (s *ActionSpec) ArityString() string {
	switch s.Arity {
	case Variadic:
		return "any number of arguments"
	case 1:
		return "1 argument"
	}
	return fmt.Sprintf("%d arguments", s.Arity)
}

// Descriptor is an immutable module definition.
type Descriptor struct {
	Name    string
	Cost    Cost
	Actions map[string]*ActionSpec
}

// Action looks up an action by name.
func (d *Descriptor) Action(name string) (*ActionSpec, bool) {
	a, ok := d.Actions[name]
	return a, ok
}

// ActionNames returns the action names in sorted order.
func (d *Descriptor) ActionNames() []string {
	names := make([]string, 0, len(d.Actions))
	for n := range d.Actions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Registry maps module names to descriptors. It is read-only after
// construction and safe to share between missions.
type Registry struct {
	mods  map[string]*Descriptor
	order []string
}

// NewRegistry builds a registry; later duplicates replace earlier ones.
func NewRegistry(mods ...*Descriptor) *Registry {
	r := &Registry{mods: make(map[string]*Descriptor, len(mods))}
	for _, m := range mods {
		if _, dup := r.mods[m.Name]; !dup {
			r.order = append(r.order, m.Name)
		}
		r.mods[m.Name] = m
	}
	return r
}

// Module returns the descriptor for name.
func (r *Registry) Module(name string) (*Descriptor, bool) {
	m, ok := r.mods[name]
	return m, ok
}

// Lookup resolves module.action.
func (r *Registry) Lookup(module, action string) (*ActionSpec, bool) {
	m, ok := r.mods[module]
	if !ok {
		return nil, false
	}
	return m.Action(action)
}

// Names lists modules in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Cost is the total footprint of the build.
func (r *Registry) Cost() Cost {
	var c Cost
	for _, name := range r.order {
		c = c.add(r.mods[name].Cost)
	}
	return c
}

var catalog = map[string]*Descriptor{
	legs.Name:  legs,
	debug.Name: debug,
}

// Catalog returns the names of every module this build knows about.
func Catalog() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build assembles a registry from catalog module names.
func Build(names ...string) (*Registry, error) {
	mods := make([]*Descriptor, 0, len(names))
	for _, n := range names {
		d, ok := catalog[n]
		if !ok {
			return nil, fmt.Errorf("unknown module %q (known: %s)", n, strings.Join(Catalog(), ", "))
		}
		mods = append(mods, d)
	}
	return NewRegistry(mods...), nil
}

// Legs returns the locomotion module.
func Legs() *Descriptor { return legs }

// Debug returns the diagnostics module.
func Debug() *Descriptor { return debug }
