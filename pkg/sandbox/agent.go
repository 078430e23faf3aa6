package sandbox

import (
	"fmt"
	"strings"
)

// Unit is the program driving an agent. *interpreter.Unit implements it.
type Unit interface {
	Resume() (bool, error)
	Completed() bool
}

// Agent is one running program and its place on the grid.
type Agent struct {
	ID   int
	X, Y int
	Unit Unit

	Collected  []string // names of picked up items, in order
	Transcript []string // lines printed by the program
}

// NewAgent creates an agent standing on (x,y). Its Unit is bound after
// Spawn, once the agent has a host handle.
func NewAgent(x, y int) *Agent {
	return &Agent{X: x, Y: y}
}

// Color is the render tag of the agent's marker.
func (a *Agent) Color() string {
	return fmt.Sprintf("player_%d", a.ID)
}

// Active reports whether the agent still has a program to run.
func (a *Agent) Active() bool {
	return a.Unit != nil && !a.Unit.Completed()
}

// Has reports whether the agent picked up an item called name.
func (a *Agent) Has(name string) bool {
	for _, n := range a.Collected {
		if n == name {
			return true
		}
	}
	return false
}

// handle is the modules.Host view of one agent. It holds an index into the
// world's agent table instead of a pointer back to the agent.
type handle struct {
	w  *World
	id int
}

func (h *handle) agent() *Agent { return h.w.Agents[h.id] }

func (h *handle) Position() (int, int) {
	a := h.agent()
	return a.X, a.Y
}

func (h *handle) InBounds(x, y int) bool   { return h.w.InBounds(x, y) }
func (h *handle) IsOccupied(x, y int) bool { return h.w.IsOccupied(x, y) }
func (h *handle) MoveTo(x, y int)          { h.w.move(h.id, x, y) }

func (h *handle) AddParticle(x, y int, glyph, color string) {
	h.w.AddParticle(x, y, glyph, color)
}

func (h *handle) Intn(n int) int { return h.w.Rng.Intn(n) }

func (h *handle) Print(line string) {
	a := h.agent()
	a.Transcript = append(a.Transcript, line)
	if h.w.Output != nil {
		fmt.Fprintf(h.w.Output, "[%s] %s\n", a.Color(), strings.TrimRight(line, "\n"))
	}
}
