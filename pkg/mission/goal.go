package mission

import (
	"fmt"

	"github.com/rustyscript/rustyscript/pkg/sandbox"
)

// Goal is a win condition checked after every tick.
type Goal interface {
	// Prime records the starting state before the first tick.
	Prime(w *sandbox.World)
	// Check reports whether the mission is won.
	Check(w *sandbox.World) bool
}

func newGoal(spec GoalSpec) (Goal, error) {
	switch spec.Kind {
	case "path":
		return &PathGoal{Path: spec.Path}, nil
	case "collect":
		return &CollectGoal{Item: spec.Item}, nil
	}
	return nil, fmt.Errorf("unknown goal kind %q", spec.Kind)
}

// PathGoal requires agent 0 to visit Path in order. Standing still on the
// last reached waypoint is allowed; any other cell restarts the path.
type PathGoal struct {
	Path [][2]int
	step int // waypoints reached so far
}

func (g *PathGoal) Prime(w *sandbox.World) {
	g.step = 0
	if g.at(w, 0) {
		g.step = 1
	}
}

func (g *PathGoal) Check(w *sandbox.World) bool {
	switch {
	case g.step > 0 && g.at(w, g.step-1):
		return false
	case g.at(w, g.step):
		g.step++
	case g.at(w, 0):
		g.step = 1
	default:
		g.step = 0
	}
	return g.step == len(g.Path)
}

// Reached is the number of waypoints visited in the current attempt.
func (g *PathGoal) Reached() int { return g.step }

func (g *PathGoal) at(w *sandbox.World, i int) bool {
	if i >= len(g.Path) || len(w.Agents) == 0 {
		return false
	}
	a := w.Agents[0]
	return a.X == g.Path[i][0] && a.Y == g.Path[i][1]
}

// CollectGoal is won once any agent holds Item.
type CollectGoal struct {
	Item string
}

func (g *CollectGoal) Prime(*sandbox.World) {}

func (g *CollectGoal) Check(w *sandbox.World) bool {
	for _, a := range w.Agents {
		if a.Has(g.Item) {
			return true
		}
	}
	return false
}
