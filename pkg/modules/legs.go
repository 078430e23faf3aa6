package modules

import "github.com/rustyscript/rustyscript/pkg/types"

// Dust is the particle a successful step leaves behind.
const (
	DustGlyph = "%"
	DustColor = "dust"
)

var legsCost = Cost{Health: 0, CPU: 0, Weight: 1}

var legs = &Descriptor{
	Name: "legs",
	Cost: legsCost,
	Actions: map[string]*ActionSpec{
		"up":    moveSpec("up", 0, -1),
		"down":  moveSpec("down", 0, 1),
		"left":  moveSpec("left", -1, 0),
		"right": moveSpec("right", 1, 0),
	},
}

func moveSpec(name string, dx, dy int) *ActionSpec {
	return &ActionSpec{
		Name:  name,
		Arity: 0,
		Cost:  legsCost,
		Start: func(h Host, _ []types.Value) Action {
			return &move{host: h, dx: dx, dy: dy}
		},
	}
}

// move costs two ticks when it succeeds (commit, then settle) and one tick
// when the target cell is off the grid or occupied.
type move struct {
	host   Host
	dx, dy int
	ticks  int
	ok     bool
}

func (m *move) Step() bool {
	switch m.ticks {
	case 0:
		m.ticks++
		x, y := m.host.Position()
		nx, ny := x+m.dx, y+m.dy
		if !m.host.InBounds(nx, ny) || m.host.IsOccupied(nx, ny) {
			return true
		}
		m.ok = true
		m.dust(x, y)
		m.host.MoveTo(nx, ny)
		return true
	case 1:
		if m.ok {
			m.ticks++
			return true
		}
	}
	return false
}

func (m *move) Result() int {
	if m.ok {
		return 1
	}
	return 0
}

// dust leaves a particle in the vacated cell on three outcomes out of four.
func (m *move) dust(x, y int) {
	if m.host.Intn(4) != 0 {
		m.host.AddParticle(x, y, DustGlyph, DustColor)
	}
}
