package sandbox

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/rustyscript/rustyscript/pkg/modules"
)

// Default glyph of an empty tile.
const (
	EmptyGlyph = "."
	EmptyColor = "dust"
	AgentGlyph = "@"
)

// Cell is one rendered grid cell.
type Cell struct {
	Glyph string
	Color string
}

// MarshalJSON encodes a cell as a [glyph, color] pair.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Glyph, c.Color})
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("cell: %w", err)
	}
	c.Glyph, c.Color = pair[0], pair[1]
	return nil
}

// Frame is a row-major snapshot of the grid, one row per y.
type Frame [][]Cell

// String renders the glyphs only, one line per row.
func (f Frame) String() string {
	var sb strings.Builder
	for _, row := range f {
		for _, c := range row {
			sb.WriteString(c.Glyph)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Item lies on a tile and is picked up by the first agent entering the cell.
type Item struct {
	Name  string `yaml:"name" json:"name"`
	Glyph string `yaml:"glyph" json:"glyph"`
	Color string `yaml:"color" json:"color"`
}

// Tile is static terrain plus the items lying on it.
type Tile struct {
	Items []Item
}

// Cell returns the tile's own glyph: its top item, or the empty floor.
func (t Tile) Cell() Cell {
	if len(t.Items) == 0 {
		return Cell{Glyph: EmptyGlyph, Color: EmptyColor}
	}
	return Cell{Glyph: t.Items[0].Glyph, Color: t.Items[0].Color}
}

// World is a square tile grid with agents and a single-use particle overlay.
type World struct {
	Size   int
	Grid   []Tile
	Agents []*Agent
	Tick   int

	// Occupancy grid: parallel to Grid, stores agent ID+1 (0 = empty)
	OccGrid []int

	particles []*Cell

	Rng    *rand.Rand
	Output io.Writer // receives debug output when non-nil
}

// NewWorld creates a Size×Size world of empty tiles.
func NewWorld(size int, rng *rand.Rand) *World {
	return &World{
		Size:      size,
		Grid:      make([]Tile, size*size),
		OccGrid:   make([]int, size*size),
		particles: make([]*Cell, size*size),
		Agents:    make([]*Agent, 0, 4),
		Rng:       rng,
	}
}

func (w *World) idx(x, y int) int {
	return y*w.Size + x
}

func (w *World) InBounds(x, y int) bool {
	return x >= 0 && x < w.Size && y >= 0 && y < w.Size
}

// TileAt returns the tile at (x,y); off-grid cells read as empty.
func (w *World) TileAt(x, y int) Tile {
	if !w.InBounds(x, y) {
		return Tile{}
	}
	return w.Grid[w.idx(x, y)]
}

// PlaceItem drops it on (x,y).
func (w *World) PlaceItem(x, y int, it Item) error {
	if !w.InBounds(x, y) {
		return fmt.Errorf("place %s at (%d,%d): outside %dx%d grid", it.Name, x, y, w.Size, w.Size)
	}
	i := w.idx(x, y)
	w.Grid[i].Items = append(w.Grid[i].Items, it)
	return nil
}

// OccAt returns the agent standing on (x,y), or nil.
func (w *World) OccAt(x, y int) *Agent {
	if !w.InBounds(x, y) {
		return nil
	}
	if id := w.OccGrid[w.idx(x, y)]; id != 0 {
		return w.Agents[id-1]
	}
	return nil
}

// IsOccupied reports whether any agent stands on (x,y).
func (w *World) IsOccupied(x, y int) bool {
	return w.OccAt(x, y) != nil
}

// AddParticle overlays (x,y) until the next Render. Off-grid particles are
// dropped; a later particle on the same cell replaces an earlier one.
func (w *World) AddParticle(x, y int, glyph, color string) {
	if !w.InBounds(x, y) {
		return
	}
	w.particles[w.idx(x, y)] = &Cell{Glyph: glyph, Color: color}
}

// Spawn places a at its position and returns its ID. Items on the spawn
// cell are collected at once.
func (w *World) Spawn(a *Agent) (int, error) {
	if !w.InBounds(a.X, a.Y) {
		return 0, fmt.Errorf("spawn at (%d,%d): outside %dx%d grid", a.X, a.Y, w.Size, w.Size)
	}
	if other := w.OccAt(a.X, a.Y); other != nil {
		return 0, fmt.Errorf("spawn at (%d,%d): occupied by agent %d", a.X, a.Y, other.ID)
	}
	a.ID = len(w.Agents)
	w.Agents = append(w.Agents, a)
	w.OccGrid[w.idx(a.X, a.Y)] = a.ID + 1
	w.enter(a)
	return a.ID, nil
}

// Host returns the capability handle for agent id.
func (w *World) Host(id int) modules.Host {
	return &handle{w: w, id: id}
}

// move relocates agent id and fires the items of the entered cell.
func (w *World) move(id, x, y int) {
	a := w.Agents[id]
	w.OccGrid[w.idx(a.X, a.Y)] = 0
	a.X, a.Y = x, y
	w.OccGrid[w.idx(x, y)] = id + 1
	w.enter(a)
}

func (w *World) enter(a *Agent) {
	i := w.idx(a.X, a.Y)
	for _, it := range w.Grid[i].Items {
		a.Collected = append(a.Collected, it.Name)
	}
	w.Grid[i].Items = nil
}

// Render snapshots the grid: tiles, then agent markers, then particles.
// The particle overlay is cleared afterwards.
func (w *World) Render() Frame {
	f := make(Frame, w.Size)
	for y := 0; y < w.Size; y++ {
		row := make([]Cell, w.Size)
		for x := 0; x < w.Size; x++ {
			row[x] = w.Grid[w.idx(x, y)].Cell()
		}
		f[y] = row
	}
	for _, a := range w.Agents {
		f[a.Y][a.X] = Cell{Glyph: AgentGlyph, Color: a.Color()}
	}
	for i, p := range w.particles {
		if p != nil {
			f[i/w.Size][i%w.Size] = *p
			w.particles[i] = nil
		}
	}
	return f
}
