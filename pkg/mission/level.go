package mission

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rustyscript/rustyscript/pkg/modules"
	"github.com/rustyscript/rustyscript/pkg/sandbox"
)

//go:embed levels.yaml
var builtinLevels []byte

// ErrUnknownLevel is returned for a level name missing from the catalog.
// Its text is what clients display.
var ErrUnknownLevel = errors.New("Mission not found!")

// PlayerPositions are the spawn cells of agents 0..3.
var PlayerPositions = [][2]int{{0, 0}, {1, 1}, {0, 1}, {1, 0}}

// Level defaults.
const (
	DefaultBudget       = 200
	DefaultStepsPerTurn = 10
)

// Placement is an item lying on the grid when the mission starts.
type Placement struct {
	At           [2]int `yaml:"at"`
	sandbox.Item `yaml:",inline"`
}

// GoalSpec selects and configures the win condition.
type GoalSpec struct {
	Kind string   `yaml:"kind"` // "path" or "collect"
	Path [][2]int `yaml:"path,omitempty"`
	Item string   `yaml:"item,omitempty"`
}

// Level is one mission definition.
type Level struct {
	Name         string      `yaml:"-"`
	Title        string      `yaml:"title"`
	Description  string      `yaml:"description"`
	Size         int         `yaml:"size"`
	Modules      []string    `yaml:"modules"`
	Agents       int         `yaml:"agents"`
	StepsPerTurn int         `yaml:"steps_per_turn"`
	Budget       int         `yaml:"budget"`
	Items        []Placement `yaml:"items,omitempty"`
	Goal         GoalSpec    `yaml:"goal"`
}

// Validate fills defaults and checks the level is playable.
func (l *Level) Validate() error {
	if l.Budget == 0 {
		l.Budget = DefaultBudget
	}
	if l.StepsPerTurn == 0 {
		l.StepsPerTurn = DefaultStepsPerTurn
	}
	if l.Agents == 0 {
		l.Agents = 1
	}
	if l.Size < 2 {
		return fmt.Errorf("level %s: size %d too small", l.Name, l.Size)
	}
	if l.Agents > len(PlayerPositions) {
		return fmt.Errorf("level %s: %d agents, at most %d", l.Name, l.Agents, len(PlayerPositions))
	}
	if _, err := modules.Build(l.Modules...); err != nil {
		return fmt.Errorf("level %s: %w", l.Name, err)
	}
	in := func(p [2]int) bool { return p[0] >= 0 && p[1] >= 0 && p[0] < l.Size && p[1] < l.Size }
	for _, it := range l.Items {
		if !in(it.At) {
			return fmt.Errorf("level %s: item %s at %v is off the grid", l.Name, it.Name, it.At)
		}
		for i := 0; i < l.Agents; i++ {
			if it.At == PlayerPositions[i] {
				return fmt.Errorf("level %s: item %s at %v is on the spawn cell of agent %d", l.Name, it.Name, it.At, i)
			}
		}
	}
	switch l.Goal.Kind {
	case "path":
		if len(l.Goal.Path) < 2 {
			return fmt.Errorf("level %s: path needs at least 2 waypoints", l.Name)
		}
		for _, p := range l.Goal.Path {
			if !in(p) {
				return fmt.Errorf("level %s: waypoint %v is off the grid", l.Name, p)
			}
		}
	case "collect":
		if l.Goal.Item == "" {
			return fmt.Errorf("level %s: collect goal without item", l.Name)
		}
	default:
		return fmt.Errorf("level %s: unknown goal kind %q", l.Name, l.Goal.Kind)
	}
	return nil
}

// Catalog maps level names to definitions.
type Catalog map[string]*Level

// ParseCatalog decodes a YAML level catalog and validates every level.
func ParseCatalog(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("levels: %w", err)
	}
	for name, l := range c {
		if l == nil {
			return nil, fmt.Errorf("levels: %s is empty", name)
		}
		l.Name = name
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(raw)
}

// Builtin returns the embedded catalog.
func Builtin() Catalog {
	c, err := ParseCatalog(builtinLevels)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds name in the catalog.
func (c Catalog) Lookup(name string) (*Level, error) {
	l, ok := c[name]
	if !ok {
		return nil, ErrUnknownLevel
	}
	return l, nil
}

// Names lists the levels alphabetically.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var builtin = Builtin()

// Lookup finds name among the built-in levels.
func Lookup(name string) (*Level, error) {
	return builtin.Lookup(name)
}
