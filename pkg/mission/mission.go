// Package mission layers a goal, a tick budget and frame capture over the
// sandbox world and scheduler.
package mission

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rustyscript/rustyscript/pkg/ast"
	"github.com/rustyscript/rustyscript/pkg/interpreter"
	"github.com/rustyscript/rustyscript/pkg/modules"
	"github.com/rustyscript/rustyscript/pkg/sandbox"
	"github.com/rustyscript/rustyscript/pkg/semantic"
)

// ErrPlayed is returned when Play is called a second time.
var ErrPlayed = errors.New("mission already played")

// Result is the outcome of one mission.
type Result struct {
	Win    bool
	Frames []sandbox.Frame
	Ticks  int
}

// Verdict is the line shown to the player.
func (r Result) Verdict() string {
	if r.Win {
		return "You win!"
	}
	return "You lose!"
}

// Mission owns the world and agents of one run.
type Mission struct {
	Level    *Level
	World    *sandbox.World
	Registry *modules.Registry

	sched  *sandbox.Scheduler
	goal   Goal
	played bool
}

// New validates prog against the level's modules and sets up the world.
// A nil rng is seeded from the clock.
func New(level *Level, prog *ast.Program, rng *rand.Rand) (*Mission, error) {
	reg, err := modules.Build(level.Modules...)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", level.Name, err)
	}
	if err := semantic.Check(prog, reg); err != nil {
		return nil, err
	}
	goal, err := newGoal(level.Goal)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", level.Name, err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	w := sandbox.NewWorld(level.Size, rng)
	for _, p := range level.Items {
		if err := w.PlaceItem(p.At[0], p.At[1], p.Item); err != nil {
			return nil, fmt.Errorf("level %s: %w", level.Name, err)
		}
	}
	agents := level.Agents
	if agents == 0 {
		agents = 1
	}
	if agents > len(PlayerPositions) {
		return nil, fmt.Errorf("level %s: %d agents, at most %d", level.Name, agents, len(PlayerPositions))
	}
	for i := 0; i < agents; i++ {
		pos := PlayerPositions[i]
		a := sandbox.NewAgent(pos[0], pos[1])
		id, err := w.Spawn(a)
		if err != nil {
			return nil, fmt.Errorf("level %s: %w", level.Name, err)
		}
		a.Unit = interpreter.New(prog, reg, w.Host(id))
	}
	goal.Prime(w)

	return &Mission{
		Level:    level,
		World:    w,
		Registry: reg,
		sched:    sandbox.NewScheduler(w, level.StepsPerTurn),
		goal:     goal,
	}, nil
}

// Budget is the last tick the mission may use.
func (m *Mission) Budget() int {
	if m.Level.Budget > 0 {
		return m.Level.Budget
	}
	return DefaultBudget
}

// Play runs the scheduler until the goal is met, the budget is exceeded or
// every program has finished. Frames are captured on odd ticks and on the
// deciding tick.
func (m *Mission) Play() (Result, error) {
	var res Result
	if m.played {
		return res, ErrPlayed
	}
	m.played = true

	budget := m.Budget()
	for m.sched.Next() {
		tick := m.sched.Ticks()
		res.Ticks = tick
		if m.goal.Check(m.World) {
			res.Win = true
			res.Frames = append(res.Frames, m.World.Render())
			return res, nil
		}
		if tick > budget {
			res.Frames = append(res.Frames, m.World.Render())
			return res, nil
		}
		if tick%2 == 1 {
			res.Frames = append(res.Frames, m.World.Render())
		}
	}
	if err := m.sched.Err(); err != nil {
		return res, fmt.Errorf("level %s: %w", m.Level.Name, err)
	}
	return res, nil
}

// Transcripts returns the lines printed by each agent.
func (m *Mission) Transcripts() [][]string {
	out := make([][]string, len(m.World.Agents))
	for i, a := range m.World.Agents {
		out[i] = a.Transcript
	}
	return out
}
