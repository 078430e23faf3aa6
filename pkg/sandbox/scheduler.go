package sandbox

import "fmt"

// MaxStepsPerTurn caps the ticks one agent gets per round, whatever the
// configured turn length.
const MaxStepsPerTurn = 10

// Scheduler drives the world's agents round-robin. Next advances exactly
// one tick, so a caller can inspect the world after every tick.
type Scheduler struct {
	World *World
	Steps int // ticks per agent per round

	cur     int // agent whose turn it is
	used    int // ticks cur has had this round
	inRound bool
	ticks   int
	rounds  int
	err     error
	done    bool
}

// NewScheduler creates a scheduler giving each agent up to stepsPerTurn
// ticks per round. Values outside 1..MaxStepsPerTurn are clamped.
func NewScheduler(w *World, stepsPerTurn int) *Scheduler {
	if stepsPerTurn <= 0 || stepsPerTurn > MaxStepsPerTurn {
		stepsPerTurn = MaxStepsPerTurn
	}
	return &Scheduler{World: w, Steps: stepsPerTurn}
}

// Next runs one tick of the current agent. It returns false once no agent
// is active or an agent failed; Err tells the two apart.
func (s *Scheduler) Next() bool {
	agents := s.World.Agents
	for !s.done {
		if s.cur == 0 && !s.inRound {
			if !s.anyActive() {
				s.done = true
				break
			}
			s.inRound = true
			s.rounds++
		}
		if s.cur >= len(agents) {
			s.cur, s.used, s.inRound = 0, 0, false
			continue
		}
		a := agents[s.cur]
		if !a.Active() || s.used >= s.Steps {
			s.cur++
			s.used = 0
			continue
		}
		ticked, err := a.Unit.Resume()
		if err != nil {
			s.err = fmt.Errorf("agent %d: %w", a.ID, err)
			s.done = true
			break
		}
		if !ticked {
			s.cur++
			s.used = 0
			continue
		}
		s.used++
		s.ticks++
		s.World.Tick++
		return true
	}
	return false
}

func (s *Scheduler) anyActive() bool {
	for _, a := range s.World.Agents {
		if a.Active() {
			return true
		}
	}
	return false
}

// Err returns the defect that stopped the scheduler, if any.
func (s *Scheduler) Err() error { return s.err }

// Ticks counts ticks run so far.
func (s *Scheduler) Ticks() int { return s.ticks }

// Rounds counts rounds begun so far.
func (s *Scheduler) Rounds() int { return s.rounds }
