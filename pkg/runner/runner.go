// Package runner turns one job into one reply: compile, build the mission,
// play it.
package runner

import (
	"math/rand"
	"time"

	"github.com/rustyscript/rustyscript/pkg/mission"
	"github.com/rustyscript/rustyscript/pkg/parser"
	"github.com/rustyscript/rustyscript/pkg/protocol"
)

// Runner plays jobs against a level catalog.
type Runner struct {
	Levels mission.Catalog
	Seed   func() int64 // nil seeds from the clock
}

// New returns a runner over the built-in levels.
func New() *Runner {
	return &Runner{Levels: mission.Builtin()}
}

func (r *Runner) rng() *rand.Rand {
	seed := time.Now().UnixNano()
	if r.Seed != nil {
		seed = r.Seed()
	}
	return rand.New(rand.NewSource(seed))
}

// Run never fails: every error becomes an error reply carrying its message.
func (r *Runner) Run(job protocol.Job) protocol.Reply {
	reply, _ := r.Play(job)
	return reply
}

// Play is Run that also hands back the mission result when there is one.
func (r *Runner) Play(job protocol.Job) (protocol.Reply, *mission.Result) {
	prog, err := parser.Parse(job.Code)
	if err != nil {
		return protocol.Failed(err.Error()), nil
	}
	level, err := r.Levels.Lookup(job.Level)
	if err != nil {
		return protocol.Failed(err.Error()), nil
	}
	m, err := mission.New(level, prog, r.rng())
	if err != nil {
		return protocol.Failed(err.Error()), nil
	}
	res, err := m.Play()
	if err != nil {
		return protocol.Failed(err.Error()), nil
	}
	reply := protocol.Reply{Texts: res.Frames, NSteps: res.Ticks}
	if res.Win {
		reply.Result = 1
	}
	return reply, &res
}

var std = New()

// Run plays job on the built-in levels.
func Run(job protocol.Job) protocol.Reply {
	return std.Run(job)
}
