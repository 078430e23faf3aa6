// Package worker plays jobs on a fixed pool of goroutines. Each job gets its
// own mission; finished runs are indexed and their frames saved as replays.
package worker

import (
	"context"
	"errors"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rustyscript/rustyscript/pkg/protocol"
	"github.com/rustyscript/rustyscript/pkg/replay"
	"github.com/rustyscript/rustyscript/pkg/runner"
	"github.com/rustyscript/rustyscript/pkg/store"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker pool closed")

// Config configures a pool. Store and ReplayDir are optional.
type Config struct {
	Workers   int
	Runner    *runner.Runner
	Store     *store.Store
	ReplayDir string
	Log       *log.Logger
}

type request struct {
	job  protocol.Job
	resp chan protocol.Reply
}

// Pool is a set of workers sharing one job queue.
type Pool struct {
	cfg Config
	ch  chan request

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts cfg.Workers goroutines.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Runner == nil {
		cfg.Runner = runner.New()
	}
	if cfg.Log == nil {
		cfg.Log = log.New(log.Writer(), "[worker] ", log.LstdFlags)
	}
	p := &Pool{cfg: cfg, ch: make(chan request, cfg.Workers*4)}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.loop(id)
		}(i)
	}
	cfg.Log.Printf("started %d workers", cfg.Workers)
	return p
}

func (p *Pool) loop(id int) {
	for req := range p.ch {
		req.resp <- p.safeHandle(id, req.job)
	}
}

// safeHandle turns a panic while playing one job into an error reply so the
// other workers keep running.
func (p *Pool) safeHandle(worker int, job protocol.Job) (reply protocol.Reply) {
	defer func() {
		if r := recover(); r != nil {
			p.cfg.Log.Printf("worker %d: level=%s panic: %v\n%s", worker, job.Level, r, debug.Stack())
			reply = protocol.Failed("internal error")
		}
	}()
	return p.handle(worker, job)
}

// Submit queues job and waits for its reply.
func (p *Pool) Submit(ctx context.Context, job protocol.Job) (protocol.Reply, error) {
	req := request{job: job, resp: make(chan protocol.Reply, 1)}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return protocol.Reply{}, ErrClosed
	}
	select {
	case p.ch <- req:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return protocol.Reply{}, ctx.Err()
	}

	select {
	case r := <-req.resp:
		return r, nil
	case <-ctx.Done():
		return protocol.Reply{}, ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) handle(worker int, job protocol.Job) protocol.Reply {
	start := time.Now()
	reply, res := p.cfg.Runner.Play(job)

	run := &store.Run{
		ID:        store.NewID(),
		Level:     job.Level,
		Code:      job.Code,
		Result:    reply.Result,
		NSteps:    reply.NSteps,
		Error:     reply.Error,
		CreatedAt: start.UTC(),
	}
	if res != nil && p.cfg.ReplayDir != "" {
		path, err := replay.Save(p.cfg.ReplayDir, &replay.Replay{
			Header: replay.Header{
				RunID:   run.ID,
				Level:   job.Level,
				Code:    job.Code,
				Win:     res.Win,
				Ticks:   res.Ticks,
				Created: run.CreatedAt,
			},
			Frames: res.Frames,
		})
		if err != nil {
			p.cfg.Log.Printf("worker %d: run %s: save replay: %v", worker, run.ID, err)
		} else {
			run.ReplayPath = path
		}
	}
	if p.cfg.Store != nil {
		if err := p.cfg.Store.Record(context.Background(), run); err != nil {
			p.cfg.Log.Printf("worker %d: %v", worker, err)
		}
	}

	if reply.IsError() {
		p.cfg.Log.Printf("worker %d: run %s level=%s error=%q (%s)", worker, run.ID, job.Level, reply.Error, time.Since(start))
	} else {
		p.cfg.Log.Printf("worker %d: run %s level=%s result=%d n_steps=%d (%s)", worker, run.ID, job.Level, reply.Result, reply.NSteps, time.Since(start))
	}
	return reply
}
