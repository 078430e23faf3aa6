package worker

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyscript/rustyscript/pkg/mission"
	"github.com/rustyscript/rustyscript/pkg/protocol"
	"github.com/rustyscript/rustyscript/pkg/replay"
	"github.com/rustyscript/rustyscript/pkg/runner"
	"github.com/rustyscript/rustyscript/pkg/store"
)

const circusLoop = "program p use legs begin legs.right() legs.right() legs.down() legs.down() legs.left() legs.left() legs.up() legs.up() end"

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func TestPoolPlaysConcurrently(t *testing.T) {
	p := New(Config{Workers: 4, Log: quiet()})
	defer p.Close()

	var wg sync.WaitGroup
	replies := make([]protocol.Reply, 16)
	for i := range replies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := p.Submit(context.Background(), protocol.Job{Code: circusLoop, Level: "circus"})
			assert.NoError(t, err)
			replies[i] = r
		}(i)
	}
	wg.Wait()
	for _, r := range replies {
		assert.Equal(t, 1, r.Result)
		assert.Equal(t, 15, r.NSteps)
	}
}

func TestPoolIndexesAndSavesReplays(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "index.sqlite"))
	require.NoError(t, err)
	defer st.Close()

	p := New(Config{Workers: 2, Store: st, ReplayDir: filepath.Join(dir, "replays"), Log: quiet()})
	ctx := context.Background()
	_, err = p.Submit(ctx, protocol.Job{Code: circusLoop, Level: "circus"})
	require.NoError(t, err)
	bad, err := p.Submit(ctx, protocol.Job{Code: "program p begin end", Level: "moon"})
	require.NoError(t, err)
	assert.Equal(t, "Mission not found!", bad.Error)
	p.Close()

	runs, err := st.Recent(ctx, "circus", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotEmpty(t, runs[0].ReplayPath)

	rp, err := replay.Load(runs[0].ReplayPath)
	require.NoError(t, err)
	assert.Equal(t, runs[0].ID, rp.RunID)
	assert.True(t, rp.Win)
	assert.Len(t, rp.Frames, 8)

	failed, err := st.Recent(ctx, "moon", 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Empty(t, failed[0].ReplayPath)
	assert.Equal(t, "Mission not found!", failed[0].Error)
}

func TestSubmitAfterClose(t *testing.T) {
	p := New(Config{Workers: 1, Log: quiet()})
	p.Close()
	p.Close()
	_, err := p.Submit(context.Background(), protocol.Job{Code: "program p begin end", Level: "circus"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPanickingJobKeepsWorker(t *testing.T) {
	var calls int
	r := &runner.Runner{
		Levels: mission.Builtin(),
		Seed: func() int64 {
			calls++
			if calls == 1 {
				panic("seed source broken")
			}
			return 7
		},
	}
	p := New(Config{Workers: 1, Runner: r, Log: quiet()})
	defer p.Close()

	ctx := context.Background()
	bad, err := p.Submit(ctx, protocol.Job{Code: circusLoop, Level: "circus"})
	require.NoError(t, err)
	assert.Equal(t, "internal error", bad.Error)

	good, err := p.Submit(ctx, protocol.Job{Code: circusLoop, Level: "circus"})
	require.NoError(t, err)
	assert.False(t, good.IsError(), good.Error)
	assert.Equal(t, 1, good.Result)
}
