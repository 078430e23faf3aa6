package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs", "index.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	r := &Run{Level: "circus", Code: "program p begin end", Result: 1, NSteps: 15, ReplayPath: "/tmp/x.jsonl.zst"}
	require.NoError(t, s.Record(ctx, r))
	_, err := uuid.Parse(r.ID)
	require.NoError(t, err, "id should be a uuid")
	assert.False(t, r.CreatedAt.IsZero())

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Level, got.Level)
	assert.Equal(t, r.Code, got.Code)
	assert.Equal(t, 15, got.NSteps)
	assert.Equal(t, r.ReplayPath, got.ReplayPath)
	assert.True(t, r.CreatedAt.Equal(got.CreatedAt))
}

func TestGetMissing(t *testing.T) {
	_, err := open(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	require.NoError(t, s.Record(ctx, &Run{ID: "a", Level: "circus"}))
	assert.Error(t, s.Record(ctx, &Run{ID: "a", Level: "circus"}))
}

func TestRecentAndStats(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	runs := []*Run{
		{ID: "1", Level: "circus", Result: 1, CreatedAt: base},
		{ID: "2", Level: "circus", Result: 0, CreatedAt: base.Add(time.Minute)},
		{ID: "3", Level: "circus", Error: "syntax error", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "4", Level: "sandbox", Result: 1, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, r := range runs {
		require.NoError(t, s.Record(ctx, r))
	}

	recent, err := s.Recent(ctx, "circus", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "3", recent[0].ID)
	assert.Equal(t, "2", recent[1].ID)

	all, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "4", all[0].ID)

	st, err := s.Stats(ctx, "circus")
	require.NoError(t, err)
	assert.Equal(t, Stats{Runs: 3, Wins: 1, Errors: 1}, st)

	st, err = s.Stats(ctx, "moon")
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}
