package replay

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyscript/rustyscript/pkg/sandbox"
)

func frames() []sandbox.Frame {
	floor := sandbox.Cell{Glyph: ".", Color: "dust"}
	me := sandbox.Cell{Glyph: "@", Color: "player_0"}
	return []sandbox.Frame{
		{{me, floor}, {floor, floor}},
		{{{Glyph: "%", Color: "dust"}, me}, {floor, floor}},
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	in := &Replay{
		Header: Header{
			RunID:   "run-1",
			Level:   "circus",
			Code:    "program p begin end",
			Win:     true,
			Ticks:   3,
			Created: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		Frames: frames(),
	}
	path, err := Save(dir, in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1.jsonl.zst"), path)

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Header.Frames)
	in.Header.Frames = 2
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsTruncated(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, "broken")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(Header{RunID: "broken", Frames: 3}))
	require.NoError(t, w.Write(entry{Index: 0, Frame: frames()[0]}))
	require.NoError(t, w.Close())

	_, err = Load(path)
	assert.ErrorContains(t, err, "announces 3 frames")
}

func TestLoadRejectsPlainFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jsonl.zst")
	require.NoError(t, os.WriteFile(path, []byte(`{"run_id":"x"}`+"\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jsonl.zst"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
