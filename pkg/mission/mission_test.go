package mission

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rustyscript/rustyscript/pkg/parser"
	"github.com/rustyscript/rustyscript/pkg/sandbox"
	"github.com/rustyscript/rustyscript/pkg/semantic"
)

func testRng() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// routeLevel is a 3x3 level whose waypoints follow the nine-move route
// right, down, down, left, left, up, up, right, right from (0,0).
func routeLevel() *Level {
	return &Level{
		Name:         "route",
		Size:         3,
		Modules:      []string{"legs"},
		Agents:       1,
		StepsPerTurn: 10,
		Budget:       200,
		Goal: GoalSpec{Kind: "path", Path: [][2]int{
			{0, 0}, {1, 0}, {1, 1}, {1, 2}, {0, 2}, {0, 1}, {0, 0}, {1, 0}, {2, 0},
		}},
	}
}

func play(t *testing.T, level *Level, src string) (Result, *Mission) {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	m, err := New(level, prog, testRng())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := m.Play()
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	return res, m
}

func circus(t *testing.T) *Level {
	t.Helper()
	l, err := Lookup("circus")
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestRouteScenario(t *testing.T) {
	src := "program p use legs begin legs.right() legs.down() legs.down() legs.left() legs.left() legs.up() legs.up() legs.right() legs.right() end"
	res, m := play(t, routeLevel(), src)
	if !res.Win {
		t.Fatalf("expected a win, got %s after %d ticks", res.Verdict(), res.Ticks)
	}
	// Seven full moves, one blocked move, and the commit tick of the last move.
	if res.Ticks != 16 {
		t.Errorf("ticks: got %d, want 16", res.Ticks)
	}
	if len(res.Frames) != 9 {
		t.Errorf("frames: got %d, want 9", len(res.Frames))
	}
	last := res.Frames[len(res.Frames)-1]
	if last[0][2].Glyph != sandbox.AgentGlyph {
		t.Errorf("deciding frame should show the agent at (2,0):\n%s", last)
	}
	if a := m.World.Agents[0]; a.X != 2 || a.Y != 0 {
		t.Errorf("agent at (%d,%d)", a.X, a.Y)
	}
}

func TestCircusLoop(t *testing.T) {
	res, _ := play(t, circus(t), "program p use legs begin legs.right(); legs.right(); legs.down(); legs.down(); legs.left(); legs.left(); legs.up(); legs.up() end.")
	if !res.Win || res.Ticks != 15 {
		t.Fatalf("got win=%v ticks=%d, want win in 15", res.Win, res.Ticks)
	}
	if len(res.Frames) != 8 {
		t.Errorf("frames: got %d, want 8", len(res.Frames))
	}
}

func TestCircusWrongWay(t *testing.T) {
	res, _ := play(t, circus(t), "program p use legs begin legs.down() legs.down() legs.right() legs.right() legs.up() legs.up() legs.left() legs.left() end")
	if res.Win {
		t.Fatal("counter-clockwise loop must not win")
	}
	if res.Ticks != 16 {
		t.Errorf("ticks: got %d, want 16", res.Ticks)
	}
}

func TestNoActionsLoses(t *testing.T) {
	res, _ := play(t, circus(t), "program p use legs begin if x = 1 then legs.right() end")
	if res.Win || res.Ticks != 0 || len(res.Frames) != 0 {
		t.Errorf("got win=%v ticks=%d frames=%d", res.Win, res.Ticks, len(res.Frames))
	}
	if res.Verdict() != "You lose!" {
		t.Errorf("verdict %q", res.Verdict())
	}
}

func TestOffGridMove(t *testing.T) {
	res, m := play(t, circus(t), "program p use legs begin legs.up() end")
	if res.Win || res.Ticks != 1 {
		t.Fatalf("got win=%v ticks=%d", res.Win, res.Ticks)
	}
	if a := m.World.Agents[0]; a.X != 0 || a.Y != 0 {
		t.Errorf("blocked move changed position to (%d,%d)", a.X, a.Y)
	}
	if len(res.Frames) != 1 {
		t.Fatalf("frames: got %d, want 1", len(res.Frames))
	}
	for y, row := range res.Frames[0] {
		for x, c := range row {
			if c.Color == "dust" && c.Glyph != "." {
				t.Errorf("blocked move left a particle at (%d,%d)", x, y)
			}
		}
	}
}

func TestBudgetExhausted(t *testing.T) {
	res, _ := play(t, circus(t), "program p use legs begin while 1 do legs.right() end")
	if res.Win {
		t.Fatal("should lose")
	}
	if res.Ticks != 201 {
		t.Errorf("ticks: got %d, want 201", res.Ticks)
	}
	// Odd ticks up to 199 plus the deciding tick.
	if len(res.Frames) != 101 {
		t.Errorf("frames: got %d, want 101", len(res.Frames))
	}
}

func TestIdleLoopHitsBudget(t *testing.T) {
	res, _ := play(t, circus(t), "program p begin while 1 do begin end end")
	if res.Win || res.Ticks != 201 {
		t.Errorf("got win=%v ticks=%d", res.Win, res.Ticks)
	}
}

func TestUnknownModuleIsSemanticError(t *testing.T) {
	prog, err := parser.Parse("program p use legs begin wings.fly() end")
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(circus(t), prog, testRng())
	var semErr *semantic.Error
	if !errors.As(err, &semErr) {
		t.Fatalf("expected *semantic.Error, got %v", err)
	}
}

func TestLevelRestrictsModules(t *testing.T) {
	prog, err := parser.Parse("program p use debug begin debug.writeln('hi') end")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(circus(t), prog, testRng()); err == nil {
		t.Fatal("circus has no debug module")
	}
}

func TestSandboxCollect(t *testing.T) {
	l, err := Lookup("sandbox")
	if err != nil {
		t.Fatal(err)
	}
	src := `program p use legs, debug
begin
  while legs.right() do begin end
  while legs.down() do begin end
  debug.writeln('done', x, y)
end.`
	res, m := play(t, l, src)
	if !res.Win {
		t.Fatalf("expected a win, got %d ticks", res.Ticks)
	}
	if res.Ticks != 35 {
		t.Errorf("ticks: got %d, want 35", res.Ticks)
	}
	if !m.World.Agents[1].Has("flag") {
		t.Error("agent 1 should hold the flag")
	}
	tr := m.Transcripts()
	if len(tr[0]) != 1 || tr[0][0] != "done 6 0" {
		t.Errorf("agent 0 transcript %q", tr[0])
	}
}

func TestPlayTwice(t *testing.T) {
	prog, _ := parser.Parse("program p begin end")
	m, err := New(circus(t), prog, testRng())
	if err != nil {
		t.Fatal(err)
	}
	m.Play()
	if _, err := m.Play(); !errors.Is(err, ErrPlayed) {
		t.Errorf("second Play: %v", err)
	}
}

func TestPathGoal(t *testing.T) {
	w := sandbox.NewWorld(3, testRng())
	a := sandbox.NewAgent(0, 0)
	w.Spawn(a)
	g := &PathGoal{Path: [][2]int{{0, 0}, {1, 0}, {2, 0}}}
	g.Prime(w)

	steps := []struct {
		x, y    int
		reached int
	}{
		{1, 0, 2}, // next waypoint
		{1, 0, 2}, // staying put
		{1, 1, 0}, // off the path
		{0, 0, 1}, // back on the first waypoint
		{1, 0, 2},
	}
	for i, s := range steps {
		w.Host(a.ID).MoveTo(s.x, s.y)
		if g.Check(w) {
			t.Fatalf("step %d: unexpected win", i)
		}
		if g.Reached() != s.reached {
			t.Errorf("step %d: reached %d, want %d", i, g.Reached(), s.reached)
		}
	}
	w.Host(a.ID).MoveTo(2, 0)
	if !g.Check(w) {
		t.Error("last waypoint should win")
	}
}

func TestCatalog(t *testing.T) {
	if got := strings.Join(Builtin().Names(), ","); got != "circus,sandbox" {
		t.Errorf("builtin levels %s", got)
	}
	_, err := Lookup("moon")
	if !errors.Is(err, ErrUnknownLevel) || err.Error() != "Mission not found!" {
		t.Errorf("Lookup(moon) = %v", err)
	}
	c := circus(t)
	if c.Size != 3 || len(c.Goal.Path) != 9 || c.Budget != 200 {
		t.Errorf("circus level %+v", c)
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	raw := `
corridor:
  size: 4
  modules: [legs]
  goal:
    kind: path
    path: [[0, 0], [1, 0], [2, 0], [3, 0]]
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	l, err := c.Lookup("corridor")
	if err != nil {
		t.Fatal(err)
	}
	if l.Name != "corridor" || l.Agents != 1 || l.Budget != DefaultBudget || l.StepsPerTurn != DefaultStepsPerTurn {
		t.Errorf("defaults not applied: %+v", l)
	}
	res, _ := play(t, l, "program p use legs begin while legs.right() do begin end end")
	if !res.Win || res.Ticks != 5 {
		t.Errorf("got win=%v ticks=%d", res.Win, res.Ticks)
	}
}

func TestInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		msg  string
	}{
		{"tiny", "a: {size: 1, goal: {kind: collect, item: f}}", "too small"},
		{"crowded", "a: {size: 3, agents: 5, goal: {kind: collect, item: f}}", "at most 4"},
		{"unknown module", "a: {size: 3, modules: [wings], goal: {kind: collect, item: f}}", `unknown module "wings"`},
		{"waypoint off grid", "a: {size: 3, goal: {kind: path, path: [[0, 0], [3, 0]]}}", "off the grid"},
		{"item off grid", "a: {size: 3, items: [{at: [5, 5], name: f}], goal: {kind: collect, item: f}}", "off the grid"},
		{"item on spawn", "a: {size: 3, agents: 2, items: [{at: [1, 1], name: f}], goal: {kind: collect, item: f}}", "spawn cell of agent 1"},
		{"goal kind", "a: {size: 3, goal: {kind: dance}}", "unknown goal kind"},
		{"bad yaml", "a: [", "levels:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("got %v, want error mentioning %q", err, tt.msg)
			}
		})
	}
}
