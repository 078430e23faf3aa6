// RustyScript - program a robot, send it on a mission
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rustyscript/rustyscript/pkg/ast"
	"github.com/rustyscript/rustyscript/pkg/lexer"
	"github.com/rustyscript/rustyscript/pkg/mission"
	"github.com/rustyscript/rustyscript/pkg/modules"
	"github.com/rustyscript/rustyscript/pkg/parser"
	"github.com/rustyscript/rustyscript/pkg/render"
	"github.com/rustyscript/rustyscript/pkg/semantic"
)

var (
	flagLevel  = flag.String("level", "circus", "Mission to play")
	flagLevels = flag.String("levels", "", "YAML level catalog (default: built-in levels)")
	flagSeed   = flag.Int64("seed", 0, "Random seed for particles (0 = clock)")
	flagFrames = flag.Bool("frames", true, "Print captured frames")
	flagPlain  = flag.Bool("plain", false, "Disable colours")
	flagCheck  = flag.Bool("check", false, "Only compile and validate")
	flagQuiet  = flag.Bool("quiet", false, "Quiet mode (no banner)")
)

type session struct {
	levels  mission.Catalog
	level   *mission.Level
	printer *render.Printer
}

func main() {
	flag.Parse()

	s, err := newSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		runREPL(s)
		return
	}
	for _, filename := range args {
		won, err := s.runFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !won && !*flagCheck {
			os.Exit(2)
		}
	}
}

func newSession() (*session, error) {
	levels := mission.Builtin()
	if *flagLevels != "" {
		var err error
		if levels, err = mission.LoadCatalog(*flagLevels); err != nil {
			return nil, err
		}
	}
	level, err := levels.Lookup(*flagLevel)
	if err != nil {
		return nil, fmt.Errorf("level %q: %w", *flagLevel, err)
	}
	return &session{
		levels:  levels,
		level:   level,
		printer: &render.Printer{Out: os.Stdout, Plain: *flagPlain},
	}, nil
}

func (s *session) runFile(filename string) (bool, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", filename, err)
	}
	return s.runSource(string(data), filename)
}

// runSource compiles, validates and plays source. It reports whether the
// mission was won.
func (s *session) runSource(source, filename string) (bool, error) {
	prog, err := parser.ParseFile(filename, source)
	if err != nil {
		return false, err
	}

	if *flagCheck {
		reg, err := modules.Build(s.level.Modules...)
		if err != nil {
			return false, err
		}
		if err := semantic.Check(prog, reg); err != nil {
			return false, err
		}
		fmt.Printf("%s: ok, %d action call sites\n", filename, len(ast.CallSites(prog)))
		return true, nil
	}

	seed := *flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m, err := mission.New(s.level, prog, rand.New(rand.NewSource(seed)))
	if err != nil {
		return false, err
	}
	m.World.Output = os.Stdout
	res, err := m.Play()
	if err != nil {
		return false, err
	}
	if *flagFrames {
		if err := s.printer.Frames(res.Frames); err != nil {
			return false, err
		}
	}
	if err := s.printer.Verdict(res); err != nil {
		return false, err
	}
	return res.Win, nil
}

func runREPL(s *session) {
	if !*flagQuiet {
		printBanner()
	}

	reader := bufio.NewReader(os.Stdin)
	buffer := ""

	for {
		if buffer == "" {
			fmt.Printf("%s> ", s.level.Name)
		} else {
			fmt.Print("....> ")
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			break
		}
		line = strings.TrimRight(line, "\r\n")

		if buffer == "" {
			if handled := handleCommand(s, line); handled {
				continue
			}
		}

		buffer += line + "\n"
		if complete(buffer) {
			if _, err := s.runSource(buffer, "<repl>"); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			buffer = ""
		}
	}
}

// complete reports whether src holds a whole program. Block comments may
// span lines; any other lexical error ends the buffer so it gets reported.
func complete(src string) bool {
	toks, err := lexer.New("<repl>", src).All()
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) && lexErr.Msg == "unterminated comment" {
		return false
	}
	if err != nil {
		return true
	}
	depth, opened := 0, false
	for _, t := range toks {
		switch t.Kind {
		case lexer.Begin:
			depth++
			opened = true
		case lexer.End:
			depth--
		}
	}
	return opened && depth <= 0
}

func handleCommand(s *session, line string) bool {
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		return true

	case trimmed == ":help" || trimmed == ":h" || trimmed == ":?":
		printHelp()
		return true

	case trimmed == ":quit" || trimmed == ":q" || trimmed == ":exit":
		fmt.Println("Goodbye!")
		os.Exit(0)

	case trimmed == ":levels":
		for _, name := range s.levels.Names() {
			l := s.levels[name]
			fmt.Printf("  %-10s %dx%d  modules: %s  %s\n", name, l.Size, l.Size, strings.Join(l.Modules, ", "), l.Title)
		}
		return true

	case strings.HasPrefix(trimmed, ":level"):
		parts := strings.Fields(trimmed)
		if len(parts) < 2 {
			fmt.Printf("Current level: %s - %s\n", s.level.Name, s.level.Description)
			return true
		}
		l, err := s.levels.Lookup(parts[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return true
		}
		s.level = l
		fmt.Printf("Level set to %s\n", l.Name)
		return true

	case trimmed == ":modules" || trimmed == ":m":
		printModules(s.level)
		return true

	case strings.HasPrefix(trimmed, ":load ") || strings.HasPrefix(trimmed, ":l "):
		parts := strings.Fields(trimmed)
		if _, err := s.runFile(parts[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return true
	}

	return false
}

func printModules(l *mission.Level) {
	reg, err := modules.Build(l.Modules...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	for _, name := range reg.Names() {
		d, _ := reg.Module(name)
		fmt.Printf("  %s (weight %d)\n", name, d.Cost.Weight)
		for _, a := range d.ActionNames() {
			spec, _ := d.Action(a)
			fmt.Printf("    %s.%s  takes %s\n", name, a, spec.ArityString())
		}
	}
	c := reg.Cost()
	fmt.Printf("  total: health %d, cpu %d, weight %d\n", c.Health, c.CPU, c.Weight)
	for _, name := range modules.Catalog() {
		if _, ok := reg.Module(name); !ok {
			fmt.Printf("  %s: not available on this mission\n", name)
		}
	}
}

func printBanner() {
	fmt.Print(`
╔═══════════════════════════════════════════════════════════╗
║  RustyScript - program a robot, send it on a mission      ║
╠═══════════════════════════════════════════════════════════╣
║  Type :help for commands, :quit to exit                   ║
╚═══════════════════════════════════════════════════════════╝
`)
}

func printHelp() {
	fmt.Print(`
Commands:
  :help, :h, :?    Show this help
  :quit, :q        Exit
  :levels          List missions
  :level <name>    Switch mission (no name: show the current one)
  :modules, :m     Show the modules of the current mission
  :load <file>     Play a program file

Language Basics:
  program p use legs, debug       Header and imported modules
  begin ... end                   Statement block
  legs.right()                    Action call (costs ticks)
  while legs.down() do ...        Loop while the condition is non-zero
  if x = 2 then ...               x and y are the robot's position
  debug.writeln('at', x, y)       Print, one tick
  { comment }  // comment

Example:
  program circus use legs
  begin
    legs.right() legs.right() legs.down() legs.down()
    legs.left() legs.left() legs.up() legs.up()
  end.
`)
}
