// rsreplay inspects what rsworker recorded: it plays back replay files and
// lists or exports the run index.
//
//	rsreplay show [-plain] FILE...
//	rsreplay runs -db index.sqlite [-level circus] [-n 20] [-csv]
//	rsreplay stats -db index.sqlite LEVEL...
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rustyscript/rustyscript/pkg/mission"
	"github.com/rustyscript/rustyscript/pkg/render"
	"github.com/rustyscript/rustyscript/pkg/replay"
	"github.com/rustyscript/rustyscript/pkg/store"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: rsreplay show|runs|stats [flags] [args]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	var err error
	switch os.Args[1] {
	case "show":
		err = show(os.Args[2:])
	case "runs":
		err = runs(os.Args[2:])
	case "stats":
		err = stats(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func show(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	plain := fs.Bool("plain", false, "Disable colours")
	delay := fs.Duration("delay", 0, "Pause between frames")
	fs.Parse(args)

	p := &render.Printer{Out: os.Stdout, Plain: *plain}
	for _, path := range fs.Args() {
		r, err := replay.Load(path)
		if err != nil {
			return err
		}
		fmt.Printf("run %s  level %s  %s\n", r.RunID, r.Level, r.Created.Format(time.RFC3339))
		for _, f := range r.Frames {
			if err := p.Frame(f); err != nil {
				return err
			}
			if *delay > 0 {
				time.Sleep(*delay)
			}
		}
		if err := p.Verdict(mission.Result{Win: r.Win, Frames: r.Frames, Ticks: r.Ticks}); err != nil {
			return err
		}
	}
	return nil
}

func openStore(fs *flag.FlagSet, args []string) (*store.Store, error) {
	db := fs.String("db", os.Getenv("RSWORKER_DB"), "SQLite run index")
	fs.Parse(args)
	if *db == "" {
		return nil, fmt.Errorf("%s: -db is required", fs.Name())
	}
	return store.Open(*db)
}

func runs(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	level := fs.String("level", "", "Only runs of this level")
	n := fs.Int("n", 20, "Number of runs")
	asCSV := fs.Bool("csv", false, "Write CSV")
	st, err := openStore(fs, args)
	if err != nil {
		return err
	}
	defer st.Close()

	list, err := st.Recent(context.Background(), *level, *n)
	if err != nil {
		return err
	}
	if *asCSV {
		return writeCSV(os.Stdout, list)
	}
	for _, r := range list {
		outcome := "lose"
		switch {
		case r.Error != "":
			outcome = "error: " + r.Error
		case r.Result == 1:
			outcome = "win"
		}
		fmt.Printf("%s  %s  %-10s %4d  %s\n", r.CreatedAt.Format(time.RFC3339), r.ID, r.Level, r.NSteps, outcome)
	}
	return nil
}

func writeCSV(out io.Writer, list []store.Run) error {
	w := csv.NewWriter(out)
	w.Write([]string{"id", "created", "level", "result", "n_steps", "error", "replay"})
	for _, r := range list {
		w.Write([]string{
			r.ID,
			r.CreatedAt.Format(time.RFC3339Nano),
			r.Level,
			strconv.Itoa(r.Result),
			strconv.Itoa(r.NSteps),
			r.Error,
			r.ReplayPath,
		})
	}
	w.Flush()
	return w.Error()
}

func stats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	st, err := openStore(fs, args)
	if err != nil {
		return err
	}
	defer st.Close()

	levels := fs.Args()
	if len(levels) == 0 {
		levels = mission.Builtin().Names()
	}
	for _, l := range levels {
		s, err := st.Stats(context.Background(), l)
		if err != nil {
			return err
		}
		rate := 0.0
		if played := s.Runs - s.Errors; played > 0 {
			rate = 100 * float64(s.Wins) / float64(played)
		}
		fmt.Printf("%-10s runs %5d  wins %5d  errors %5d  win rate %5.1f%%\n", l, s.Runs, s.Wins, s.Errors, rate)
	}
	return nil
}
