// Package render prints frames and verdicts to a terminal.
package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/rustyscript/rustyscript/pkg/mission"
	"github.com/rustyscript/rustyscript/pkg/sandbox"
)

var palette = map[string]*color.Color{
	"dust":     color.New(color.FgHiBlack),
	"player_0": color.New(color.FgHiMagenta),
	"player_1": color.New(color.FgHiCyan),
	"player_2": color.New(color.FgHiYellow),
	"player_3": color.New(color.FgHiBlue),
	"gold":     color.New(color.FgYellow, color.Bold),
}

var (
	fallback = color.New(color.FgHiBlack)
	win      = color.New(color.FgHiGreen)
	lose     = color.New(color.FgHiRed)
)

// Printer writes frames to Out. Plain disables escape sequences even on a
// terminal.
type Printer struct {
	Out   io.Writer
	Plain bool
}

// Colorize wraps s in the terminal colour of tag.
func Colorize(tag, s string) string {
	c, ok := palette[tag]
	if !ok {
		c = fallback
	}
	return c.Sprint(s)
}

func (p *Printer) paint(c *color.Color, tag, s string) string {
	if p.Plain {
		return s
	}
	if c != nil {
		return c.Sprint(s)
	}
	return Colorize(tag, s)
}

// Frame prints one frame followed by a blank line.
func (p *Printer) Frame(f sandbox.Frame) error {
	for _, row := range f {
		line := ""
		for _, cell := range row {
			line += p.paint(nil, cell.Color, cell.Glyph)
		}
		if _, err := fmt.Fprintln(p.Out, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(p.Out)
	return err
}

// Frames prints a whole replay.
func (p *Printer) Frames(frames []sandbox.Frame) error {
	for _, f := range frames {
		if err := p.Frame(f); err != nil {
			return err
		}
	}
	return nil
}

// Verdict prints the outcome line in green or red.
func (p *Printer) Verdict(res mission.Result) error {
	c := lose
	if res.Win {
		c = win
	}
	_, err := fmt.Fprintf(p.Out, "%s (%d ticks)\n", p.paint(c, "", res.Verdict()), res.Ticks)
	return err
}
