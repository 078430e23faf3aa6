package modules

import "github.com/rustyscript/rustyscript/pkg/types"

var debug = &Descriptor{
	Name: "debug",
	Cost: Cost{Health: 0, CPU: 0, Weight: 1},
	Actions: map[string]*ActionSpec{
		"writeln": {
			Name:  "writeln",
			Arity: Variadic,
			Cost:  Cost{Health: 0, CPU: 0, Weight: 1},
			Start: func(h Host, args []types.Value) Action {
				return &writeln{host: h, line: types.Join(args)}
			},
		},
	},
}

// writeln prints its arguments on its only tick.
type writeln struct {
	host Host
	line string
	done bool
}

func (w *writeln) Step() bool {
	if w.done {
		return false
	}
	w.done = true
	w.host.Print(w.line)
	return true
}

func (w *writeln) Result() int { return 1 }
