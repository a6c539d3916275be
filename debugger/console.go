// Package debugger implements an interactive REPL over a loaded TPU
// CPU/Memory pair, grounded on command/reader/reader.go's liner loop
// shape (NewLiner, SetCtrlCAborts, SetCompleter, Prompt, AppendHistory)
// but with a purpose-built command surface for the TPU domain (see
// SPEC_FULL.md §12.1): neither spec.md nor original_source/ describe a
// debugger, so the command set below is new, not ported.
package debugger

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/peterh/liner"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/cpu"
)

// Console owns the REPL loop and the set of active breakpoints.
type Console struct {
	CPU         *cpu.CPU
	Breakpoints map[uint16]bool
}

// New returns a Console attached to c.
func New(c *cpu.CPU) *Console {
	return &Console{CPU: c, Breakpoints: map[uint16]bool{}}
}

var commandNames = []string{
	"step", "continue", "break", "clear", "regs", "flags", "mem",
	"disasm", "quit", "help",
}

// Run starts the REPL, reading commands until `quit`, EOF, or Ctrl-C.
func (d *Console) Run() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		var out []string
		for _, name := range commandNames {
			if len(prefix) <= len(name) && name[:len(prefix)] == prefix {
				out = append(out, name)
			}
		}
		return out
	})

	for {
		input, err := line.Prompt("tpudbg> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			slog.Error("error reading line: " + err.Error())
			return
		}
		line.AppendHistory(input)
		quit, err := d.Dispatch(input)
		if err != nil {
			fmt.Println("error: " + err.Error())
		}
		if quit {
			return
		}
	}
}
