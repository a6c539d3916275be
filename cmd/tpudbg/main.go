// Command tpudbg is an interactive debugger REPL over an assembled
// `.tpu` program (supplemented feature, see SPEC_FULL.md §12.1).
package main

import (
	"fmt"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/travis-heavener/tpu2-sub000/debugger"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/assemble"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/cpu"
)

func main() {
	optHelp := getopt.BoolLong("help", 'h', false, "Help")
	getopt.Parse()

	if *optHelp || getopt.NArgs() != 1 {
		getopt.Usage()
		os.Exit(0)
	}

	src, err := os.Open(getopt.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "tpudbg: "+err.Error())
		os.Exit(1)
	}
	defer src.Close()

	mem, err := assemble.Assemble(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tpudbg: "+err.Error())
		os.Exit(1)
	}

	c := cpu.New(mem, os.Stdout)
	console := debugger.New(c)
	console.Run()
}
