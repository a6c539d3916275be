// Command compile translates a T-language source file into TPU
// assembly text, grounded on original_source/tlang/t_compiler.cpp's
// argv validation, `.t`→`.tpu` output naming (`inPath + "pu"`), `-f`
// force-overwrite flag, and delete-output-on-failure behavior.
package main

import (
	"fmt"
	"os"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/travis-heavener/tpu2-sub000/internal/tlang"
)

func main() {
	optForce := getopt.BoolLong("force", 'f', false, "Overwrite an existing output file")
	optHelp := getopt.BoolLong("help", 'h', false, "Help")
	getopt.Parse()

	if *optHelp || getopt.NArgs() != 1 {
		getopt.Usage()
		os.Exit(0)
	}

	inPath := getopt.Arg(0)
	if !strings.HasSuffix(inPath, ".t") {
		fmt.Fprintln(os.Stderr, "compile: input file must have a .t extension")
		os.Exit(1)
	}
	outPath := inPath + "pu"

	if !*optForce {
		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintln(os.Stderr, "compile: "+outPath+" already exists, use -f to overwrite")
			os.Exit(1)
		}
	}

	src, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile: "+err.Error())
		os.Exit(1)
	}

	asm, err := tlang.Compile(inPath, string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile: "+err.Error())
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, []byte(asm), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "compile: "+err.Error())
		os.Remove(outPath)
		os.Exit(1)
	}
}
