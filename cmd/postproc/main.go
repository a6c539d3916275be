// Command postproc runs the peephole optimizer over a `.tpu` assembly
// source file: comment stripping, whitespace collapsing, and dead
// label removal.
package main

import (
	"fmt"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/postproc"
)

func main() {
	optOut := getopt.StringLong("out", 'o', "", "Output file")
	optForce := getopt.BoolLong("force", 'f', false, "Rewrite the input file in place")
	optMinify := getopt.BoolLong("minify", 'm', false, "Collapse whitespace and drop unreferenced labels")
	optStripComments := getopt.BoolLong("strip-comments", 's', false, "Strip comments")
	optHelp := getopt.BoolLong("help", 'h', false, "Help")
	getopt.Parse()

	if *optHelp || getopt.NArgs() != 1 {
		getopt.Usage()
		os.Exit(0)
	}

	if (*optOut != "") == *optForce {
		fmt.Fprintln(os.Stderr, "postproc: exactly one of -o <out> or -f is required")
		os.Exit(1)
	}

	inPath := getopt.Arg(0)
	src, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "postproc: "+err.Error())
		os.Exit(1)
	}

	out := postproc.Process(string(src), postproc.Options{
		StripComments: *optStripComments || *optMinify,
		Minify:        *optMinify,
	})

	outPath := *optOut
	if *optForce {
		outPath = inPath
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "postproc: "+err.Error())
		os.Exit(1)
	}
}
