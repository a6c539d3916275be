// Command asm assembles a `.tpu` source file and packs the resulting
// program into a drive image, grounded on main.go's getopt startup shape
// and original_source/assembler/assembler.cpp's pack-into-image step.
package main

import (
	"fmt"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/assemble"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/image"
)

func main() {
	optHelp := getopt.BoolLong("help", 'h', false, "Help")
	getopt.Parse()

	if *optHelp || getopt.NArgs() != 2 {
		getopt.Usage()
		os.Exit(0)
	}

	inPath := getopt.Arg(0)
	drivePath := getopt.Arg(1)

	src, err := os.Open(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "asm: "+err.Error())
		os.Exit(1)
	}
	defer src.Close()

	mem, err := assemble.Assemble(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "asm: "+err.Error())
		os.Exit(1)
	}

	var img *image.Image
	if existing, statErr := os.ReadFile(drivePath); statErr == nil {
		img, err = image.Load(existing)
		if err != nil {
			fmt.Fprintln(os.Stderr, "asm: "+err.Error())
			os.Exit(1)
		}
	} else {
		img = image.New()
	}

	data := mem.GetBytes(0x8000, 0x4000)
	text := mem.GetBytes(0x0000, 0x8000)
	if err := image.Pack(img, data, text); err != nil {
		fmt.Fprintln(os.Stderr, "asm: "+err.Error())
		os.Exit(1)
	}

	if err := os.WriteFile(drivePath, img.Bytes(), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "asm: "+err.Error())
		os.Exit(1)
	}
}
