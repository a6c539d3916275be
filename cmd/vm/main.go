// Command vm assembles a `.tpu` source file, runs it to completion and
// exits with the ES register as its status, grounded on main.go's
// getopt/logger startup shape.
package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/travis-heavener/tpu2-sub000/internal/config"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/assemble"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/cpu"
	"github.com/travis-heavener/tpu2-sub000/util/logger"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', false, "Help")
	getopt.Parse()

	if *optHelp || getopt.NArgs() != 1 {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if *optLogFile != "" {
		var err error
		logFile, err = os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "vm: "+err.Error())
			os.Exit(1)
		}
	}
	debug := false
	slog.SetDefault(slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}, &debug)))

	var cfg *config.Config
	if *optConfig != "" {
		var err error
		cfg, err = config.Load(*optConfig)
		if err != nil {
			slog.Error("vm: " + err.Error())
			os.Exit(1)
		}
	} else {
		cfg = &config.Config{}
	}

	path := getopt.Arg(0)
	src, err := os.Open(path)
	if err != nil {
		slog.Error("vm: " + err.Error())
		os.Exit(1)
	}
	defer src.Close()

	mem, err := assemble.Assemble(src)
	if err != nil {
		slog.Error("vm: " + err.Error())
		os.Exit(1)
	}

	c := cpu.New(mem, os.Stdout)
	c.ClockHz = cfg.ClockHz
	if err := c.Start(); err != nil {
		slog.Error("vm: " + err.Error())
		os.Exit(1)
	}
	os.Exit(int(c.ES))
}
