// Package config parses the TPU runtime's configuration file, adapted
// from config/configparser's line-oriented `KEYWORD value` grammar and
// hook-based registration, simplified because the TPU has no device
// tree to describe -- only a handful of scalar runtime options.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the VM runtime options a configuration file can set.
type Config struct {
	ClockHz     int    // CLOCKFREQ <hz>
	MemoryLog   string // MEMORYLOG <path>
	TraceMask   uint32 // TRACE <mask>
	DebugFile   string // DEBUGFILE <path>
}

// OptionHandler applies a single parsed KEYWORD value line to cfg.
type OptionHandler func(cfg *Config, value string) error

var options = map[string]OptionHandler{}

// RegisterOption adds a new recognized keyword to the configuration
// grammar. Called from init functions, mirroring configparser's
// RegisterModel/RegisterOption pattern.
func RegisterOption(name string, handler OptionHandler) {
	options[strings.ToUpper(name)] = handler
}

func init() {
	RegisterOption("CLOCKFREQ", func(cfg *Config, value string) error {
		hz, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: invalid CLOCKFREQ %q: %w", value, err)
		}
		cfg.ClockHz = hz
		return nil
	})
	RegisterOption("MEMORYLOG", func(cfg *Config, value string) error {
		cfg.MemoryLog = value
		return nil
	})
	RegisterOption("TRACE", func(cfg *Config, value string) error {
		mask, err := strconv.ParseUint(value, 0, 32)
		if err != nil {
			return fmt.Errorf("config: invalid TRACE mask %q: %w", value, err)
		}
		cfg.TraceMask = uint32(mask)
		return nil
	})
	RegisterOption("DEBUGFILE", func(cfg *Config, value string) error {
		cfg.DebugFile = value
		return nil
	})
}

// Load reads and parses a configuration file, applying each recognized
// KEYWORD value line in turn. `#` and `;` start a comment that runs to
// end of line; blank lines are ignored.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if err := applyLine(cfg, scanner.Text()); err != nil {
			return nil, fmt.Errorf("config: line %d: %w", lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyLine tokenizes a single configuration line and dispatches it to
// its registered handler.
func applyLine(cfg *Config, raw string) error {
	line := stripComment(raw)
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	fields := strings.Fields(line)
	keyword := strings.ToUpper(fields[0])
	handler, ok := options[keyword]
	if !ok {
		return fmt.Errorf("unknown option: %s", fields[0])
	}
	value := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	return handler(cfg, value)
}

func stripComment(line string) string {
	for _, c := range []byte{'#', ';'} {
		if i := strings.IndexByte(line, c); i >= 0 {
			line = line[:i]
		}
	}
	return line
}
