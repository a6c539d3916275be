// Package postproc implements the peephole post-processor (supplemented
// feature, see SPEC_FULL.md §12.3), grounded on
// original_source/tlang/postprocessor.cpp: a textual rewrite pass over
// already-assembled `.tpu` source, stripping comments and, under
// Minify, collapsing whitespace and dropping unreferenced labels.
package postproc

import (
	"regexp"
	"strings"
)

// Options controls which rewrites Process applies.
type Options struct {
	StripComments bool
	Minify        bool
}

var labelRefPattern = regexp.MustCompile(`(?i)\b(jmp|jz|jnz|jc|jnc|call|movw|pushw)\b`)

// Process rewrites src per opts and returns the resulting text.
func Process(src string, opts Options) string {
	lines := strings.Split(src, "\n")

	if opts.StripComments {
		lines = stripComments(lines)
	}

	if opts.Minify {
		lines = collapseWhitespace(lines)
		lines = dropUnreferencedLabels(lines)
	}

	return strings.Join(lines, "\n")
}

func stripComments(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := stripLineComment(line)
		if strings.TrimSpace(stripped) == "" {
			continue
		}
		out = append(out, stripped)
	}
	return out
}

// stripLineComment drops everything from an unquoted/uncharred ';' to
// the end of the line.
func stripLineComment(line string) string {
	inChar, inString := false, false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\'':
			if !inString {
				inChar = !inChar
			}
		case '"':
			if !inChar {
				inString = !inString
			}
		case ';':
			if !inChar && !inString {
				return line[:i]
			}
		}
	}
	return line
}

func collapseWhitespace(lines []string) []string {
	out := make([]string, 0, len(lines))
	ws := regexp.MustCompile(`[ \t]+`)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, ws.ReplaceAllString(trimmed, " "))
	}
	return out
}

// dropUnreferencedLabels removes `label:` definitions that no
// instruction in the program refers to by name. The "main" label is
// always kept since the assembler's loader requires it.
func dropUnreferencedLabels(lines []string) []string {
	referenced := map[string]bool{"main": true}
	for _, line := range lines {
		if strings.HasSuffix(strings.TrimSpace(line), ":") {
			continue
		}
		if !labelRefPattern.MatchString(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			name := strings.TrimSuffix(strings.TrimSuffix(fields[len(fields)-1], ","), "")
			referenced[name] = true
		}
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasSuffix(trimmed, ":") {
			name := strings.TrimSuffix(trimmed, ":")
			if !referenced[name] {
				continue
			}
		}
		out = append(out, line)
	}
	return out
}
