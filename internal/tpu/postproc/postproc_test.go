package postproc

import "testing"

func TestStripCommentsRemovesTrailingAndFullLineComments(t *testing.T) {
	src := "; full line comment\nmov AL, 1 ; trailing\nhlt\n"
	got := Process(src, Options{StripComments: true})
	if want := "mov AL, 1 \nhlt"; got != want {
		t.Errorf("got: %q expected: %q", got, want)
	}
}

func TestStripCommentsIgnoresSemicolonInStringLiteral(t *testing.T) {
	src := `msg str "a;b"`
	got := Process(src, Options{StripComments: true})
	if got != src {
		t.Errorf("got: %q expected: %q", got, src)
	}
}

func TestMinifyDropsUnreferencedLabelButKeepsMain(t *testing.T) {
	src := `
section .text
main:
  jmp later
later:
  hlt
dead:
  nop
`
	got := Process(src, Options{Minify: true})
	if contains := func(s string) bool {
		for _, line := range splitLines(got) {
			if line == s {
				return true
			}
		}
		return false
	}; contains("dead:") {
		t.Errorf("expected unreferenced label dead: to be dropped, got: %q", got)
	} else if !contains("main:") || !contains("later:") {
		t.Errorf("expected referenced labels to survive, got: %q", got)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
