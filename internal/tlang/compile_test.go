package tlang

import (
	"strings"
	"testing"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/assemble"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/cpu"
)

// runCompiled lowers src all the way to a running VM and returns the
// exit code the program left in ES, the way `vm` reports it.
func runCompiled(t *testing.T, src string) byte {
	t.Helper()
	asm, err := Compile("test.t", src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	mem, err := assemble.Assemble(strings.NewReader(asm))
	if err != nil {
		t.Fatalf("assemble failed: %v\n--- generated assembly ---\n%s", err, asm)
	}
	c := cpu.New(mem, nil)
	if err := c.Start(); err != nil {
		t.Fatalf("execution failed: %v\n--- generated assembly ---\n%s", err, asm)
	}
	return byte(c.ES)
}

func TestCompileConditionalFunction(t *testing.T) {
	src := `
int f(int x) {
  if (x > 3) return 1;
  return 0;
}
int main() {
  return f(5);
}
`
	out, err := Compile("test.t", src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty assembly output")
	}
}

func TestCompileWhileLoopAccumulator(t *testing.T) {
	src := `
int main() {
  int i = 0;
  int t = 0;
  while (i < 5) {
    t = t + i;
    i = i + 1;
  }
  return t;
}
`
	if _, err := Compile("test.t", src); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
}

// End-to-end round trip for the conditional-function scenario: compile
// to assembly, assemble to memory, run on the VM, and check the exit
// code the oracle would report (f(5) takes the x>3 branch, so main
// returns 1). This is also the regression test for the call-site
// argument cleanup bug (genCall leaving stale bytes on the stack) and
// the return-slot store-before-offset bug (storeTopInto).
func TestCompileConditionalFunctionRunsOnVM(t *testing.T) {
	src := `
int f(int x) {
  if (x > 3) return 1;
  return 0;
}
int main() {
  return f(5);
}
`
	if got := runCompiled(t, src); got != 1 {
		t.Errorf("exit code got: %d expected: 1", got)
	}
}

// End-to-end round trip for the while-loop accumulator scenario:
// t = 0+1+2+3+4 = 10.
func TestCompileWhileLoopAccumulatorRunsOnVM(t *testing.T) {
	src := `
int main() {
  int i = 0;
  int t = 0;
  while (i < 5) {
    t = t + i;
    i = i + 1;
  }
  return t;
}
`
	if got := runCompiled(t, src); got != 10 {
		t.Errorf("exit code got: %d expected: 10", got)
	}
}

// A function call whose argument is itself a multi-byte expression
// exercises the same call-cleanup path with more than one pushed
// argument byte to discard.
func TestCompileNestedCallRunsOnVM(t *testing.T) {
	src := `
int add(int a, int b) {
  return a + b;
}
int main() {
  return add(2, 3) + add(4, 1);
}
`
	if got := runCompiled(t, src); got != 10 {
		t.Errorf("exit code got: %d expected: 10", got)
	}
}

func TestCompileLexErrorPropagates(t *testing.T) {
	if _, err := Compile("test.t", `int main() { char c = '; return 0; }`); err == nil {
		t.Fatal("expected a lex error for an unclosed char literal")
	}
}

func TestCompileParseErrorPropagates(t *testing.T) {
	if _, err := Compile("test.t", `int main() { return y; }`); err == nil {
		t.Fatal("expected a parse error for an unknown identifier")
	}
}
