// Package cpu implements the TPU's fetch/decode/execute loop and its
// per-opcode instruction handlers, grounded on the register file,
// opcode and memory packages. Flag and operand semantics mirror the
// original reference executor bit-for-bit (see DESIGN.md).
package cpu

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/memory"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/opcode"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/register"
)

// CPU holds the TPU's full architectural state: the register file, the
// flag word, and the attached Memory. A CPU owns its Memory only for
// the duration of Start (see SPEC_FULL.md §5): the assembler/loader
// hands the Memory off before execution begins.
type CPU struct {
	AX, BX, CX, DX uint16
	SP, BP, CP     uint16
	SI, DI         uint16
	IP             uint16
	ES             uint16
	Flags          uint16

	Mem *memory.Memory

	// Stdout is where SYSCALL STDOUT writes. Defaults to os.Stdout by
	// the caller; tests substitute a bytes.Buffer.
	Stdout io.Writer

	// ClockHz paces sleep() between fetch steps. Zero disables pacing
	// entirely (the default for tests and the debugger's single-step
	// mode).
	ClockHz int

	suspended bool
}

// RuntimeError reports a fault in the executor: an invalid opcode, an
// invalid MOD byte for the opcode it was paired with, or an invalid
// register code. Per SPEC_FULL.md §7, runtime errors are fatal and
// leave ES unchanged.
type RuntimeError struct {
	Addr uint16
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("cpu: runtime error at %#04x: %s", e.Addr, e.Msg)
}

// New returns a freshly reset CPU attached to mem.
func New(mem *memory.Memory, stdout io.Writer) *CPU {
	c := &CPU{Mem: mem, Stdout: stdout}
	c.Reset()
	return c
}

// Reset restores the architectural reset state described in
// SPEC_FULL.md §4.2: general registers, SI/DI/BP zeroed, IP at the
// bootstrap header, SP at the bottom of the stack region, FLAGS
// cleared, and the suspend latch cleared.
func (c *CPU) Reset() {
	c.AX, c.BX, c.CX, c.DX = 0, 0, 0, 0
	c.BP, c.SI, c.DI = 0, 0, 0
	c.CP = 0
	c.IP = memory.InstructionPtrStart
	c.SP = memory.StackLowerAddr
	c.ES = 0
	c.Flags = 0
	c.suspended = false
}

// Suspended reports whether HLT has been executed.
func (c *CPU) Suspended() bool {
	return c.suspended
}

// sleep consumes one clock tick. It is a wall-time shim only (see
// SPEC_FULL.md §5) and is never relied upon for ordering.
func (c *CPU) sleep() {
	if c.ClockHz <= 0 {
		return
	}
	time.Sleep(time.Second / time.Duration(c.ClockHz))
}

// fetchByte reads the byte at IP and advances IP.
func (c *CPU) fetchByte() byte {
	b := c.Mem.GetByte(c.IP)
	c.IP++
	c.sleep()
	return b
}

// fetchWord reads a little-endian word at IP and advances IP by two.
func (c *CPU) fetchWord() uint16 {
	w := c.Mem.GetWord(c.IP)
	c.IP += 2
	c.sleep()
	return w
}

// Step fetches, decodes and executes exactly one instruction.
func (c *CPU) Step() error {
	if c.suspended {
		return nil
	}
	addr := c.IP
	op := opcode.Opcode(c.fetchByte())
	var mod byte
	if op.HasModByte() {
		mod = c.fetchByte()
	}
	if err := c.dispatch(addr, op, mod); err != nil {
		return err
	}
	return nil
}

// Start runs Step in a loop until HLT suspends the executor or an
// error is returned.
func (c *CPU) Start() error {
	for !c.suspended {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// trace logs one instruction-level debug record. It is the TPU analogue
// of the teacher's leveled debug facility (see SPEC_FULL.md §10.1):
// rather than a bitmask-gated fmt.Fprintf into a raw file, it emits a
// structured slog.Debug call, gated by slog's own level check so tracing
// costs nothing when disabled.
func (c *CPU) trace(addr uint16, op opcode.Opcode, mod byte) {
	slog.Debug("exec", "addr", fmt.Sprintf("%#04x", addr), "op", op.String(), "mod", mod)
}

// --- register file access ---

func (c *CPU) widePtr(r register.Register) *uint16 {
	switch r.Wide() {
	case register.AX:
		return &c.AX
	case register.BX:
		return &c.BX
	case register.CX:
		return &c.CX
	case register.DX:
		return &c.DX
	case register.SP:
		return &c.SP
	case register.BP:
		return &c.BP
	case register.CP:
		return &c.CP
	case register.SI:
		return &c.SI
	case register.DI:
		return &c.DI
	case register.IP:
		return &c.IP
	case register.ES:
		return &c.ES
	case register.FLAGS:
		return &c.Flags
	default:
		return nil
	}
}

// GetReg16 reads a 16-bit register.
func (c *CPU) GetReg16(r register.Register) uint16 {
	return *c.widePtr(r)
}

// SetReg16 writes a 16-bit register.
func (c *CPU) SetReg16(r register.Register, v uint16) {
	*c.widePtr(r) = v
}

// GetReg8 reads an 8-bit register (a low/high alias of a wide pair).
func (c *CPU) GetReg8(r register.Register) byte {
	w := *c.widePtr(r)
	if r.IsHighByte() {
		return byte(w >> 8)
	}
	return byte(w)
}

// SetReg8 writes an 8-bit register, leaving its sibling byte untouched.
func (c *CPU) SetReg8(r register.Register, v byte) {
	p := c.widePtr(r)
	if r.IsHighByte() {
		*p = (*p)&0x00FF | uint16(v)<<8
	} else {
		*p = (*p)&0xFF00 | uint16(v)
	}
}
