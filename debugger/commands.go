package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/disasm"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/register"
	"github.com/travis-heavener/tpu2-sub000/util/hexfmt"
)

// Dispatch parses and runs a single REPL line. It returns quit=true
// when the session should end.
func (d *Console) Dispatch(input string) (quit bool, err error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "step", "s":
		return false, d.cmdStep(args)
	case "continue", "c":
		return false, d.cmdContinue()
	case "break", "b":
		return false, d.cmdBreak(args)
	case "clear":
		return false, d.cmdClear(args)
	case "regs", "r":
		d.cmdRegs()
		return false, nil
	case "flags", "f":
		d.cmdFlags()
		return false, nil
	case "mem", "m":
		return false, d.cmdMem(args)
	case "disasm", "d":
		return false, d.cmdDisasm(args)
	case "quit", "q":
		return true, nil
	case "help", "h":
		d.cmdHelp()
		return false, nil
	}
	return false, fmt.Errorf("unknown command: %s", cmd)
}

func parseAddr(tok string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(tok, "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", tok, err)
	}
	return uint16(v), nil
}

func (d *Console) cmdStep(args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q: %w", args[0], err)
		}
		n = v
	}
	for i := 0; i < n && !d.CPU.Suspended(); i++ {
		if err := d.CPU.Step(); err != nil {
			return err
		}
	}
	return nil
}

// cmdContinue runs until a breakpoint address is reached, HLT suspends
// execution, or a runtime error occurs.
func (d *Console) cmdContinue() error {
	for !d.CPU.Suspended() {
		if d.Breakpoints[d.CPU.IP] {
			fmt.Println("breakpoint hit at " + hexfmt.Addr(d.CPU.IP))
			return nil
		}
		if err := d.CPU.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Console) cmdBreak(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: break <addr>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	d.Breakpoints[addr] = true
	return nil
}

func (d *Console) cmdClear(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: clear <addr>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	delete(d.Breakpoints, addr)
	return nil
}

var regOrder = []register.Register{
	register.AX, register.BX, register.CX, register.DX,
	register.SP, register.BP, register.CP, register.SI, register.DI,
	register.IP, register.ES,
}

func (d *Console) cmdRegs() {
	for _, r := range regOrder {
		fmt.Printf("%-5s %s\n", r.String(), hexfmt.Word(d.CPU.GetReg16(r)))
	}
}

func (d *Console) cmdFlags() {
	fmt.Println("FLAGS " + hexfmt.Word(d.CPU.GetReg16(register.FLAGS)))
}

func (d *Console) cmdMem(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: mem <addr> <len>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid length %q: %w", args[1], err)
	}
	fmt.Print(hexfmt.Dump(addr, d.CPU.Mem.GetBytes(addr, n)))
	return nil
}

func (d *Console) cmdDisasm(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: disasm <addr> <n>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid instruction count %q: %w", args[1], err)
	}
	for i := 0; i < n; i++ {
		instr := disasm.Decode(d.CPU.Mem, addr)
		fmt.Printf("%s  %s\n", hexfmt.Addr(addr), instr.Text)
		addr += instr.Len
	}
	return nil
}

func (d *Console) cmdHelp() {
	fmt.Println(`step [n]          single-step n instructions (default 1)
continue          run until a breakpoint or HLT
break <addr>      set a breakpoint
clear <addr>      clear a breakpoint
regs              print the general/pointer registers
flags             print the FLAGS register
mem <addr> <len>  hex-dump len bytes starting at addr
disasm <addr> <n> disassemble n instructions starting at addr
quit              exit the debugger`)
}
