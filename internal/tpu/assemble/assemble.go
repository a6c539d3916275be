// Package assemble implements the TPU's two-pass assembler: a
// mnemonic-dispatch encoder (encode.go) driven by a line-oriented
// section/label resolver. Grounded in shape on emu/assemble/assemble.go
// (map-dispatch over a mnemonic table) and in exact per-instruction
// operand semantics on original_source/asm_loader.cpp.
package assemble

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/memory"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/opcode"
)

// LabelKind distinguishes a code label from the two kinds of data
// labels a `.data` declaration can produce.
type LabelKind int

const (
	LabelCode LabelKind = iota
	LabelStr
	LabelStrz
)

// Label records a label's final address and kind.
type Label struct {
	Kind LabelKind
	Addr uint16
}

// backpatch is a deferred label reference: once name resolves, its
// final address is written little-endian at addr.
type backpatch struct {
	name string
	addr uint16
}

type section int

const (
	sectionNone section = iota
	sectionData
	sectionText
)

// Assembler drives the two-pass assembly of a `.tpu` source file into a
// Memory image.
type Assembler struct {
	Mem *memory.Memory

	labels      map[string]Label
	backpatches []backpatch

	section     section
	dataCursor  uint16
	textCursor  uint16
	line        int
}

// New returns an Assembler that will write into mem.
func New(mem *memory.Memory) *Assembler {
	return &Assembler{
		Mem:        mem,
		labels:     map[string]Label{},
		dataCursor: memory.DataLowerAddr,
		textCursor: memory.TextLowerAddr,
	}
}

// Assemble runs the full two-pass assembly of src into mem and returns
// the populated Memory, including the bootstrap header at
// INSTRUCTION_PTR_START.
func Assemble(src io.Reader) (*memory.Memory, error) {
	mem := memory.New()
	a := New(mem)
	if err := a.Run(src); err != nil {
		return nil, err
	}
	return mem, nil
}

// Run assembles src into a.Mem.
func (a *Assembler) Run(src io.Reader) error {
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		a.line++
		if err := a.processLine(scanner.Text()); err != nil {
			return &Error{Line: a.line, Msg: err.Error()}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("assemble: read error: %w", err)
	}
	if err := a.resolveBackpatches(); err != nil {
		return err
	}
	return a.writeBootstrapHeader()
}

func (a *Assembler) processLine(raw string) error {
	line, err := stripComment(raw)
	if err != nil {
		return err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	fields := strings.Fields(line)
	first := fields[0]

	if strings.EqualFold(first, "section") {
		return a.processSectionLine(fields)
	}

	if strings.HasSuffix(first, ":") && len(fields) == 1 {
		name := strings.TrimSuffix(first, ":")
		return a.declareLabel(name, LabelCode, a.textCursor)
	}

	switch a.section {
	case sectionData:
		return a.processDataLine(line)
	case sectionText:
		return a.processTextLine(first, line)
	default:
		return fmt.Errorf("instruction outside of a section")
	}
}

func (a *Assembler) processSectionLine(fields []string) error {
	if len(fields) != 2 {
		return fmt.Errorf("malformed section directive")
	}
	switch strings.ToLower(strings.TrimPrefix(fields[1], ".")) {
	case "data":
		a.section = sectionData
	case "text":
		a.section = sectionText
	default:
		return fmt.Errorf("unknown section %q", fields[1])
	}
	return nil
}

// processDataLine parses `<name> <str|strz> "<value>"`.
func (a *Assembler) processDataLine(line string) error {
	quoteIdx := strings.Index(line, `"`)
	if quoteIdx < 0 {
		return fmt.Errorf("malformed data declaration %q", line)
	}
	header := strings.Fields(line[:quoteIdx])
	if len(header) != 2 {
		return fmt.Errorf("malformed data declaration %q", line)
	}
	name, kindTok := header[0], strings.ToLower(header[1])
	rest := strings.TrimSpace(line[quoteIdx:])
	if !strings.HasSuffix(rest, `"`) || len(rest) < 2 {
		return fmt.Errorf("malformed string literal in data declaration %q", line)
	}
	value := unescapeString(rest[1 : len(rest)-1])

	var kind LabelKind
	switch kindTok {
	case "str":
		kind = LabelStr
	case "strz":
		kind = LabelStrz
	default:
		return fmt.Errorf("unknown data type %q", kindTok)
	}

	start := a.dataCursor
	bytes := []byte(value)
	if kind == LabelStrz {
		bytes = append(bytes, 0)
	}
	if err := a.Mem.PutBytes(a.dataCursor, bytes); err != nil {
		return err
	}
	a.dataCursor += uint16(len(bytes))
	return a.declareLabel(name, kind, start)
}

func (a *Assembler) processTextLine(mnemonic, line string) error {
	encoder, ok := mnemonics[strings.ToLower(mnemonic)]
	if !ok {
		return fmt.Errorf("unknown mnemonic %q", mnemonic)
	}
	operandText := strings.TrimSpace(strings.TrimPrefix(line, mnemonic))
	operandToks := splitOperands(operandText)
	ops := make([]operand, len(operandToks))
	for i, tok := range operandToks {
		o, err := parseOperand(tok)
		if err != nil {
			return err
		}
		ops[i] = o
	}

	bytes, refs, err := encoder(ops)
	if err != nil {
		return err
	}

	start := a.textCursor
	if err := a.Mem.PutBytes(start, bytes); err != nil {
		return err
	}
	for _, ref := range refs {
		absAddr := start + uint16(ref.Offset)
		if lbl, ok := a.labels[ref.Name]; ok {
			a.Mem.PutWord(absAddr, lbl.Addr)
		} else {
			a.backpatches = append(a.backpatches, backpatch{name: ref.Name, addr: absAddr})
		}
	}
	a.textCursor += uint16(len(bytes))
	return nil
}

func (a *Assembler) declareLabel(name string, kind LabelKind, addr uint16) error {
	if _, exists := a.labels[name]; exists {
		return fmt.Errorf("duplicate label %q", name)
	}
	a.labels[name] = Label{Kind: kind, Addr: addr}
	return nil
}

func (a *Assembler) resolveBackpatches() error {
	for _, bp := range a.backpatches {
		lbl, ok := a.labels[bp.name]
		if !ok {
			return &Error{Msg: fmt.Sprintf("unresolved label %q", bp.name)}
		}
		a.Mem.PutWord(bp.addr, lbl.Addr)
	}
	return nil
}

func (a *Assembler) writeBootstrapHeader() error {
	main, ok := a.labels["main"]
	if !ok || main.Kind != LabelCode {
		return &Error{Msg: `missing required "main" label`}
	}
	header := []byte{byte(opcode.JMP), opcode.JmpUnconditional, byte(main.Addr), byte(main.Addr >> 8)}
	return a.Mem.PutBytes(memory.InstructionPtrStart, header)
}
