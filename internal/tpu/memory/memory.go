// Package memory implements the TPU's flat 64 KiB byte-addressable
// memory space.
/*
 * TPU - Flat 16-bit addressed memory
 *
 * Copyright 2026, TPU Project Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */
package memory

import "fmt"

// Size is the total number of addressable bytes: the address space is
// exactly 64 KiB, addresses 0x0000..0xFFFF.
const Size = 1 << 16

// Conventional region boundaries. These are not enforced by Memory
// itself -- they are agreed-upon addresses used by the loader, the
// assembler and the code generator.
const (
	InstructionPtrStart = 0x0000
	TextLowerAddr       = 0x0004
	DataLowerAddr       = 0x8000
	HeapLowerAddr       = 0xC000
	HeapSize            = 0x2000
	StackLowerAddr      = 0xE000
)

// Memory is a flat, byte-addressable 64 KiB array.
type Memory struct {
	cells [Size]byte
}

// New returns a zeroed Memory.
func New() *Memory {
	return &Memory{}
}

// Reset zeroes every cell.
func (m *Memory) Reset() {
	for i := range m.cells {
		m.cells[i] = 0
	}
}

// GetByte reads the byte at addr. addr wraps modulo the address space.
func (m *Memory) GetByte(addr uint16) byte {
	return m.cells[addr]
}

// PutByte writes the byte at addr.
func (m *Memory) PutByte(addr uint16, v byte) {
	m.cells[addr] = v
}

// GetWord reads a little-endian 16-bit word: addr holds the low byte,
// addr+1 the high byte. addr+1 wraps naturally if addr is 0xFFFF.
func (m *Memory) GetWord(addr uint16) uint16 {
	lo := m.cells[addr]
	hi := m.cells[addr+1]
	return uint16(lo) | uint16(hi)<<8
}

// PutWord writes a little-endian 16-bit word at addr.
func (m *Memory) PutWord(addr uint16, v uint16) {
	m.cells[addr] = byte(v)
	m.cells[addr+1] = byte(v >> 8)
}

// PutBytes copies a contiguous run of bytes starting at addr. It returns
// an error if the run would wrap past the end of the address space,
// since callers (the assembler, the image packer) always lay out
// contiguous regions and a silent wrap indicates a layout bug.
func (m *Memory) PutBytes(addr uint16, data []byte) error {
	if int(addr)+len(data) > Size {
		return fmt.Errorf("memory: write of %d bytes at 0x%04X overruns address space", len(data), addr)
	}
	copy(m.cells[addr:], data)
	return nil
}

// GetBytes returns a copy of n bytes starting at addr.
func (m *Memory) GetBytes(addr uint16, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = m.cells[addr+uint16(i)]
	}
	return out
}
