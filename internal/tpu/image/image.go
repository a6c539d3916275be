// Package image implements the TPU disk-image packer (supplemented
// feature, see SPEC_FULL.md §12.2), grounded on
// original_source/assembler/assembler.cpp: a 64 KiB blob whose first
// 128 bytes are a sector-occupancy bitmap, the remainder holding
// packed program blobs.
package image

import (
	"fmt"
)

const (
	// Size is the total image size in bytes.
	Size = 1 << 16
	// SectorSize is the granularity of the occupancy bitmap.
	SectorSize = 64
	// BitmapBytes is the number of bytes the sector bitmap occupies at
	// the start of the image (one bit per sector).
	BitmapBytes = 128
	// DataSectors is the number of sectors available for programs.
	DataSectors = (Size - BitmapBytes) / SectorSize
)

// Image is an in-memory disk image: a sector bitmap plus sector
// storage.
type Image struct {
	bytes [Size]byte
}

// New returns an empty (all-sectors-free) image.
func New() *Image {
	return &Image{}
}

// Load wraps an existing byte slice of exactly Size bytes as an Image,
// for `asm` invocations that pack into an existing drive.
func Load(b []byte) (*Image, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("image: expected %d bytes, got %d", Size, len(b))
	}
	img := &Image{}
	copy(img.bytes[:], b)
	return img, nil
}

// Bytes returns the image's raw contents.
func (img *Image) Bytes() []byte {
	return img.bytes[:]
}

func (img *Image) sectorUsed(sector int) bool {
	byteIdx := sector / 8
	bit := uint(sector % 8)
	return img.bytes[byteIdx]&(1<<bit) != 0
}

func (img *Image) markSectorUsed(sector int) {
	byteIdx := sector / 8
	bit := uint(sector % 8)
	img.bytes[byteIdx] |= 1 << bit
}

// sectorsNeeded returns how many whole sectors are required to hold n
// bytes.
func sectorsNeeded(n int) int {
	return (n + SectorSize - 1) / SectorSize
}

// findFreeRun scans the bitmap, LSB-first within each byte, for the
// first contiguous run of n free sectors. It returns the starting
// sector index, or -1 if the drive is full.
func (img *Image) findFreeRun(n int) int {
	run := 0
	start := -1
	for s := 0; s < DataSectors; s++ {
		if img.sectorUsed(s) {
			run = 0
			start = -1
			continue
		}
		if run == 0 {
			start = s
		}
		run++
		if run == n {
			return start
		}
	}
	return -1
}

// Pack writes a program (its .data bytes followed by its .text bytes,
// with the .text start offset recorded as a little-endian pointer at
// the front of the blob -- see SPEC_FULL.md §6) into the first
// available sector run. It returns an error if the drive has no
// sufficient free run.
func Pack(img *Image, data, text []byte) error {
	blob := make([]byte, 2+len(data)+len(text))
	textStart := uint16(2 + len(data))
	blob[0] = byte(textStart)
	blob[1] = byte(textStart >> 8)
	copy(blob[2:], data)
	copy(blob[2+len(data):], text)

	n := sectorsNeeded(len(blob))
	start := img.findFreeRun(n)
	if start < 0 {
		return fmt.Errorf("image: no free run of %d sectors available", n)
	}

	base := BitmapBytes + start*SectorSize
	copy(img.bytes[base:], blob)
	for s := start; s < start+n; s++ {
		img.markSectorUsed(s)
	}
	return nil
}
