// Package progimage is the program loader: a fixed-capacity byte buffer
// holding a ladder program in its 7-byte-per-instruction wire encoding
// (opcode:1, op1/op2/op3:2BE each — spec.md §6), plus Decode to turn that
// buffer into an eval.Program.
//
// The image itself is a flat byte array addressed directly, rather than a
// typed in-memory structure, since a program image really is raw bytes
// until it is decoded.
package progimage

import (
	"fmt"

	"github.com/fx3usim/plcsim/eval"
)

// instructionSize is the wire size of one encoded instruction.
const instructionSize = 7

// maxInstructions bounds the largest program image this loader accepts, a
// generous multiple of the firmware's own default program.
const maxInstructions = 2048

// Image is a fixed-capacity raw program buffer.
type Image struct {
	buf [maxInstructions * instructionSize]byte
	len int
}

// Write copies data into the image starting at byte offset off, extending
// the image's logical length if data runs past the current end. It returns
// false if the write would overflow the image's fixed capacity.
func (im *Image) Write(off int, data []byte) bool {
	if off < 0 || off+len(data) > len(im.buf) {
		return false
	}
	copy(im.buf[off:], data)
	if end := off + len(data); end > im.len {
		im.len = end
	}
	return true
}

// Read returns the n bytes at offset off, or nil if that range isn't
// entirely within the image's logical length.
func (im *Image) Read(off, n int) []byte {
	if off < 0 || n < 0 || off+n > im.len {
		return nil
	}
	return im.buf[off : off+n]
}

// Len reports the image's current logical length in bytes.
func (im *Image) Len() int { return im.len }

// FrameError reports a program image whose length isn't a whole number of
// 7-byte instructions. Per spec.md §6, the loader validates only framing
// length; unknown opcodes are left to fail at execution time via
// eval.InvalidOpcodeError.
type FrameError struct {
	Len int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("progimage: length %d is not a multiple of %d", e.Len, instructionSize)
}

// Decode parses the image's logical content into a Program. It validates
// only that the byte length is a whole number of instructions; it does not
// validate opcodes.
func Decode(im *Image) (eval.Program, error) {
	if im.len%instructionSize != 0 {
		return nil, &FrameError{Len: im.len}
	}
	n := im.len / instructionSize
	prog := make(eval.Program, n)
	for i := 0; i < n; i++ {
		off := i * instructionSize
		b := im.buf[off : off+instructionSize]
		prog[i] = eval.Instruction{
			Opcode: eval.Opcode(b[0]),
			Op1:    uint16(b[1])<<8 | uint16(b[2]),
			Op2:    uint16(b[3])<<8 | uint16(b[4]),
			Op3:    uint16(b[5])<<8 | uint16(b[6]),
		}
	}
	return prog, nil
}

// Encode is the inverse of Decode, used by tooling (and tests) that need to
// produce a wire-format image from a Program.
func Encode(prog eval.Program) *Image {
	im := &Image{}
	for i, inst := range prog {
		off := i * instructionSize
		b := []byte{
			byte(inst.Opcode),
			byte(inst.Op1 >> 8), byte(inst.Op1),
			byte(inst.Op2 >> 8), byte(inst.Op2),
			byte(inst.Op3 >> 8), byte(inst.Op3),
		}
		im.Write(off, b)
	}
	return im
}
