package scan

import (
	"github.com/fx3usim/plcsim/addr"
	"github.com/fx3usim/plcsim/eval"
)

func tok(f addr.Family, i int) uint16 { return uint16(addr.Encode(f, i)) }

// DefaultProgram mirrors the firmware's built-in demonstration ladder:
// Y0 following X0, a timer on X1/T0/D100, a hold-coil on X2/X3/M0/Y2, an ADC
// mirror on X4, an accumulator on X5, and a pulse on X6/Y3.
func DefaultProgram() eval.Program {
	return eval.Program{
		{Opcode: eval.LD, Op1: tok(addr.X, 0)},
		{Opcode: eval.OUT, Op1: tok(addr.Y, 0)},

		{Opcode: eval.LD, Op1: tok(addr.X, 1)},
		{Opcode: eval.TMR, Op1: 0, Op2: tok(addr.D, 100)},
		{Opcode: eval.OUT, Op1: tok(addr.Y, 1)},

		{Opcode: eval.LD, Op1: tok(addr.X, 2)},
		{Opcode: eval.SET, Op1: tok(addr.M, 0)},
		{Opcode: eval.LD, Op1: tok(addr.X, 3)},
		{Opcode: eval.RST, Op1: tok(addr.M, 0)},
		{Opcode: eval.LD, Op1: tok(addr.M, 0)},
		{Opcode: eval.OUT, Op1: tok(addr.Y, 2)},

		{Opcode: eval.LD, Op1: tok(addr.X, 4)},
		{Opcode: eval.MOV, Op1: tok(addr.D, 110), Op2: tok(addr.D, 120)},

		{Opcode: eval.LD, Op1: tok(addr.X, 5)},
		{Opcode: eval.ADD, Op1: tok(addr.D, 120), Op2: tok(addr.D, 121), Op3: tok(addr.D, 122)},

		{Opcode: eval.LD, Op1: tok(addr.X, 6)},
		{Opcode: eval.PLS, Op1: tok(addr.Y, 3)},
	}
}

// DefaultRegisters returns the D-register presets the firmware applies
// alongside DefaultProgram: D100 a 5-scan timer preset, D121 an accumulator
// offset, with D120/D122 left at zero.
func DefaultRegisters() map[int]int16 {
	return map[int]int16{
		100: 5,
		120: 0,
		121: 50,
		122: 0,
	}
}
