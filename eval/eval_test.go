package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fx3usim/plcsim/addr"
	"github.com/fx3usim/plcsim/state"
)

func run(t *testing.T, s *state.State, ctx *Context, prog Program) {
	t.Helper()
	for pc, inst := range prog {
		require.NoError(t, Step(ctx, s, pc, inst))
	}
}

func tok(f addr.Family, i int) uint16 { return uint16(addr.Encode(f, i)) }

// S1 — hold-coil scenario from spec.md §8.
func TestHoldCoilScenario(t *testing.T) {
	s := state.New()
	ctx := NewContext()
	prog := Program{
		{Opcode: LD, Op1: tok(addr.X, 2)},
		{Opcode: SET, Op1: tok(addr.M, 0)},
		{Opcode: LD, Op1: tok(addr.X, 3)},
		{Opcode: RST, Op1: tok(addr.M, 0)},
		{Opcode: LD, Op1: tok(addr.M, 0)},
		{Opcode: OUT, Op1: tok(addr.Y, 2)},
	}

	s.SetX(2, true)
	run(t, s, ctx, prog)
	assert.True(t, s.GetY(2))

	s.SetX(2, false)
	run(t, s, ctx, prog)
	assert.True(t, s.GetY(2), "held coil stays set while X3 is false")

	s.SetX(3, true)
	run(t, s, ctx, prog)
	assert.False(t, s.GetY(2))
}

// S2 — timer scenario from spec.md §8, using the nominal 200ms scan period.
func TestTimerScenario(t *testing.T) {
	s := state.New()
	ctx := NewContext()
	s.SetDIndex(100, 5)
	prog := Program{
		{Opcode: LD, Op1: tok(addr.X, 1)},
		{Opcode: TMR, Op1: 0, Op2: tok(addr.D, 100)},
		{Opcode: OUT, Op1: tok(addr.Y, 1)},
	}

	s.SetX(1, true)
	for i := 0; i < 4; i++ {
		run(t, s, ctx, prog)
		tcAdvance(s, 200_000)
		assert.False(t, s.GetY(1), "scan %d", i+1)
	}
	run(t, s, ctx, prog)
	tcAdvance(s, 200_000)
	assert.True(t, s.GetY(1), "Y1 must be set from the 5th scan onward")

	s.SetX(1, false)
	run(t, s, ctx, prog)
	assert.False(t, s.GetY(1), "clearing X1 immediately resets the timer")
}

// tcAdvance lets the timer scenario observe real scan-time accumulation
// without importing the scan scheduler.
func tcAdvance(s *state.State, elapsedUS uint32) {
	for i := 0; i < 128; i++ {
		tm := s.Timer(i)
		if tm.Running && !tm.Done {
			tm.ElapsedUS += uint64(elapsedUS)
			if tm.ElapsedUS >= uint64(tm.PresetMS)*1000 {
				tm.Done = true
			}
		}
	}
}

func TestDivByZero(t *testing.T) {
	s := state.New()
	ctx := NewContext()
	s.SetDIndex(10, 100)
	s.SetDIndex(11, 0)
	s.SetDIndex(12, 77)

	s.SetX(0, true)
	prog := Program{
		{Opcode: LD, Op1: tok(addr.X, 0)},
		{Opcode: DIV, Op1: tok(addr.D, 10), Op2: tok(addr.D, 11), Op3: tok(addr.D, 12)},
	}
	run(t, s, ctx, prog)

	assert.Equal(t, int16(77), s.GetDIndex(12), "destination unchanged on div-by-zero")
	assert.Equal(t, uint16(0x0001), s.Error())
}

func TestPulseOnRisingEdgeOnly(t *testing.T) {
	s := state.New()
	ctx := NewContext()
	prog := Program{
		{Opcode: LD, Op1: tok(addr.X, 6)},
		{Opcode: PLS, Op1: tok(addr.Y, 3)},
	}

	s.SetX(6, true)
	run(t, s, ctx, prog)
	assert.True(t, s.GetY(3), "first scan with X6 true is a rising edge")

	run(t, s, ctx, prog)
	assert.False(t, s.GetY(3), "second scan with X6 still true is not a new edge")

	s.SetX(6, false)
	run(t, s, ctx, prog)
	assert.False(t, s.GetY(3))

	s.SetX(6, true)
	run(t, s, ctx, prog)
	assert.True(t, s.GetY(3), "X6 going true again is a new rising edge")
}

func TestInvalidOpcode(t *testing.T) {
	s := state.New()
	ctx := NewContext()
	err := Step(ctx, s, 0, Instruction{Opcode: Opcode(0xFE)})
	var invalid *InvalidOpcodeError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, Opcode(0xFE), invalid.Opcode)
}

func TestArithmeticWraps(t *testing.T) {
	s := state.New()
	ctx := NewContext()
	s.SetDIndex(0, 30000)
	s.SetDIndex(1, 30000)
	s.SetX(0, true)
	prog := Program{
		{Opcode: LD, Op1: tok(addr.X, 0)},
		{Opcode: ADD, Op1: tok(addr.D, 0), Op2: tok(addr.D, 1), Op3: tok(addr.D, 2)},
	}
	run(t, s, ctx, prog)
	assert.Equal(t, int16(30000+30000-65536), s.GetDIndex(2))
}

func TestBusIsolationOnLD(t *testing.T) {
	s := state.New()
	ctx := NewContext()
	ctx.Bus = true
	s.SetM(0, false)
	require.NoError(t, Step(ctx, s, 0, Instruction{Opcode: LD, Op1: tok(addr.M, 0)}))
	assert.False(t, ctx.Bus, "LD must not be influenced by prior bus state")
}

func TestCompareAndMove(t *testing.T) {
	s := state.New()
	ctx := NewContext()
	s.SetDIndex(0, 5)
	s.SetDIndex(1, 5)
	require.NoError(t, Step(ctx, s, 0, Instruction{Opcode: CMP, Op1: tok(addr.D, 0), Op2: tok(addr.D, 1)}))
	assert.True(t, ctx.Bus)

	require.NoError(t, Step(ctx, s, 1, Instruction{Opcode: MOV, Op1: tok(addr.D, 0), Op2: tok(addr.D, 2)}))
	assert.Equal(t, int16(5), s.GetDIndex(2))
}
