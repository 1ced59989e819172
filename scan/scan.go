// Package scan drives the cyclic scan: input refresh, program sweep, output
// apply, timer/counter advance, and scan-time bookkeeping. RunCycle mutates
// PLC State only while the state machine is in RUN; MODBUS requests and CLI
// commands from cmd/plcsim also change the state, between cycles.
package scan

import (
	"github.com/fx3usim/plcsim/eval"
	"github.com/fx3usim/plcsim/ioport"
	"github.com/fx3usim/plcsim/state"
	"github.com/fx3usim/plcsim/tc"
)

// invalidOpcodeErrorBase is ORed with the failing opcode to form the sticky
// CPU error code latched on an evaluator fault (spec.md §7).
const invalidOpcodeErrorBase = 0x2000

// Scheduler owns the run/stop/pause state machine and drives one scan at a
// time over a fixed program. It holds no goroutines of its own; callers
// decide the cadence (design note §9: the prescribed default is 200ms, but
// nothing here assumes a particular caller).
type Scheduler struct {
	state   *state.State
	ctx     *eval.Context
	program eval.Program
}

// New returns a scheduler bound to s and prog, starting in STOP.
func New(s *state.State, prog eval.Program) *Scheduler {
	return &Scheduler{
		state:   s,
		ctx:     eval.NewContext(),
		program: prog,
	}
}

// State returns the underlying PLC state, for MODBUS and CLI access between
// cycles.
func (sc *Scheduler) State() *state.State { return sc.state }

// LoadProgram replaces the resident program. Per spec.md §3, this may only
// happen while stopped; callers in RUN or PAUSE must Stop first.
func (sc *Scheduler) LoadProgram(prog eval.Program) bool {
	if sc.state.Run() != state.Stop {
		return false
	}
	sc.program = prog
	sc.ctx = eval.NewContext()
	return true
}

// Start transitions STOP or PAUSE into RUN. It is a no-op from RUN.
func (sc *Scheduler) Start() {
	if sc.state.Run() != state.RunState {
		sc.state.SetRun(state.RunState)
	}
}

// Stop transitions any state to STOP.
func (sc *Scheduler) Stop() {
	sc.state.SetRun(state.Stop)
}

// Reset clears all PLC state and returns to STOP, per the scheduler's
// '*--reset-->STOP' transition.
func (sc *Scheduler) Reset() {
	sc.state.Reset()
	sc.ctx = eval.NewContext()
}

// RunCycle performs one scan if the scheduler is in RUN; otherwise it is a
// no-op (including the NoProgram case — spec.md §7). ts provides the
// monotonic clock for scan-time accounting; io is the input/output binding
// for this cycle.
func (sc *Scheduler) RunCycle(ts ioport.TimeSource, io *ioport.Binding) {
	if sc.state.Run() != state.RunState {
		return
	}
	if len(sc.program) == 0 {
		return
	}

	t0 := ts.NowUS()

	io.SampleInputs(sc.state, ts)
	io.SampleAnalog(sc.state)

	for pc, inst := range sc.program {
		if err := eval.Step(sc.ctx, sc.state, pc, inst); err != nil {
			sc.state.SetError(invalidOpcodeErrorBase | uint16(inst.Opcode))
			sc.state.SetRun(state.Pause)
			break
		}
	}

	io.ApplyOutputs(sc.state)

	elapsed := uint32(ts.NowUS() - t0)
	tc.AdvanceTimers(sc.state, elapsed)
	tc.AdvanceCounters(sc.state)

	sc.state.RecordScan(elapsed)
}
