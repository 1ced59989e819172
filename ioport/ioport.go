// Package ioport defines the hardware capability interfaces the core
// consumes (design note §9: "polymorphism over capabilities") and the
// Binding that exercises them once per scan: debounced digital input
// sampling, analog-to-register conversion, output reflection, and RUN-switch
// dominance over CLI start/stop.
//
// None of these interfaces touch real GPIO; that wiring lives in cmd/plcsim.
// Tests exercise Binding against fakes, which is the entire point of having
// the core depend on interfaces rather than concrete hardware calls.
package ioport

import "github.com/fx3usim/plcsim/state"

// TimeSource is a monotonic, microsecond-resolution clock.
type TimeSource interface {
	NowUS() uint64
}

// DigitalIn reads the raw (undebounced) level of one digital input channel.
type DigitalIn interface {
	ReadInput(channel int) bool
}

// DigitalOut drives the raw level of one digital output channel, and the
// RUN/ERR status indicators.
type DigitalOut interface {
	WriteOutput(channel int, v bool)
	SetRunIndicator(v bool)
	SetErrIndicator(v bool)
}

// AnalogIn samples one ADC channel, returning a 12-bit raw reading (0..4095).
type AnalogIn interface {
	ReadAnalog(channel int) uint16
}

// RunSwitch reads the physical RUN switch level. Per design note §9, the
// switch is authoritative over CLI commands whenever it is polled closed.
type RunSwitch interface {
	ReadRunSwitch() bool
}

// ByteIO is the RS-485 byte transport the MODBUS framer rides on. Frame
// delimitation by inter-character gap is the transport's job, out of core
// scope (spec.md §1); PollBytes returns whatever has accumulated into one
// complete frame since the last call, or nil.
type ByteIO interface {
	PollBytes() []byte
	Send(data []byte)
}

// digitalInputCount and analogChannelCount mirror the X0..X9 / AI0,AI1,PVD
// channel counts wired in original_source's fx3u_io.c.
const (
	digitalInputCount  = 10
	digitalOutputCount = 9
	analogChannelCount = 3

	debounceStableMS = 20
)

// analogRegister maps ADC channel index to its destination D-register,
// defaults per spec.md §4.8 (D110=AI0, D111=AI1, D112=PVD).
var analogRegister = [analogChannelCount]int{110, 111, 112}

// inputDebounce tracks one channel's debounce state machine.
type inputDebounce struct {
	stable       bool
	changedAtUS  uint64
	tracking     bool
	trackedLevel bool
}

// Binding is the I/O layer's per-instance state: the debounce trackers for
// every digital input and the last-seen RUN switch level (for edge
// detection). It holds no goroutines; SampleInputs/SampleAnalog/ApplyOutputs
// are all called synchronously from the scheduler's RunCycle.
type Binding struct {
	in  DigitalIn
	out DigitalOut
	adc AnalogIn
	sw  RunSwitch

	debounce   [digitalInputCount]inputDebounce
	lastSwitch bool
}

// New returns a Binding wired to the given capability implementations. Any
// of in/out/adc/sw may be nil, in which case the corresponding Sample/Apply
// call becomes a no-op — useful for tests that only exercise part of the
// binding.
func New(in DigitalIn, out DigitalOut, adc AnalogIn, sw RunSwitch) *Binding {
	return &Binding{in: in, out: out, adc: adc, sw: sw}
}

// SampleInputs debounces every digital input channel and writes the stable
// result into the corresponding X-bit, per spec.md §4.8: a level that
// differs from the last stable value for a continuous ≥20ms becomes the new
// stable value.
func (b *Binding) SampleInputs(s *state.State, ts TimeSource) {
	if b.in == nil {
		return
	}
	now := ts.NowUS()
	for i := 0; i < digitalInputCount; i++ {
		level := b.in.ReadInput(i)
		d := &b.debounce[i]

		if level != d.stable {
			if !d.tracking || d.trackedLevel != level {
				d.tracking = true
				d.trackedLevel = level
				d.changedAtUS = now
			} else if now-d.changedAtUS >= debounceStableMS*1000 {
				d.stable = level
				d.tracking = false
			}
		} else {
			d.tracking = false
		}

		s.SetX(i, d.stable)
	}
}

// SampleAnalog reads every configured ADC channel and converts the 12-bit
// raw reading to millivolts (mv = raw*3300/4096), writing the result into
// that channel's destination D-register.
func (b *Binding) SampleAnalog(s *state.State) {
	if b.adc == nil {
		return
	}
	for ch := 0; ch < analogChannelCount; ch++ {
		raw := b.adc.ReadAnalog(ch)
		mv := int32(raw) * 3300 / 4096
		s.SetDIndex(analogRegister[ch], int16(mv))
	}
}

// ApplyOutputs reflects every Y-bit to its physical channel (active-high)
// and drives the RUN/ERR indicators from scheduler/error state.
func (b *Binding) ApplyOutputs(s *state.State) {
	if b.out == nil {
		return
	}
	for i := 0; i < digitalOutputCount; i++ {
		b.out.WriteOutput(i, s.GetY(i))
	}
	b.out.SetRunIndicator(s.Run() == state.RunState)
	b.out.SetErrIndicator(s.Error() != 0)
}

// PollRunSwitch reads the physical RUN switch and returns the scheduler
// action its edge implies: 1 to start (rising edge), -1 to stop (falling
// edge), 0 for no change. It reports edges only; keeping the switch
// dominant over CLI commands while it is held closed is the caller's job
// (cmd/plcsim's scan loop restarts a stopped scheduler each cycle while the
// switch reads closed).
func (b *Binding) PollRunSwitch() int {
	if b.sw == nil {
		return 0
	}
	level := b.sw.ReadRunSwitch()
	action := 0
	switch {
	case level && !b.lastSwitch:
		action = 1
	case !level && b.lastSwitch:
		action = -1
	}
	b.lastSwitch = level
	return action
}
