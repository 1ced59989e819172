package main

import (
	"sync"
	"time"
)

// systemClock is the real monotonic TimeSource, backing ioport.TimeSource
// with time.Now() rather than a hardware counter.
type systemClock struct{ start time.Time }

func newSystemClock() *systemClock { return &systemClock{start: time.Now()} }

func (c *systemClock) NowUS() uint64 {
	return uint64(time.Since(c.start).Microseconds())
}

// simulatedIO stands in for the GPIO/ADC/UART/RUN-switch hardware the
// original firmware drives directly. It is software-only: a CLI session has
// no physical pins, so every channel is just addressable in-memory state
// that the CLI glue and its tests can poke at. This is the glue
// spec.md §1 calls out of core scope; nothing here is exercised by the
// core's own tests.
type simulatedIO struct {
	mu sync.Mutex

	inputs  [10]bool
	outputs [9]bool
	analog  [3]uint16
	runSw   bool

	runLED bool
	errLED bool

	rxQueue   [][]byte
	lastReply []byte
}

func newSimulatedIO() *simulatedIO { return &simulatedIO{} }

func (s *simulatedIO) ReadInput(ch int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch < 0 || ch >= len(s.inputs) {
		return false
	}
	return s.inputs[ch]
}

func (s *simulatedIO) SetInput(ch int, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch >= 0 && ch < len(s.inputs) {
		s.inputs[ch] = v
	}
}

func (s *simulatedIO) WriteOutput(ch int, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch >= 0 && ch < len(s.outputs) {
		s.outputs[ch] = v
	}
}

func (s *simulatedIO) SetRunIndicator(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runLED = v
}

func (s *simulatedIO) SetErrIndicator(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errLED = v
}

func (s *simulatedIO) ReadAnalog(ch int) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch < 0 || ch >= len(s.analog) {
		return 0
	}
	return s.analog[ch]
}

func (s *simulatedIO) ReadRunSwitch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runSw
}

func (s *simulatedIO) SetRunSwitch(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runSw = v
}

// PollBytes drains one queued frame, simulating a byte transport that has
// already delimited a frame by inter-character gap (spec.md §1 treats this
// as an external collaborator; queued-frame injection is this CLI's only
// way to exercise MODBUS without real RS-485 hardware).
func (s *simulatedIO) PollBytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rxQueue) == 0 {
		return nil
	}
	frame := s.rxQueue[0]
	s.rxQueue = s.rxQueue[1:]
	return frame
}

func (s *simulatedIO) InjectFrame(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rxQueue = append(s.rxQueue, frame)
}

func (s *simulatedIO) Send(data []byte) {
	// A real transport would write to RS-485 here; the CLI has nothing to
	// send it to, so the latest reply is only kept in lastReply.
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReply = append([]byte{}, data...)
}
