// Package tc implements the timer/counter engine: advancing elapsed time on
// running, not-done timers, and incrementing running counters once per scan.
//
// Both advance funcs are idempotent with respect to already-done
// instances: once a timer or counter latches done, it stays done until an
// explicit stop/reset (spec.md §3, invariant 3 of §8).
package tc

import "github.com/fx3usim/plcsim/state"

// AdvanceTimers adds elapsedUS to the elapsed time of every running,
// not-done timer in s, latching Done when the preset is reached. A preset of
// zero latches done immediately on the next advance.
func AdvanceTimers(s *state.State, elapsedUS uint32) {
	for i := 0; i < 128; i++ {
		tm := s.Timer(i)
		if !tm.Running || tm.Done {
			continue
		}
		if tm.PresetMS == 0 {
			tm.Done = true
			continue
		}
		tm.ElapsedUS += uint64(elapsedUS)
		if tm.ElapsedUS >= uint64(tm.PresetMS)*1000 {
			tm.Done = true
		}
	}
}

// AdvanceCounters increments every running counter in s once while current is
// below preset; the first advance that finds current already at (or above)
// preset latches Done instead. This is a per-scan increment, not a per-edge
// one — see SPEC_FULL.md / spec.md design note §9 (open question frozen as
// observed behavior).
func AdvanceCounters(s *state.State) {
	for i := 0; i < 128; i++ {
		ct := s.Counter(i)
		if !ct.Running {
			continue
		}
		if ct.Current < ct.Preset {
			ct.Current++
		} else {
			ct.Done = true
		}
	}
}

// StartTimer begins timer n with a fresh preset (in milliseconds), resetting
// its elapsed time and done latch. Used by the TMR opcode on the rising edge
// of its bus input.
func StartTimer(s *state.State, n int, presetMS uint32) {
	tm := s.Timer(n)
	if tm == nil {
		return
	}
	tm.PresetMS = presetMS
	tm.ElapsedUS = 0
	tm.Running = true
	tm.Done = false
}

// StopTimer halts timer n, clearing elapsed time and the done latch. Used by
// TMR when its bus input is false.
func StopTimer(s *state.State, n int) {
	tm := s.Timer(n)
	if tm == nil {
		return
	}
	tm.Running = false
	tm.ElapsedUS = 0
	tm.Done = false
}

// StartCounter begins counter n with a fresh preset, resetting current and
// the done latch. Used by CNT on the rising edge of its bus input.
func StartCounter(s *state.State, n int, preset int32) {
	ct := s.Counter(n)
	if ct == nil {
		return
	}
	ct.Preset = preset
	ct.Current = 0
	ct.Running = true
	ct.Done = false
}

// ResetCounter forces counter n's current to 0 and clears done, without
// touching Running (spec.md §3). Used by CNT when its bus input is false.
func ResetCounter(s *state.State, n int) {
	ct := s.Counter(n)
	if ct == nil {
		return
	}
	ct.Current = 0
	ct.Done = false
}
