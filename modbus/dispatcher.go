package modbus

import (
	"github.com/fx3usim/plcsim/mask"
	"github.com/fx3usim/plcsim/state"
)

// Per-domain address-space bounds, spec.md §4.7.
const (
	maxCoils     = 256 // Y
	maxDiscretes = 256 // X
	maxRegisters = 4096 // D
)

// Dispatch processes one validated request frame against s and returns the
// response frame to send (a normal reply or an exception). req must already
// have been produced by Parse. Callers must only invoke Dispatch with
// requests observed between scans (spec.md §5); Dispatch itself has no
// notion of scan timing.
func Dispatch(s *state.State, req Frame) []byte {
	switch req.FC {
	case FCReadCoils:
		return dispatchReadBits(s.GetY, req, maxCoils)
	case FCReadDiscreteInputs:
		return dispatchReadBits(s.GetX, req, maxDiscretes)
	case FCReadHoldingRegisters, FCReadInputRegisters:
		return dispatchReadRegisters(s, req)
	case FCWriteSingleCoil:
		return dispatchWriteSingleCoil(s, req)
	case FCWriteSingleRegister:
		return dispatchWriteSingleRegister(s, req)
	case FCWriteMultipleCoils:
		return dispatchWriteMultipleCoils(s, req)
	case FCWriteMultipleRegisters:
		return dispatchWriteMultipleRegisters(s, req)
	default:
		return BuildException(req.SlaveID, req.FC, ExcIllegalFunction)
	}
}

func checkAddress(start, quantity, max uint16) bool {
	if quantity == 0 {
		return false
	}
	end := uint32(start) + uint32(quantity)
	return end <= uint32(max)
}

func dispatchReadBits(get func(int) bool, req Frame, max uint16) []byte {
	if !checkAddress(req.StartAddr, req.Quantity, max) {
		return BuildException(req.SlaveID, req.FC, ExcIllegalAddress)
	}
	byteCount := (int(req.Quantity) + 7) / 8
	payload := make([]byte, 1+byteCount)
	payload[0] = byte(byteCount)
	for i := 0; i < byteCount; i++ {
		var b byte
		for j := uint(0); j < 8; j++ {
			addr := int(req.StartAddr) + i*8 + int(j)
			if addr < int(max) && get(addr) {
				b = mask.SetCoilBit(b, j, true)
			}
		}
		payload[1+i] = b
	}
	return Build(req.SlaveID, req.FC, payload)
}

func dispatchReadRegisters(s *state.State, req Frame) []byte {
	if !checkAddress(req.StartAddr, req.Quantity, maxRegisters) {
		return BuildException(req.SlaveID, req.FC, ExcIllegalAddress)
	}
	byteCount := int(req.Quantity) * 2
	payload := make([]byte, 1+byteCount)
	payload[0] = byte(byteCount)
	for i := 0; i < int(req.Quantity); i++ {
		v := uint16(s.GetDIndex(int(req.StartAddr) + i))
		payload[1+2*i] = byte(v >> 8)
		payload[1+2*i+1] = byte(v)
	}
	return Build(req.SlaveID, req.FC, payload)
}

func dispatchWriteSingleCoil(s *state.State, req Frame) []byte {
	if int(req.StartAddr) >= maxCoils {
		return BuildException(req.SlaveID, req.FC, ExcIllegalAddress)
	}
	switch req.Quantity {
	case 0xFF00:
		s.SetY(int(req.StartAddr), true)
	case 0x0000:
		s.SetY(int(req.StartAddr), false)
	default:
		return BuildException(req.SlaveID, req.FC, ExcIllegalValue)
	}
	payload := []byte{byte(req.StartAddr >> 8), byte(req.StartAddr), byte(req.Quantity >> 8), byte(req.Quantity)}
	return Build(req.SlaveID, req.FC, payload)
}

func dispatchWriteSingleRegister(s *state.State, req Frame) []byte {
	if int(req.StartAddr) >= maxRegisters {
		return BuildException(req.SlaveID, req.FC, ExcIllegalAddress)
	}
	s.SetDIndex(int(req.StartAddr), int16(req.Quantity))
	payload := []byte{byte(req.StartAddr >> 8), byte(req.StartAddr), byte(req.Quantity >> 8), byte(req.Quantity)}
	return Build(req.SlaveID, req.FC, payload)
}

func dispatchWriteMultipleCoils(s *state.State, req Frame) []byte {
	if !checkAddress(req.StartAddr, req.Quantity, maxCoils) {
		return BuildException(req.SlaveID, req.FC, ExcIllegalAddress)
	}
	expectedBytes := (int(req.Quantity) + 7) / 8
	if int(req.ByteCount) != expectedBytes || len(req.Data) != expectedBytes {
		return BuildException(req.SlaveID, req.FC, ExcIllegalValue)
	}
	for i := 0; i < int(req.Quantity); i++ {
		v := mask.CoilBit(req.Data[i/8], uint(i%8))
		s.SetY(int(req.StartAddr)+i, v)
	}
	payload := []byte{byte(req.StartAddr >> 8), byte(req.StartAddr), byte(req.Quantity >> 8), byte(req.Quantity)}
	return Build(req.SlaveID, req.FC, payload)
}

func dispatchWriteMultipleRegisters(s *state.State, req Frame) []byte {
	if !checkAddress(req.StartAddr, req.Quantity, maxRegisters) {
		return BuildException(req.SlaveID, req.FC, ExcIllegalAddress)
	}
	expectedBytes := int(req.Quantity) * 2
	if int(req.ByteCount) != expectedBytes || len(req.Data) != expectedBytes {
		return BuildException(req.SlaveID, req.FC, ExcIllegalValue)
	}
	for i := 0; i < int(req.Quantity); i++ {
		v := uint16(req.Data[2*i])<<8 | uint16(req.Data[2*i+1])
		s.SetDIndex(int(req.StartAddr)+i, int16(v))
	}
	payload := []byte{byte(req.StartAddr >> 8), byte(req.StartAddr), byte(req.Quantity >> 8), byte(req.Quantity)}
	return Build(req.SlaveID, req.FC, payload)
}
