// Package mask packs and unpacks individual bits within a byte, in the
// 0-indexed, LSB-first convention MODBUS-RTU uses for coil-status payloads
// (spec.md §4.6/§4.7): bit j of byte i holds the coil at address
// start+8i+j. Used by modbus for packing/unpacking coil payloads.
package mask

// CoilBit reports the value of bit pos (0-indexed from the LSB) of b.
func CoilBit(b byte, pos uint) bool {
	return b&(1<<pos) != 0
}

// SetCoilBit returns b with bit pos (0-indexed from the LSB) set to v.
func SetCoilBit(b byte, pos uint, v bool) byte {
	if v {
		return b | (1 << pos)
	}
	return b &^ (1 << pos)
}
