package util

// Uint16ToBEBytes will split an uint16 into its high and low bytes, in that
// order. The USB wire protocol carries all 16-bit counts this way.
func Uint16ToBEBytes(input uint16) (byte, byte) {
	return byte(input >> 8), byte(input & 0xff)
}

// BEBytesToUint16 will reassemble an uint16 from its high and low bytes
func BEBytesToUint16(high, low byte) uint16 {
	return uint16(high)<<8 | uint16(low)
}
