package sent

// CRCVariant names a fast-channel CRC-4 dialect.
type CRCVariant int

const (
	// CRCFullMessage covers status and signal nibbles (Si7215).
	CRCFullMessage CRCVariant = iota
	// CRCSignalOnly covers the six signal nibbles (GM throttle body).
	CRCSignalOnly
	// CRCSignalOnlyExtended is CRCSignalOnly with one extra zero round
	// (GDI fuel pressure sensors).
	CRCSignalOnlyExtended
)

// String implements fmt.Stringer.
func (v CRCVariant) String() string {
	switch v {
	case CRCFullMessage:
		return "full"
	case CRCSignalOnly:
		return "signal"
	case CRCSignalOnlyExtended:
		return "signal-ext"
	}
	return "unknown"
}

// Compute calculates the CRC nibble of f using this dialect.
func (v CRCVariant) Compute(f Frame) uint8 {
	switch v {
	case CRCSignalOnly:
		return CRC4SignalOnly(f)
	case CRCSignalOnlyExtended:
		return CRC4SignalOnlyExtended(f)
	}
	return CRC4(f)
}

// x^4 + x^3 + x^2 + 1
var crc4Table = [16]uint8{0, 13, 7, 10, 14, 3, 9, 4, 1, 12, 6, 11, 15, 2, 8, 5}

// x^6 + x^4 + x^3 + 1
var crc6Table = [64]uint8{
	0, 25, 50, 43, 61, 36, 15, 22, 35, 58, 17, 8, 30, 7, 44, 53,
	31, 6, 45, 52, 34, 59, 16, 9, 60, 37, 14, 23, 1, 24, 51, 42,
	62, 39, 12, 21, 3, 26, 49, 40, 29, 4, 47, 54, 32, 57, 18, 11,
	33, 56, 19, 10, 28, 5, 46, 55, 2, 27, 48, 41, 63, 38, 13, 20,
}

// CRC4 computes the CRC over the status and the six signal nibbles.
func CRC4(f Frame) uint8 {
	crc := uint8(CRC4Seed)
	for i := 0; i < 1+DataNibbles; i++ {
		crc = crc4Table[crc^f.Nibble(i)]
	}
	return crc
}

// CRC4SignalOnly computes the CRC over the six signal nibbles.
func CRC4SignalOnly(f Frame) uint8 {
	crc := uint8(CRC4Seed)
	for i := 1; i < 1+DataNibbles; i++ {
		crc = (crc4Table[crc] ^ f.Nibble(i)) & 0xf
	}
	return crc
}

// CRC4SignalOnlyExtended is CRC4SignalOnly followed by a round with zero input.
func CRC4SignalOnlyExtended(f Frame) uint8 {
	return crc4Table[CRC4SignalOnly(f)]
}

// CRC6 computes the Enhanced Serial Message CRC over the low 24 bits of
// window, taken as four 6-bit symbols MSB first, plus a zero round.
func CRC6(window uint32) uint8 {
	crc := uint8(CRC6Seed)
	for i := uint(0); i < 4; i++ {
		sym := uint8(window>>(24-6*(i+1))) & 0x3f
		crc = sym ^ crc6Table[crc]
	}
	return crc6Table[crc]
}
