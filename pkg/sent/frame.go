package sent

import "fmt"

// Frame is a fast-channel message packed MSB first, one nibble per
// received pulse:
//
//	[31:28] status
//	[27:16] signal 0 (nibbles 1..3)
//	[15:4]  signal 1 (nibbles 4..6)
//	[3:0]   CRC
type Frame uint32

// Nibble returns nibble n, 0 being the status nibble and 7 the CRC.
func (f Frame) Nibble(n int) uint8 {
	return uint8(f>>(4*uint(PayloadNibbles-1-n))) & 0xf
}

// Status returns the status nibble.
func (f Frame) Status() uint8 { return f.Nibble(0) }

// Sig0 returns nibbles 1..3 with nibble 1 as the most significant.
func (f Frame) Sig0() uint16 { return uint16(f>>16) & 0xfff }

// Sig1 returns nibbles 4..6 as they were received.
func (f Frame) Sig1() uint16 { return uint16(f>>4) & 0xfff }

// CRC returns the received CRC nibble.
func (f Frame) CRC() uint8 { return f.Nibble(PayloadNibbles - 1) }

// Signals holds the values carried by a fast-channel frame.
type Signals struct {
	Status uint8
	// A is nibbles 1..3, nibble 1 being the most significant.
	A uint16
	// B is nibbles 4..6, nibble 6 being the most significant.
	B uint16
}

// Signals unpacks the frame. Signal B is stored with its first and last
// nibble swapped on the wire, which is how the supported sensors send
// it; the swap is applied here.
func (f Frame) Signals() Signals {
	return Signals{
		Status: f.Status(),
		A:      f.Sig0(),
		B:      swapOuterNibbles(f.Sig1()),
	}
}

// ValidCRC reports whether the CRC nibble matches any supported dialect.
func (f Frame) ValidCRC() bool {
	crc := f.CRC()
	return crc == CRC4(f) || crc == CRC4SignalOnly(f) || crc == CRC4SignalOnlyExtended(f)
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	s := f.Signals()
	return fmt.Sprintf("%08x status=%x a=%03x b=%03x crc=%x", uint32(f), s.Status, s.A, s.B, f.CRC())
}

func swapOuterNibbles(v uint16) uint16 {
	return (v>>8)&0x00f | (v<<8)&0xf00 | v&0x0f0
}
