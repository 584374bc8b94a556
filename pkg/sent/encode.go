package sent

// EncodeFrame packs a status nibble and six data nibbles and appends the
// CRC computed with variant.
func EncodeFrame(status uint8, data [DataNibbles]uint8, variant CRCVariant) Frame {
	f := Frame(status&0xf) << 28
	for i, n := range data {
		f |= Frame(n&0xf) << (4 * uint(DataNibbles-i))
	}
	return f | Frame(variant.Compute(f))
}

// EncodeSignals is the inverse of Frame.Signals.
func EncodeSignals(s Signals, variant CRCVariant) Frame {
	b := swapOuterNibbles(s.B)
	return EncodeFrame(s.Status, [DataNibbles]uint8{
		uint8(s.A>>8) & 0xf, uint8(s.A>>4) & 0xf, uint8(s.A) & 0xf,
		uint8(b>>8) & 0xf, uint8(b>>4) & 0xf, uint8(b) & 0xf,
	}, variant)
}

// Pulses renders the frame as a sync pulse followed by its 8 nibble
// pulses, in timer clocks.
func (f Frame) Pulses(tickPerUnit uint32) (p [FramePulses]uint32) {
	p[0] = (SyncTicks + OffsetTicks) * tickPerUnit
	for i := 0; i < PayloadNibbles; i++ {
		p[i+1] = (uint32(f.Nibble(i)) + OffsetTicks) * tickPerUnit
	}
	return
}

// PausePulse returns the length in timer clocks of a pause pulse of
// ticks protocol ticks.
func PausePulse(ticks, tickPerUnit uint32) uint32 {
	return ticks * tickPerUnit
}

// Status nibble bits carrying the slow channel.
const (
	SlowBit2 uint8 = 1 << 2
	SlowBit3 uint8 = 1 << 3
)

// ShortSerialMessage returns the slow-channel bits of the 16 status
// nibbles that carry value for id. The 4-bit CRC is filled in although
// the decoder does not check it.
func ShortSerialMessage(id, value uint8) (status [16]uint8) {
	crc := uint8(CRC4Seed)
	for _, n := range [...]uint8{id & 0xf, value >> 4, value & 0xf} {
		crc = (crc4Table[crc] ^ n) & 0xf
	}
	crc = crc4Table[crc]

	bits2 := uint16(id&0xf)<<12 | uint16(value)<<4 | uint16(crc)
	for i := range status {
		if bits2&(1<<uint(15-i)) != 0 {
			status[i] |= SlowBit2
		}
	}
	status[0] |= SlowBit3
	return
}

// EnhancedSerialMessage returns the slow-channel bits of the 18 status
// nibbles that carry value for id, CRC-6 included. With sixteenBit the
// message holds 16-bit data and a 4-bit ID, otherwise 12-bit data and
// an 8-bit ID.
func EnhancedSerialMessage(id uint8, value uint16, sixteenBit bool) (status [18]uint8) {
	var bits3 uint32 = 0x3f << 12
	if sixteenBit {
		bits3 |= enhancedConfigBit
		bits3 |= uint32(id&0x0f) << 6
		bits3 |= uint32(value>>12) << 1
	} else {
		bits3 |= uint32(id>>4) << 6
		bits3 |= uint32(id&0x0f) << 1
	}
	bits2 := uint32(value & 0x0fff)

	var window uint32
	for i := 6; i < len(status); i++ {
		bit := uint(17 - i)
		window = window<<2 | (bits2>>bit&1)<<1 | bits3>>bit&1
	}
	bits2 |= uint32(CRC6(window)) << 12

	for i := range status {
		bit := uint(17 - i)
		if bits2>>bit&1 != 0 {
			status[i] |= SlowBit2
		}
		if bits3>>bit&1 != 0 {
			status[i] |= SlowBit3
		}
	}
	return
}
