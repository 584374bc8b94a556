package sent

// Protocol layout and timing constants. These define the wire format
// and the recovery budgets, they are not meant to be tuned at runtime.
const (
	// DataNibbles is the number of signal nibbles in a fast-channel frame.
	DataNibbles = 6
	// PayloadNibbles is status + signals + CRC.
	PayloadNibbles = 1 + DataNibbles + 1
	// FramePulses is sync + payload.
	FramePulses = 1 + PayloadNibbles

	// OffsetTicks is the fixed part of every nibble pulse, a nibble
	// with value n lasts n + OffsetTicks protocol ticks.
	OffsetTicks = 12
	// SyncTicks is the sync pulse length minus OffsetTicks (56 ticks total).
	SyncTicks = 56 - OffsetTicks
	// MinNibble and MaxNibble bound a valid nibble value.
	MinNibble = 0
	MaxNibble = 15

	// SyncTolerancePercent is the allowed deviation of a sync pulse.
	SyncTolerancePercent = 20

	// CalibrationPulses is three full payloads plus one pulse.
	CalibrationPulses = 1 + 3*PayloadNibbles
	// InitPulses is the number of pulses searched for a sync pulse
	// before the channel restarts.
	InitPulses = 3 * FramePulses

	// CRC4Seed seeds all fast-channel CRC dialects.
	CRC4Seed = 0x05
	// CRC6Seed seeds the Enhanced Serial Message CRC.
	CRC6Seed = 0x15

	// SlowChannelCapacity is the number of slow-channel IDs kept at once.
	SlowChannelCapacity = 32
)
