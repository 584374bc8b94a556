package sent

// State is the position of the fast-channel state machine.
type State int

// Fast-channel states. CALIB and INIT recover the unit time and the
// frame alignment, SYNC..CRC repeat once per frame.
const (
	StateCalib State = iota
	StateInit
	StateSync
	StateStatus
	StateSig1Data1
	StateSig1Data2
	StateSig1Data3
	StateSig2Data1
	StateSig2Data2
	StateSig2Data3
	StateCRC
)

var stateNames = [...]string{
	StateCalib:     "CALIB",
	StateInit:      "INIT",
	StateSync:      "SYNC",
	StateStatus:    "STATUS",
	StateSig1Data1: "SIG1_DATA1",
	StateSig1Data2: "SIG1_DATA2",
	StateSig1Data3: "SIG1_DATA3",
	StateSig2Data1: "SIG2_DATA1",
	StateSig2Data2: "SIG2_DATA2",
	StateSig2Data3: "SIG2_DATA3",
	StateCRC:       "CRC",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsSynced indicates the decoder follows frame boundaries.
func (s State) IsSynced() bool {
	return s >= StateSync && s <= StateCRC
}

// Result is the outcome of one Decode call.
type Result int

const (
	// FrameError means the pulse broke the current frame or the frame
	// failed CRC. Statistics record the reason.
	FrameError Result = -1
	// NoEvent means the pulse was consumed without completing a frame.
	NoEvent Result = 0
	// FrameReady means a CRC-valid frame is available from LastFrame.
	FrameReady Result = 1
)

// String implements fmt.Stringer.
func (r Result) String() string {
	switch {
	case r < 0:
		return "error"
	case r > 0:
		return "frame"
	}
	return "none"
}

// Decoder decodes one SENT channel. The zero value is ready to use.
type Decoder struct {
	state State

	// unit time in timer clocks, measured on every sync pulse
	tickPerUnit uint32
	// pulses consumed by calibration
	pulseCounter uint32
	// pulses counted in CALIB/INIT while waiting for SYNC
	statePulseCounter uint32
	// a pulse that was not a sync pulse preceded the current frame
	pausePulseReceived bool

	rxReg        Frame
	rxLast       Frame
	hasValidFast bool

	slow  slowChannel
	stats Statistics
}

// Decode consumes one interval in timer clocks. overflow reports the
// capture hardware lost edges before this one; it is only counted.
func (d *Decoder) Decode(clocks uint32, overflow bool) Result {
	if overflow {
		d.stats.HWOverflow++
	}
	res := d.decodeFast(clocks)
	switch res {
	case FrameReady:
		d.slow.decode(d.rxLast.Status(), &d.stats)
	case FrameError:
		d.slow.reset()
	}
	return res
}

// Reset returns the decoder to its zero state, counters included.
func (d *Decoder) Reset() {
	*d = Decoder{}
}

// State returns the current fast-channel state.
func (d *Decoder) State() State {
	return d.state
}

// TickPerUnit returns the measured unit time in timer clocks, 0 while
// not calibrated.
func (d *Decoder) TickPerUnit() uint32 {
	return d.tickPerUnit
}

// LastFrame returns the last CRC-valid frame. ok is false when no valid
// frame arrived since the last restart.
func (d *Decoder) LastFrame() (f Frame, ok bool) {
	return d.rxLast, d.hasValidFast
}

// Signals unpacks the last CRC-valid frame.
func (d *Decoder) Signals() (Signals, bool) {
	if !d.hasValidFast {
		return Signals{}, false
	}
	return d.rxLast.Signals(), true
}

// SlowChannelValue returns the last value received for a slow-channel ID.
func (d *Decoder) SlowChannelValue(id uint8) (uint16, bool) {
	return d.slow.table.Lookup(id)
}

// EachSlowChannelValue iterates all stored slow-channel values.
func (d *Decoder) EachSlowChannelValue(fn func(id uint8, value uint16)) {
	d.slow.table.Each(fn)
}

// Stats returns a copy of the counters.
func (d *Decoder) Stats() Statistics {
	return d.stats
}

func (d *Decoder) restart() {
	d.state = StateCalib
	d.pulseCounter = 0
	d.statePulseCounter = 0
	d.pausePulseReceived = false
	d.tickPerUnit = 0
	d.hasValidFast = false
	d.slow.restart()
	d.stats.restart()
}

// calcTickPerUnit assumes clocks spans a full sync pulse.
func (d *Decoder) calcTickPerUnit(clocks uint32) {
	const syncTotal = SyncTicks + OffsetTicks
	d.tickPerUnit = uint32((uint64(clocks) + syncTotal/2) / syncTotal)
}

// isSyncPulse matches clocks against the sync length within tolerance.
func (d *Decoder) isSyncPulse(clocks uint32) bool {
	syncClocks := uint64(SyncTicks+OffsetTicks) * uint64(d.tickPerUnit)
	c := 100 * uint64(clocks)
	return c >= syncClocks*(100-SyncTolerancePercent) &&
		c <= syncClocks*(100+SyncTolerancePercent)
}

// ticks converts clocks to protocol ticks above the nibble offset,
// rounding half up. Negative means shorter than a zero nibble.
func (d *Decoder) ticks(clocks uint32) int {
	if d.tickPerUnit == 0 {
		return -1
	}
	units := (uint64(clocks) + uint64(d.tickPerUnit/2)) / uint64(d.tickPerUnit)
	if units > 1<<20 {
		units = 1 << 20
	}
	return int(units) - OffsetTicks
}

func (d *Decoder) lostSync() Result {
	d.state = StateInit
	d.statePulseCounter = 0
	return FrameError
}

func (d *Decoder) decodeFast(clocks uint32) Result {
	switch d.state {
	case StateCalib:
		d.calibrate(clocks)
		return NoEvent
	case StateInit:
		d.searchSync(clocks)
		return NoEvent
	}

	interval := d.ticks(clocks)
	if interval < MinNibble {
		d.stats.ShortIntervalErr++
		return d.lostSync()
	}

	switch d.state {
	case StateSync:
		return d.expectSync(clocks, interval)
	case StateStatus:
		// A pause pulse may have been taken for the sync pulse, in which
		// case the real sync pulse shows up here.
		if !d.pausePulseReceived && d.isSyncPulse(clocks) {
			d.stats.Pauses++
			d.calcTickPerUnit(clocks)
			return NoEvent
		}
		return d.nibble(interval)
	case StateSig1Data1, StateSig1Data2, StateSig1Data3,
		StateSig2Data1, StateSig2Data2, StateSig2Data3, StateCRC:
		return d.nibble(interval)
	}
	return FrameError
}

func (d *Decoder) calibrate(clocks uint32) {
	d.pulseCounter++
	if d.tickPerUnit == 0 || d.statePulseCounter == 0 {
		// take this one as a sync pulse
		d.calcTickPerUnit(clocks)
		d.statePulseCounter = 1
	} else if n := d.ticks(clocks); n >= MinNibble && n <= MaxNibble {
		d.statePulseCounter++
		if d.statePulseCounter == 1+PayloadNibbles {
			d.pulseCounter = 0
			d.statePulseCounter = 0
			d.state = StateInit
			return
		}
	} else {
		d.calcTickPerUnit(clocks)
		d.statePulseCounter = 1
	}
	if d.pulseCounter >= CalibrationPulses {
		d.restart()
	}
}

func (d *Decoder) searchSync(clocks uint32) {
	if !d.isSyncPulse(clocks) {
		if d.statePulseCounter++; d.statePulseCounter >= InitPulses {
			d.restart()
		}
		return
	}
	d.calcTickPerUnit(clocks)
	// Exactly one skipped pulse between the last nibble and the sync
	// pulse means the device sends pause pulses.
	d.pausePulseReceived = d.statePulseCounter == 1
	d.statePulseCounter = 0
	d.state = StateStatus
}

func (d *Decoder) expectSync(clocks uint32, interval int) Result {
	if d.isSyncPulse(clocks) {
		d.calcTickPerUnit(clocks)
		d.rxReg = 0
		d.state = StateStatus
		return NoEvent
	}
	if !d.pausePulseReceived {
		d.stats.Pauses++
		d.pausePulseReceived = true
		return NoEvent
	}
	d.stats.SyncErr++
	if interval > SyncTicks {
		d.stats.LongIntervalErr++
	} else {
		d.stats.ShortIntervalErr++
	}
	return d.lostSync()
}

func (d *Decoder) nibble(interval int) Result {
	if interval > MaxNibble {
		d.stats.LongIntervalErr++
		return d.lostSync()
	}
	d.rxReg = d.rxReg<<4 | Frame(interval)
	if d.state != StateCRC {
		d.state++
		return NoEvent
	}

	d.stats.Frames++
	d.pausePulseReceived = false
	d.state = StateSync
	if !d.rxReg.ValidCRC() {
		d.stats.CRCErr++
		return FrameError
	}
	d.rxLast = d.rxReg
	d.hasValidFast = true
	return FrameReady
}
