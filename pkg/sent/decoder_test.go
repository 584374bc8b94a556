package sent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testTick uint32 = 25

type pulseSequence struct {
	in     []uint32
	expect Result
	final  Result
}

type pulseSequenceBuilder struct {
	tick uint32
	seq  []pulseSequence
}

func pulseSequences(tick uint32) *pulseSequenceBuilder {
	return &pulseSequenceBuilder{tick: tick}
}

func (b *pulseSequenceBuilder) clocks(in ...uint32) *pulseSequenceBuilder {
	b.seq = append(b.seq, pulseSequence{in: in})
	return b
}

// ticks adds pulses given in protocol ticks.
func (b *pulseSequenceBuilder) ticks(in ...uint32) *pulseSequenceBuilder {
	clocks := make([]uint32, len(in))
	for i, t := range in {
		clocks[i] = t * b.tick
	}
	return b.clocks(clocks...)
}

func (b *pulseSequenceBuilder) frame(f Frame) *pulseSequenceBuilder {
	p := f.Pulses(b.tick)
	return b.clocks(p[:]...)
}

func (b *pulseSequenceBuilder) signals(s Signals) *pulseSequenceBuilder {
	return b.frame(EncodeSignals(s, CRCFullMessage))
}

func (b *pulseSequenceBuilder) final(r Result) *pulseSequenceBuilder {
	b.seq[len(b.seq)-1].final = r
	return b
}

func (b *pulseSequenceBuilder) ready() *pulseSequenceBuilder {
	return b.final(FrameReady)
}

func (b *pulseSequenceBuilder) failed() *pulseSequenceBuilder {
	return b.final(FrameError)
}

func (b *pulseSequenceBuilder) build() []pulseSequence {
	return b.seq
}

func runPulseSequences(t *testing.T, d *Decoder, seq []pulseSequence) {
	for n, s := range seq {
		var res Result
		for i, c := range s.in {
			res = d.Decode(c, false)
			if i+1 < len(s.in) {
				require.Equalf(t, s.expect, res, "seq[%d][%d] expect mismatch", n, i)
			}
		}
		require.Equalf(t, s.final, res, "seq[%d] final mismatch", n)
	}
}

var (
	testFrameA = EncodeSignals(Signals{Status: 0x3, A: 0x123, B: 0x456}, CRCFullMessage)
	testFrameB = EncodeSignals(Signals{Status: 0x0, A: 0xfff, B: 0x000}, CRCSignalOnly)
	testFrameC = EncodeSignals(Signals{Status: 0x1, A: 0x800, B: 0x7e1}, CRCSignalOnlyExtended)
)

func TestDecoder(t *testing.T) {
	testCases := []struct {
		name  string
		seq   []pulseSequence
		state State
		stats Statistics
	}{
		{
			name: "calibrate and receive",
			seq: pulseSequences(testTick).
				frame(testFrameA).
				frame(testFrameA).ready().
				frame(testFrameB).ready().
				frame(testFrameC).ready().
				build(),
			state: StateSync,
			stats: Statistics{Frames: 3},
		},
		{
			name: "pause pulses between frames",
			seq: pulseSequences(testTick).
				frame(testFrameA).
				ticks(100).
				frame(testFrameA).ready().
				ticks(100).
				frame(testFrameB).ready().
				ticks(300).
				frame(testFrameC).ready().
				build(),
			state: StateSync,
			stats: Statistics{Frames: 3, Pauses: 2},
		},
		{
			name: "pause pulse looks like sync",
			seq: pulseSequences(testTick).
				frame(testFrameA).
				frame(testFrameA).ready().
				ticks(50).
				frame(testFrameB).ready().
				build(),
			state: StateSync,
			stats: Statistics{Frames: 2, Pauses: 1},
		},
		{
			name: "short nibble",
			seq: pulseSequences(testTick).
				frame(testFrameA).
				frame(testFrameA).ready().
				ticks(56, 12, 5).failed().
				ticks(12, 12, 12, 12, 12, 12).
				frame(testFrameB).ready().
				build(),
			state: StateSync,
			stats: Statistics{Frames: 2, ShortIntervalErr: 1},
		},
		{
			name: "long nibble",
			seq: pulseSequences(testTick).
				frame(testFrameA).
				frame(testFrameA).ready().
				ticks(56, 12, 12, 12, 30).failed().
				frame(testFrameB).ready().
				build(),
			state: StateSync,
			stats: Statistics{Frames: 2, LongIntervalErr: 1},
		},
		{
			name: "crc error",
			seq: pulseSequences(testTick).
				frame(testFrameA).
				frame(testFrameA).ready().
				frame(testFrameA ^ 0x100).failed().
				frame(testFrameB).ready().
				build(),
			state: StateSync,
			stats: Statistics{Frames: 3, CRCErr: 1},
		},
		{
			name: "sync error after pause",
			seq: pulseSequences(testTick).
				frame(testFrameA).
				frame(testFrameA).ready().
				ticks(100).
				ticks(100).failed().
				frame(testFrameB).ready().
				build(),
			state: StateSync,
			stats: Statistics{Frames: 2, Pauses: 1, SyncErr: 1, LongIntervalErr: 1},
		},
		{
			name: "short sync error after pause",
			seq: pulseSequences(testTick).
				frame(testFrameA).
				frame(testFrameA).ready().
				ticks(100).
				ticks(20).failed().
				build(),
			state: StateInit,
			stats: Statistics{Frames: 1, Pauses: 1, SyncErr: 1, ShortIntervalErr: 1},
		},
		{
			name: "calibration retries on garbage",
			seq: pulseSequences(testTick).
				ticks(5, 200, 7).
				frame(testFrameA).
				frame(testFrameA).ready().
				build(),
			state: StateSync,
			stats: Statistics{Frames: 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var d Decoder
			runPulseSequences(t, &d, tc.seq)
			require.Equal(t, tc.state, d.State())
			require.Equal(t, tc.stats, d.Stats())
		})
	}
}

func TestDecoderEndToEnd(t *testing.T) {
	const tick uint32 = 40
	want := Signals{Status: 0x2, A: 0xabc, B: 0x5d1}
	f := EncodeSignals(want, CRCFullMessage)

	var d Decoder
	runPulseSequences(t, &d, pulseSequences(tick).frame(f).build())
	require.Equal(t, StateInit, d.State())

	pulses := f.Pulses(tick)
	require.Equal(t, 56*tick, pulses[0])
	for i, p := range pulses {
		res := d.Decode(p, false)
		if i+1 < len(pulses) {
			require.Equal(t, NoEvent, res)
		} else {
			require.Equal(t, FrameReady, res)
		}
	}

	got, ok := d.Signals()
	require.True(t, ok)
	require.Equal(t, want, got)
	last, ok := d.LastFrame()
	require.True(t, ok)
	require.Equal(t, f, last)
	require.Equal(t, tick, d.TickPerUnit())
}

func TestDecoderCalibrationRestart(t *testing.T) {
	var d Decoder
	for i := 0; i < CalibrationPulses-1; i++ {
		require.Equal(t, NoEvent, d.Decode(56*testTick, false))
		require.Equal(t, StateCalib, d.State())
	}
	require.Zero(t, d.Stats().Restarts)
	require.Equal(t, NoEvent, d.Decode(56*testTick, false))
	require.Equal(t, uint32(1), d.Stats().Restarts)
	require.Zero(t, d.TickPerUnit())
}

func TestDecoderInitRestart(t *testing.T) {
	var d Decoder
	runPulseSequences(t, &d, pulseSequences(testTick).frame(testFrameA).build())
	require.Equal(t, StateInit, d.State())
	for i := 0; i < InitPulses-1; i++ {
		d.Decode(20*testTick, false)
	}
	require.Equal(t, StateInit, d.State())
	d.Decode(20*testTick, false)
	require.Equal(t, StateCalib, d.State())
	require.Equal(t, uint32(1), d.Stats().Restarts)
}

func TestDecoderTracksDrift(t *testing.T) {
	var d Decoder
	runPulseSequences(t, &d, pulseSequences(100).
		frame(testFrameA).
		frame(testFrameA).ready().
		build())
	require.Equal(t, uint32(100), d.TickPerUnit())
	// 10% slower clock is still within the sync tolerance
	runPulseSequences(t, &d, pulseSequences(110).
		frame(testFrameB).ready().
		frame(testFrameC).ready().
		build())
	require.Equal(t, uint32(110), d.TickPerUnit())
}

func TestDecoderJitter(t *testing.T) {
	var d Decoder
	runPulseSequences(t, &d, pulseSequences(testTick).frame(testFrameA).build())
	p := testFrameA.Pulses(testTick)
	for i := range p {
		// rounding absorbs less than half a tick
		if i%2 == 0 {
			p[i] += testTick/2 - 1
		} else {
			p[i] -= testTick / 2
		}
	}
	var res Result
	for _, c := range p {
		res = d.Decode(c, false)
	}
	require.Equal(t, FrameReady, res)
	f, _ := d.LastFrame()
	require.Equal(t, testFrameA, f)
}

func TestDecoderOverflowFlag(t *testing.T) {
	var d Decoder
	d.Decode(56*testTick, true)
	d.Decode(20*testTick, false)
	d.Decode(20*testTick, true)
	require.Equal(t, uint32(2), d.Stats().HWOverflow)
	require.Equal(t, StateCalib, d.State())
}

func TestDecoderNoFrame(t *testing.T) {
	var d Decoder
	_, ok := d.LastFrame()
	require.False(t, ok)
	_, ok = d.Signals()
	require.False(t, ok)
	require.Zero(t, d.TickPerUnit())
	require.Equal(t, StateCalib, d.State())
}

func TestDecoderQueriesIdempotent(t *testing.T) {
	var d Decoder
	runPulseSequences(t, &d, pulseSequences(testTick).
		frame(testFrameA).
		frame(testFrameA).ready().
		build())
	s1, ok1 := d.Signals()
	f1, _ := d.LastFrame()
	st1 := d.Stats()
	for i := 0; i < 3; i++ {
		s2, ok2 := d.Signals()
		f2, _ := d.LastFrame()
		require.Equal(t, s1, s2)
		require.Equal(t, ok1, ok2)
		require.Equal(t, f1, f2)
		require.Equal(t, st1, d.Stats())
	}
}

func TestDecoderReset(t *testing.T) {
	var d Decoder
	runPulseSequences(t, &d, pulseSequences(testTick).
		frame(testFrameA).
		frame(testFrameA).ready().
		build())
	d.Reset()
	require.Equal(t, Decoder{}, d)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "CALIB", StateCalib.String())
	require.Equal(t, "SIG2_DATA3", StateSig2Data3.String())
	require.Equal(t, "CRC", StateCRC.String())
	require.Equal(t, "UNKNOWN", State(42).String())
	require.False(t, StateInit.IsSynced())
	require.True(t, StateSync.IsSynced())
	require.True(t, StateCRC.IsSynced())
	text, err := StateStatus.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "STATUS", string(text))
}
