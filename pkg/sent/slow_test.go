package sent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// syncedDecoder returns a decoder that has received one valid frame.
func syncedDecoder(t *testing.T) *Decoder {
	d := &Decoder{}
	runPulseSequences(t, d, pulseSequences(testTick).
		frame(testFrameB).
		frame(testFrameB).ready().
		build())
	return d
}

func feedStatus(t *testing.T, d *Decoder, status uint8) {
	f := EncodeSignals(Signals{Status: status, A: 0x321, B: 0x654}, CRCFullMessage)
	runPulseSequences(t, d, pulseSequences(testTick).frame(f).ready().build())
}

func TestShortSerialMessage(t *testing.T) {
	d := syncedDecoder(t)
	msg := ShortSerialMessage(5, 0x42)
	for i, status := range msg {
		_, ok := d.SlowChannelValue(5)
		require.Falsef(t, ok, "value available before frame %d", i)
		feedStatus(t, d, status)
	}
	v, ok := d.SlowChannelValue(5)
	require.True(t, ok)
	require.Equal(t, uint16(0x42), v)
}

func TestShortSerialMessageCRCNotChecked(t *testing.T) {
	d := syncedDecoder(t)
	msg := ShortSerialMessage(5, 0x42)
	// flip the last CRC bit
	msg[15] ^= SlowBit2
	for _, status := range msg {
		feedStatus(t, d, status)
	}
	v, ok := d.SlowChannelValue(5)
	require.True(t, ok)
	require.Equal(t, uint16(0x42), v)
	require.Zero(t, d.Stats().SlowCRCErr)
}

func TestShortSerialMessageUpdates(t *testing.T) {
	d := syncedDecoder(t)
	for _, value := range []uint8{0x42, 0x99} {
		for _, status := range ShortSerialMessage(0xc, value) {
			feedStatus(t, d, status)
		}
		v, ok := d.SlowChannelValue(0xc)
		require.True(t, ok)
		require.Equal(t, uint16(value), v)
	}
}

func TestEnhancedSerialMessage(t *testing.T) {
	testCases := []struct {
		name       string
		id         uint8
		value      uint16
		sixteenBit bool
		stats      Statistics
	}{
		{"12-bit data 8-bit id", 0xa7, 0x123, false, Statistics{SlowChannel12: 1}},
		{"16-bit data 4-bit id", 0x3, 0xbeef, true, Statistics{SlowChannel16: 1}},
		{"zero", 0, 0, false, Statistics{SlowChannel12: 1}},
		{"all ones 12-bit", 0xff, 0xfff, false, Statistics{SlowChannel12: 1}},
		{"all ones 16-bit", 0xf, 0xffff, true, Statistics{SlowChannel16: 1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := syncedDecoder(t)
			base := d.Stats()
			msg := EnhancedSerialMessage(tc.id, tc.value, tc.sixteenBit)
			for _, status := range msg {
				feedStatus(t, d, status)
			}
			v, ok := d.SlowChannelValue(tc.id)
			require.True(t, ok)
			require.Equal(t, tc.value, v)

			stats := d.Stats()
			require.Equal(t, tc.stats.SlowChannel12, stats.SlowChannel12)
			require.Equal(t, tc.stats.SlowChannel16, stats.SlowChannel16)
			require.Zero(t, stats.SlowCRCErr)
			require.Equal(t, base.Frames+uint32(len(msg)), stats.Frames)
		})
	}
}

func TestEnhancedSerialMessageCRCError(t *testing.T) {
	d := syncedDecoder(t)
	msg := EnhancedSerialMessage(0x21, 0x456, false)
	msg[10] ^= SlowBit2
	for _, status := range msg {
		feedStatus(t, d, status)
	}
	_, ok := d.SlowChannelValue(0x21)
	require.False(t, ok)
	require.Equal(t, uint32(1), d.Stats().SlowCRCErr)
	require.Equal(t, uint32(1), d.Stats().SlowChannel12)
}

func TestSlowChannelSurvivesFrameError(t *testing.T) {
	d := syncedDecoder(t)
	for _, status := range ShortSerialMessage(7, 0x5a) {
		feedStatus(t, d, status)
	}

	// one frame with a bad CRC
	runPulseSequences(t, d, pulseSequences(testTick).
		frame(testFrameA ^ 0x100).failed().
		build())
	require.Equal(t, uint32(1), d.Stats().CRCErr)

	v, ok := d.SlowChannelValue(7)
	require.True(t, ok)
	require.Equal(t, uint16(0x5a), v)
}

func TestSlowChannelFrameErrorDropsPartialMessage(t *testing.T) {
	d := syncedDecoder(t)
	msg := ShortSerialMessage(3, 0x11)
	for _, status := range msg[:8] {
		feedStatus(t, d, status)
	}
	runPulseSequences(t, d, pulseSequences(testTick).
		frame(testFrameA ^ 0x100).failed().
		build())
	for _, status := range msg[8:] {
		feedStatus(t, d, status)
	}
	_, ok := d.SlowChannelValue(3)
	require.False(t, ok)
}

func TestSlowChannelClearedByRestart(t *testing.T) {
	d := syncedDecoder(t)
	for _, status := range ShortSerialMessage(7, 0x5a) {
		feedStatus(t, d, status)
	}
	_, ok := d.SlowChannelValue(7)
	require.True(t, ok)

	// lose sync, then never see a sync pulse again
	runPulseSequences(t, d, pulseSequences(testTick).ticks(56, 40).failed().build())
	for i := 0; i < InitPulses; i++ {
		d.Decode(20*testTick, false)
	}
	require.Equal(t, StateCalib, d.State())
	require.Equal(t, uint32(1), d.Stats().Restarts)

	_, ok = d.SlowChannelValue(7)
	require.False(t, ok)
	_, ok = d.LastFrame()
	require.False(t, ok)
	require.Zero(t, d.Stats().Frames)
}

func TestSlowChannelTableCapacity(t *testing.T) {
	var table SlowChannelTable
	for id := 0; id < SlowChannelCapacity; id++ {
		require.NoError(t, table.Store(uint8(id), uint16(id)*3))
	}
	require.Equal(t, SlowChannelCapacity, table.Len())
	require.Equal(t, ErrSlowChannelFull, table.Store(200, 1))
	_, ok := table.Lookup(200)
	require.False(t, ok)
	for id := 0; id < SlowChannelCapacity; id++ {
		v, ok := table.Lookup(uint8(id))
		require.True(t, ok)
		require.Equal(t, uint16(id)*3, v)
	}
	// known IDs still update when full
	require.NoError(t, table.Store(4, 0xffff))
	v, _ := table.Lookup(4)
	require.Equal(t, uint16(0xffff), v)

	table.Invalidate()
	require.Zero(t, table.Len())
	require.NoError(t, table.Store(200, 1))
}

func TestSlowChannelTableEach(t *testing.T) {
	var table SlowChannelTable
	require.NoError(t, table.Store(9, 90))
	require.NoError(t, table.Store(1, 10))
	require.NoError(t, table.Store(9, 99))
	got := map[uint8]uint16{}
	table.Each(func(id uint8, v uint16) { got[id] = v })
	require.Equal(t, map[uint8]uint16{9: 99, 1: 10}, got)
}

func TestSlowChannelTableFullCounted(t *testing.T) {
	var c slowChannel
	var stats Statistics
	for id := 0; id < SlowChannelCapacity; id++ {
		c.store(uint8(id), 1, &stats)
	}
	require.Zero(t, stats.SlowTableFull)
	c.store(0xee, 1, &stats)
	require.Equal(t, uint32(1), stats.SlowTableFull)
	require.Zero(t, stats.TotalErrors())
}

func TestDecoderEachSlowChannelValue(t *testing.T) {
	d := syncedDecoder(t)
	for _, status := range EnhancedSerialMessage(0x3, 0x1234, true) {
		feedStatus(t, d, status)
	}
	var ids []uint8
	d.EachSlowChannelValue(func(id uint8, v uint16) {
		ids = append(ids, id)
		require.Equal(t, uint16(0x1234), v)
	})
	require.Equal(t, []uint8{3}, ids)
}
