package decoder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sent.go/pkg/cli/sh"
	"github.com/robotalks/sent.go/pkg/sent"
)

func TestSimulateFrames(t *testing.T) {
	tick, frames, err := SimulateFrames([]string{"0x3", "0x123", "1110", "24", "4"})
	require.NoError(t, err)
	require.Equal(t, uint32(24), tick)
	require.Len(t, frames, 4)
	require.Equal(t, sent.Signals{Status: 3, A: 0x123, B: 1110}, frames[0].Signals())
	require.True(t, frames[0].ValidCRC())

	tick, frames, err = SimulateFrames([]string{"0", "0", "0"})
	require.NoError(t, err)
	require.Equal(t, uint32(DefaultTickPerUnit), tick)
	require.Len(t, frames, 1)

	for _, args := range [][]string{
		{"0", "0"},
		{"16", "0", "0"},
		{"0", "0x1000", "0"},
		{"0", "0", "x"},
		{"0", "0", "0", "0"},
		{"0", "0", "0", "30", "0"},
	} {
		_, _, err := SimulateFrames(args)
		require.Error(t, err, "%v", args)
	}
}

func TestSlowMessageFrames(t *testing.T) {
	testCases := []struct {
		args  []string
		id    uint8
		value uint16
	}{
		{[]string{"short", "5", "0xab"}, 5, 0xab},
		{[]string{"enhanced", "0x81", "0xfff"}, 0x81, 0xfff},
		{[]string{"e", "7", "0xbeef"}, 7, 0xbeef},
	}
	for _, tc := range testCases {
		tick, frames, err := SlowMessageFrames(tc.args)
		require.NoError(t, err)
		s := sh.NewSession()
		calib := sent.EncodeSignals(sent.Signals{}, sent.CRCFullMessage)
		s.AppendFrames(tick, calib, calib)
		s.AppendFrames(tick, frames...)
		s.Feed(-1)
		value, ok := s.Stream.SlowChannelValue(tc.id)
		require.True(t, ok, "%v", tc.args)
		require.Equal(t, tc.value, value)
	}

	for _, args := range [][]string{
		{"short", "1"},
		{"short", "16", "1"},
		{"short", "1", "256"},
		{"enhanced", "16", "0x1000"},
		{"long", "1", "1"},
		{"short", "1", "1", "0"},
	} {
		_, _, err := SlowMessageFrames(args)
		require.Error(t, err, "%v", args)
	}
}

func TestFormatStats(t *testing.T) {
	out := formatStats(sent.Statistics{Frames: 99, CRCErr: 1})
	require.Contains(t, out, "frames:             99")
	require.Contains(t, out, "total errors:       1")
	require.Contains(t, out, "error rate:         1.0000%")
}
