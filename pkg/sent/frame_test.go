package sent

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFrameNibbles(t *testing.T) {
	f := Frame(0x12345678)
	for n := 0; n < PayloadNibbles; n++ {
		require.Equal(t, uint8(n+1), f.Nibble(n))
	}
	require.Equal(t, uint8(1), f.Status())
	require.Equal(t, uint16(0x234), f.Sig0())
	require.Equal(t, uint16(0x567), f.Sig1())
	require.Equal(t, uint8(8), f.CRC())
}

func TestFrameSignals(t *testing.T) {
	s := Frame(0x12345678).Signals()
	require.Equal(t, Signals{Status: 1, A: 0x234, B: 0x765}, s)
}

func TestFrameString(t *testing.T) {
	require.Equal(t, "12345678 status=1 a=234 b=765 crc=8", Frame(0x12345678).String())
}

func TestEncodeSignals(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := Signals{
			Status: uint8(rapid.IntRange(0, 15).Draw(t, "status")),
			A:      uint16(rapid.IntRange(0, 0xfff).Draw(t, "a")),
			B:      uint16(rapid.IntRange(0, 0xfff).Draw(t, "b")),
		}
		variant := CRCVariant(rapid.IntRange(0, 2).Draw(t, "variant"))
		f := EncodeSignals(s, variant)
		require.Equal(t, s, f.Signals())
		require.True(t, f.ValidCRC())
	})
}

func TestFramePulses(t *testing.T) {
	p := Frame(0x0123456f).Pulses(10)
	require.Equal(t, [FramePulses]uint32{560, 120, 130, 140, 150, 160, 170, 180, 270}, p)
	require.Equal(t, uint32(1000), PausePulse(100, 10))
}

// Calibration converges for any unit time and any frame content.
func TestDecodeAnyTick(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tick := rapid.Uint32Range(1, 5000).Draw(t, "tick")
		s := Signals{
			Status: uint8(rapid.IntRange(0, 15).Draw(t, "status")),
			A:      uint16(rapid.IntRange(0, 0xfff).Draw(t, "a")),
			B:      uint16(rapid.IntRange(0, 0xfff).Draw(t, "b")),
		}
		f := EncodeSignals(s, CRCVariant(rapid.IntRange(0, 2).Draw(t, "variant")))

		var d Decoder
		var res Result
		for i := 0; i < 2; i++ {
			for _, c := range f.Pulses(tick) {
				res = d.Decode(c, false)
			}
		}
		require.Equal(t, FrameReady, res)
		require.Equal(t, tick, d.TickPerUnit())
		got, ok := d.Signals()
		require.True(t, ok)
		require.Equal(t, s, got)
	})
}
