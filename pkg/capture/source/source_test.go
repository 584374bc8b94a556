package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sent.go/pkg/capture"
)

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "capture.txt")
	require.NoError(t, os.WriteFile(txt, []byte("1400\n300!\n"), 0644))
	bin := filepath.Join(dir, "capture.bin")
	require.NoError(t, os.WriteFile(bin, capture.Sample{Ticks: 675}.AppendRecord(nil), 0644))

	src, err := Open(txt)
	require.NoError(t, err)
	require.Equal(t, capture.FormatText, src.Format)
	samples, err := capture.ReadAll(src.SampleReader())
	require.NoError(t, err)
	require.Equal(t, []capture.Sample{{Ticks: 1400}, {Ticks: 300, Overflow: true}}, samples)
	require.NoError(t, src.Close())

	src, err = Open("file://" + bin)
	require.NoError(t, err)
	require.Equal(t, capture.FormatBinary, src.Format)
	samples, err = capture.ReadAll(src.SampleReader())
	require.NoError(t, err)
	require.Equal(t, []capture.Sample{{Ticks: 675}}, samples)
	require.NoError(t, src.Close())

	src, err = Open(txt + "?format=binary")
	require.NoError(t, err)
	require.Equal(t, capture.FormatBinary, src.Format)
	src.Close()
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("ftp://host/capture")
	require.Error(t, err)
	_, err = Open("capture.bin?format=csv")
	require.Equal(t, capture.ErrUnknownFormat, err)
	_, err = Open(filepath.Join(t.TempDir(), "missing.bin"))
	require.True(t, os.IsNotExist(err))
	_, err = Open("serial:///dev/null?baud=fast")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("-"))
	require.NoError(t, Validate("capture.txt"))
	require.NoError(t, Validate("serial:///dev/ttyACM0?baud=921600"))
	require.NoError(t, Validate("ws://localhost:8080/sent"))
	require.Error(t, Validate("ws:///sent"))
	require.Error(t, Validate("serial://"))
	require.Error(t, Validate("udp://host:1"))
	require.Equal(t, capture.ErrUnknownFormat, Validate("-?format=csv"))
}
