package sent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatisticsTotals(t *testing.T) {
	s := Statistics{
		ShortIntervalErr: 1,
		LongIntervalErr:  2,
		SyncErr:          3,
		CRCErr:           4,
		Frames:           90,
		Pauses:           7,
		SlowCRCErr:       5,
	}
	require.Equal(t, uint32(10), s.TotalErrors())
	require.InDelta(t, 0.1, s.ErrorRate(), 1e-9)
	require.Zero(t, Statistics{}.ErrorRate())
	require.Equal(t, 1.0, Statistics{CRCErr: 3}.ErrorRate())
}

func TestStatisticsRestart(t *testing.T) {
	s := Statistics{HWOverflow: 4, Frames: 10, CRCErr: 2, Restarts: 1, SlowChannel12: 3}
	s.restart()
	require.Equal(t, Statistics{HWOverflow: 4, Restarts: 2}, s)
}
