package sent

// Statistics are the per-channel counters. They only grow, a channel
// restart zeroes all of them except HWOverflow and Restarts.
type Statistics struct {
	HWOverflow uint32

	ShortIntervalErr uint32
	LongIntervalErr  uint32
	SyncErr          uint32
	CRCErr           uint32
	Frames           uint32
	Pauses           uint32
	Restarts         uint32

	// SlowChannel12 counts Enhanced messages with 12-bit data and 8-bit ID.
	SlowChannel12 uint32
	// SlowChannel16 counts Enhanced messages with 16-bit data and 4-bit ID.
	SlowChannel16 uint32
	SlowCRCErr    uint32
	// SlowTableFull counts slow-channel values dropped for lack of a slot.
	SlowTableFull uint32
}

// TotalErrors sums interval, sync and fast CRC errors.
func (s Statistics) TotalErrors() uint32 {
	return s.ShortIntervalErr + s.LongIntervalErr + s.SyncErr + s.CRCErr
}

// ErrorRate is TotalErrors over frames plus errors, 0 before any event.
func (s Statistics) ErrorRate() float64 {
	errs := uint64(s.TotalErrors())
	total := uint64(s.Frames) + errs
	if total == 0 {
		return 0
	}
	return float64(errs) / float64(total)
}

func (s *Statistics) restart() {
	*s = Statistics{
		HWOverflow: s.HWOverflow,
		Restarts:   s.Restarts + 1,
	}
}
