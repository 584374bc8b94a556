package capture

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/sent.go/pkg/sent"
)

// FrameHandler is called when a CRC-valid frame is decoded.
type FrameHandler interface {
	HandleFrame(context.Context, *Stream, sent.Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *Stream, sent.Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, s *Stream, frame sent.Frame) {
	f(ctx, s, frame)
}

// SyncNotifier is called when a stream gains or loses frame sync.
type SyncNotifier interface {
	SyncChanged(ctx context.Context, s *Stream, synced bool)
}

// SyncChangedFunc is func type of SyncNotifier.
type SyncChangedFunc func(context.Context, *Stream, bool)

// SyncChanged implements SyncNotifier.
func (f SyncChangedFunc) SyncChanged(ctx context.Context, s *Stream, synced bool) {
	f(ctx, s, synced)
}

// SlowValue is a stored slow-channel value.
type SlowValue struct {
	ID    uint8  `json:"id"`
	Value uint16 `json:"value"`
}

// Snapshot is a consistent copy of a stream's decoder state.
type Snapshot struct {
	Channel     string          `json:"channel"`
	State       sent.State      `json:"state"`
	TickPerUnit uint32          `json:"tick_per_unit"`
	Valid       bool            `json:"valid"`
	Frame       sent.Frame      `json:"frame"`
	Signals     sent.Signals    `json:"signals"`
	Stats       sent.Statistics `json:"stats"`
	Slow        []SlowValue     `json:"slow,omitempty"`
}

// Stream decodes one SENT channel from a SampleReader.
// The decoder is only mutated by Apply, which serializes with Snapshot.
type Stream struct {
	Reader   SampleReader
	Handler  FrameHandler
	Notifier SyncNotifier

	name    string
	decoder sent.Decoder
	synced  bool
	lock    sync.RWMutex
}

// NewStream creates a Stream for the named channel.
func NewStream(name string, r SampleReader) *Stream {
	return &Stream{name: name, Reader: r}
}

// Name implements framework.Named.
func (s *Stream) Name() string {
	return s.name
}

// Synced indicates the decoder follows frame boundaries.
func (s *Stream) Synced() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.synced
}

// State returns the decoder state.
func (s *Stream) State() sent.State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.decoder.State()
}

// TickPerUnit returns the calibrated tick length in capture clocks.
func (s *Stream) TickPerUnit() uint32 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.decoder.TickPerUnit()
}

// Snapshot copies the decoder state.
func (s *Stream) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()
	snap := Snapshot{
		Channel:     s.name,
		State:       s.decoder.State(),
		TickPerUnit: s.decoder.TickPerUnit(),
		Stats:       s.decoder.Stats(),
	}
	snap.Frame, snap.Valid = s.decoder.LastFrame()
	snap.Signals, _ = s.decoder.Signals()
	s.decoder.EachSlowChannelValue(func(id uint8, value uint16) {
		snap.Slow = append(snap.Slow, SlowValue{ID: id, Value: value})
	})
	return snap
}

// SlowChannelValue looks up a slow-channel value.
func (s *Stream) SlowChannelValue(id uint8) (uint16, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.decoder.SlowChannelValue(id)
}

// Reset resets the decoder.
func (s *Stream) Reset() {
	s.lock.Lock()
	s.decoder.Reset()
	s.synced = false
	s.lock.Unlock()
}

// Apply decodes one sample and dispatches the result.
func (s *Stream) Apply(ctx context.Context, sample Sample) sent.Result {
	var notifier SyncNotifier
	s.lock.Lock()
	res := s.decoder.Decode(sample.Ticks, sample.Overflow)
	frame, _ := s.decoder.LastFrame()
	synced := s.decoder.State().IsSynced()
	if synced != s.synced {
		s.synced = synced
		notifier = s.Notifier
	}
	s.lock.Unlock()

	if notifier != nil {
		glog.V(4).Infof("Stream[%s] synced=%v", s.name, synced)
		notifier.SyncChanged(ctx, s, synced)
	}
	if res == sent.FrameReady {
		if h := s.Handler; h != nil {
			h.HandleFrame(ctx, s, frame)
		}
	}
	return res
}

// Run decodes samples until the reader ends or ctx is done.
// The end of the capture is not an error.
func (s *Stream) Run(ctx context.Context) error {
	sampleCh, errCh := make(chan Sample), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.readLoop(subCtx, sampleCh, errCh)
	for {
		select {
		case sample := <-sampleCh:
			s.Apply(ctx, sample)
		case err := <-errCh:
			if err == io.EOF {
				glog.Infof("Stream[%s] capture ended", s.name)
				return nil
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, sampleCh chan Sample, errCh chan error) {
	for {
		sample, err := s.Reader.ReadSample()
		var recErr *RecordError
		if errors.Is(err, ErrBadRecord) || errors.As(err, &recErr) {
			glog.Warningf("Stream[%s] skip record: %v", s.name, err)
			continue
		}
		if err != nil {
			errCh <- err
			return
		}
		select {
		case sampleCh <- sample:
		case <-ctx.Done():
			return
		}
	}
}
