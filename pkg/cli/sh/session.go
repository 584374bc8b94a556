package sh

import (
	"context"

	"github.com/robotalks/sent.go/pkg/capture"
	"github.com/robotalks/sent.go/pkg/capture/source"
	"github.com/robotalks/sent.go/pkg/sent"
)

// Session is an offline decoding session over a loaded capture.
type Session struct {
	Stream *capture.Stream
	Source string

	samples []capture.Sample
	pos     int
}

// FeedResult summarizes the samples applied by one Feed.
type FeedResult struct {
	Samples int `json:"samples"`
	Frames  int `json:"frames"`
	Errors  int `json:"errors"`
}

// SessionInfo describes the loaded capture.
type SessionInfo struct {
	Source    string `json:"source,omitempty"`
	Samples   int    `json:"samples"`
	Position  int    `json:"position"`
	Remaining int    `json:"remaining"`
}

// NewSession creates an empty Session.
func NewSession() *Session {
	return &Session{Stream: capture.NewStream("cli", nil)}
}

// Load replaces the samples with the capture at url.
func (s *Session) Load(url string) (int, error) {
	src, err := source.Open(url)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	samples, err := capture.ReadAll(src.SampleReader())
	if err != nil {
		return 0, err
	}
	s.Source, s.samples, s.pos = url, samples, 0
	return len(samples), nil
}

// Append queues samples after the loaded ones.
func (s *Session) Append(samples ...capture.Sample) {
	s.samples = append(s.samples, samples...)
}

// AppendFrames queues the pulses of frames at tickPerUnit clocks per tick.
func (s *Session) AppendFrames(tickPerUnit uint32, frames ...sent.Frame) {
	for _, f := range frames {
		for _, c := range f.Pulses(tickPerUnit) {
			s.samples = append(s.samples, capture.Sample{Ticks: c})
		}
	}
}

// Remaining is the number of samples not fed yet.
func (s *Session) Remaining() int {
	return len(s.samples) - s.pos
}

// Feed applies up to n samples, all remaining if n < 0.
func (s *Session) Feed(n int) (r FeedResult) {
	if n < 0 || n > s.Remaining() {
		n = s.Remaining()
	}
	ctx := context.Background()
	for ; n > 0; n-- {
		switch s.Stream.Apply(ctx, s.samples[s.pos]) {
		case sent.FrameReady:
			r.Frames++
		case sent.FrameError:
			r.Errors++
		}
		s.pos++
		r.Samples++
	}
	return
}

// Rewind moves back to the first sample.
func (s *Session) Rewind() {
	s.pos = 0
}

// Info describes the session.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		Source:    s.Source,
		Samples:   len(s.samples),
		Position:  s.pos,
		Remaining: s.Remaining(),
	}
}
