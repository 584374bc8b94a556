package mqtt

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sent.go/pkg/capture"
	fx "github.com/robotalks/sent.go/pkg/framework"
	"github.com/robotalks/sent.go/pkg/msgs"
	"github.com/robotalks/sent.go/pkg/sent"
)

// Topic kinds under <node>/<channel>/.
const (
	TopicFrame = "frame"
	TopicSync  = "sync"
	TopicStats = "stats"
	TopicSlow  = "slow"
	TopicReset = "reset"
)

// Sink receives encoded messages.
type Sink interface {
	Publish(topic string, payload []byte) error
}

// Publisher turns stream events into typed messages on a Sink.
// It reports stats and slow channel tables on each loop iteration, and
// applies reset commands posted to the loop.
type Publisher struct {
	Sink   Sink
	NodeID string
	// MinFrameInterval throttles frame events per channel, 0 publishes
	// every frame.
	MinFrameInterval time.Duration
	Clock            fx.TimeSource

	lock     sync.Mutex
	channels []*channel
}

type channel struct {
	stream    *capture.Stream
	clockHz   uint32
	lastFrame time.Time
}

// NewPublisher creates a Publisher.
func NewPublisher(sink Sink, nodeID string) *Publisher {
	return &Publisher{Sink: sink, NodeID: nodeID}
}

// Topic builds the topic of a channel.
func (p *Publisher) Topic(channel, kind string) string {
	return p.NodeID + "/" + channel + "/" + kind
}

// Attach makes the Publisher the handler and notifier of a stream.
// clockHz is the capture clock of the stream, 0 if unknown.
func (p *Publisher) Attach(s *capture.Stream, clockHz uint32) *Publisher {
	s.Handler, s.Notifier = p, p
	p.lock.Lock()
	p.channels = append(p.channels, &channel{stream: s, clockHz: clockHz})
	p.lock.Unlock()
	return p
}

// AddToLoop implements framework.LoopAdder.
func (p *Publisher) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvCommand, fx.ControlFunc(p.applyCommands))
	l.AddController(fx.PrLvReport, p)
}

// Subscribe listens for reset commands of all channels and posts them
// to the loop.
func (p *Publisher) Subscribe(q *Queue, ctl fx.LoopControl) *Subscription {
	return q.Sub(p.Topic("+", TopicReset), func(topic string, payload []byte) {
		msg, err := msgs.Decode(payload)
		if err != nil {
			glog.Warningf("invalid command on %q: %v", topic, err)
			return
		}
		if cmd, ok := msg.(*msgs.ResetCommand); ok && cmd.Channel == "" {
			cmd.Channel = topicChannel(topic)
		}
		ctl.PostMessage(msg)
		ctl.TriggerNext()
	})
}

func topicChannel(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

func (p *Publisher) now() time.Time {
	if p.Clock != nil {
		return p.Clock.Time()
	}
	return fx.WallClock.Time()
}

func (p *Publisher) find(s *capture.Stream) *channel {
	for _, ch := range p.channels {
		if ch.stream == s {
			return ch
		}
	}
	return nil
}

func (p *Publisher) publish(channel, kind string, msg fx.Message) error {
	data, err := msgs.Encode(msg)
	if err != nil {
		return err
	}
	return p.Sink.Publish(p.Topic(channel, kind), data)
}

// HandleFrame implements capture.FrameHandler.
func (p *Publisher) HandleFrame(ctx context.Context, s *capture.Stream, f sent.Frame) {
	now := p.now()
	if p.MinFrameInterval > 0 {
		p.lock.Lock()
		ch := p.find(s)
		skip := ch != nil && now.Sub(ch.lastFrame) < p.MinFrameInterval
		if ch != nil && !skip {
			ch.lastFrame = now
		}
		p.lock.Unlock()
		if skip {
			return
		}
	}
	if err := p.publish(s.Name(), TopicFrame, msgs.NewFrameEvent(s.Name(), f, s.TickPerUnit(), now)); err != nil {
		glog.Warningf("Publisher[%s] frame: %v", s.Name(), err)
	}
}

// SyncChanged implements capture.SyncNotifier.
func (p *Publisher) SyncChanged(ctx context.Context, s *capture.Stream, synced bool) {
	glog.Infof("Publisher[%s] synced=%v", s.Name(), synced)
	msg := &msgs.SyncEvent{Channel: s.Name(), Synced: synced, State: s.State().String()}
	if err := p.publish(s.Name(), TopicSync, msg); err != nil {
		glog.Warningf("Publisher[%s] sync: %v", s.Name(), err)
	}
}

// Report publishes stats and slow channel values of all channels.
func (p *Publisher) Report() error {
	p.lock.Lock()
	channels := append([]*channel(nil), p.channels...)
	p.lock.Unlock()
	var errs fx.AggregatedError
	for _, ch := range channels {
		snap := ch.stream.Snapshot()
		stats := msgs.NewStatsReport(snap.Channel, snap.State, snap.TickPerUnit, ch.clockHz, snap.Stats)
		errs.Add(p.publish(snap.Channel, TopicStats, stats))
		slow := &msgs.SlowChannelReport{Channel: snap.Channel}
		for _, v := range snap.Slow {
			slow.Add(v.ID, v.Value)
		}
		errs.Add(p.publish(snap.Channel, TopicSlow, slow))
	}
	return errs.Aggregate()
}

// Control implements framework.Controller.
func (p *Publisher) Control(fx.ControlContext) error {
	return p.Report()
}

// ResetChannel resets the decoder of a channel, or all channels if name
// is empty. It returns the number of channels reset.
func (p *Publisher) ResetChannel(name string) int {
	p.lock.Lock()
	defer p.lock.Unlock()
	var n int
	for _, ch := range p.channels {
		if name == "" || ch.stream.Name() == name {
			ch.stream.Reset()
			n++
		}
	}
	return n
}

func (p *Publisher) applyCommands(ctx fx.ControlContext) error {
	ctx.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		if cmd, ok := mc.CurrentMessage().(*msgs.ResetCommand); ok {
			n := p.ResetChannel(cmd.Channel)
			glog.Infof("reset channel %q: %d decoders", cmd.Channel, n)
			mc.MessageTaken()
		}
	}))
	return nil
}
