package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/sent.go/pkg/capture"
	"github.com/robotalks/sent.go/pkg/capture/source"
	"github.com/robotalks/sent.go/pkg/env"
	fx "github.com/robotalks/sent.go/pkg/framework"
	"github.com/robotalks/sent.go/pkg/msgs"
	"github.com/robotalks/sent.go/pkg/publish/mqtt"
)

// logSink logs messages when no broker is configured.
type logSink struct{}

func (logSink) Publish(topic string, payload []byte) error {
	msg, err := msgs.Decode(payload)
	if err != nil {
		return err
	}
	glog.Infof("%s: %s", topic, msg.(msgs.SerializableMessage).Serializable().String())
	return nil
}

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	conf := env.Default().MustLoad()
	if len(conf.Channels) == 0 {
		log.Fatalln("no channel configured, use -channel or -config")
	}

	q, err := conf.NewQueue()
	if err != nil {
		log.Fatalln(err)
	}
	var sink mqtt.Sink = logSink{}
	if q != nil {
		sink = q
	}

	pub := mqtt.NewPublisher(sink, conf.NodeID)
	pub.MinFrameInterval = conf.MinFrameInterval
	loop := fx.NewLoop(conf.ReportInterval).Add(pub)
	for _, ch := range conf.Channels {
		src, err := source.Open(ch.Source)
		if err != nil {
			log.Fatalf("open channel %s: %v", ch.Name, err)
		}
		stream := capture.NewStream(ch.Name, src.SampleReader())
		pub.Attach(stream, ch.ClockHz)
		loop.AddRunnable(fx.NamedRun(ch.Name, fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, src, func() error {
				return stream.Run(ctx)
			})
		})))
		glog.Infof("channel %s: %s (%s)", ch.Name, ch.Source, src.Format)
	}

	if q != nil {
		if token := q.Connect(); token.Wait() && token.Error() != nil {
			log.Fatalln(token.Error())
		}
		defer q.Close()
		pub.Subscribe(q, loop)
	}

	glog.Infof("node %s started", conf.NodeID)
	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		log.Fatalln(err)
	}
}
