package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"reflect"

	"github.com/robotalks/sent.go/pkg/env"
	fx "github.com/robotalks/sent.go/pkg/framework"
	"github.com/robotalks/sent.go/pkg/msgs"
	"github.com/robotalks/sent.go/pkg/publish/mqtt"
)

var (
	nodeID     string
	outputJSON bool
)

func init() {
	conf := env.Default()
	flag.StringVar(&conf.MQTTBrokerURL, "mqtt", conf.MQTTBrokerURL, "MQTT broker URL.")
	flag.StringVar(&nodeID, "node", nodeID, "Only monitor this node.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print messages in JSON.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(env.Default().MQTTBrokerURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	filter := "#"
	if nodeID != "" {
		filter = nodeID + "/#"
	}
	q.Sub(filter, func(topic string, payload []byte) {
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeID, err)
			return
		}
		serializable := msg.(msgs.SerializableMessage).Serializable()
		if outputJSON {
			out, err := json.Marshal(serializable)
			if err != nil {
				log.Printf("%s: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, out)
			return
		}
		log.Printf("%s: [%s] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
			serializable.String())
	})

	err = fx.NewRunner().HandleSignals().Go(fx.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})).Wait()
	if err != nil {
		log.Fatalln(err)
	}
}
