package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/ekefan/afitlms-edgeserver/pkg/mqtt"
	"github.com/ekefan/afitlms-edgeserver/pkg/msgs"
)

var (
	mqttURL    = "mqtt://localhost:1883/afitlms/enroll/"
	outputJSON bool
)

func init() {
	if val := os.Getenv("ENROLL_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print scan events in JSON.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/"+mqtt.MetaTopic):
			if len(payload) == 0 {
				log.Printf("%s: offline", topic)
			} else {
				log.Printf("%s: %s", topic, string(payload))
			}
		case strings.HasSuffix(topic, "/"+mqtt.ScanTopic):
			ev, err := msgs.DecodeScanEvent(payload)
			if err != nil {
				log.Printf("%s: bad message: %v", topic, err)
				return
			}
			if !outputJSON {
				log.Printf("%s: %s", topic, ev.String())
				return
			}
			out, err := ev.JSON()
			if err != nil {
				log.Printf("%s: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, out)
		}
	}))
	<-(chan struct{})(nil)
}
