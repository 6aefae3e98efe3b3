package mqtt

import (
	"context"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	jsoniter "github.com/json-iterator/go"

	"github.com/ekefan/afitlms-edgeserver/pkg/enroll"
	"github.com/ekefan/afitlms-edgeserver/pkg/msgs"
)

// Topic suffixes under <prefix><device-id>/.
const (
	MetaTopic = "meta"
	ScanTopic = "scan"
)

// Defaults of Publisher.
const (
	DefaultBacklog        = 16
	DefaultPublishTimeout = 5 * time.Second
)

// Meta is published retained on the meta topic while the device is online.
type Meta struct {
	DeviceID  string    `json:"device_id"`
	Port      string    `json:"port,omitempty"`
	Reader    string    `json:"reader,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Broker is the part of Queue used by Publisher.
type Broker interface {
	Connect() paho.Token
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
	Close() error
}

// Publisher publishes finished scans as msgs.ScanEvent. It implements
// enroll.ScanObserver without blocking the caller: events are queued and
// dropped when the backlog is full.
type Publisher struct {
	Broker         Broker
	Meta           Meta
	PublishTimeout time.Duration

	metaJSON []byte
	events   chan *msgs.ScanEvent
	dropped  uint64
}

// DeviceTopic returns the topic of the device relative to the prefix.
func DeviceTopic(deviceID, suffix string) string {
	return deviceID + "/" + suffix
}

// NewPublisher creates a Publisher connecting to brokerURL.
func NewPublisher(brokerURL string, meta Meta) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+DeviceTopic(meta.DeviceID, MetaTopic), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("enroll:" + meta.DeviceID)
	}
	q := NewQueue(opts, topicPrefix)
	p := newPublisher(q, meta)
	q.OnConnect = func(*Queue) { p.onConnected() }
	return p, nil
}

func newPublisher(broker Broker, meta Meta) *Publisher {
	metaJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(&meta)
	if err != nil {
		panic(err)
	}
	return &Publisher{
		Broker:         broker,
		Meta:           meta,
		PublishTimeout: DefaultPublishTimeout,
		metaJSON:       metaJSON,
		events:         make(chan *msgs.ScanEvent, DefaultBacklog),
	}
}

// Name implements framework.Named.
func (p *Publisher) Name() string {
	return "mqtt"
}

// Dropped returns the number of events dropped due to a full backlog.
func (p *Publisher) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

// ScanFinished implements enroll.ScanObserver.
func (p *Publisher) ScanFinished(ctx context.Context, r *enroll.ScanReport) {
	ev, err := msgs.NewScanEvent(p.Meta.DeviceID, r)
	if err != nil {
		glog.Errorf("scan event: %v", err)
		return
	}
	select {
	case p.events <- ev:
	default:
		atomic.AddUint64(&p.dropped, 1)
		glog.Warningf("scan event %s dropped: backlog full", ev.Id)
	}
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	p.Broker.Connect()
	for {
		select {
		case ev := <-p.events:
			p.publish(ev)
		case <-ctx.Done():
			p.wait(p.Broker.PubWith(DeviceTopic(p.Meta.DeviceID, MetaTopic), nil, 1, true))
			return p.Broker.Close()
		}
	}
}

func (p *Publisher) publish(ev *msgs.ScanEvent) {
	payload, err := ev.Encode()
	if err != nil {
		glog.Errorf("encode scan event %s: %v", ev.Id, err)
		return
	}
	if err := p.wait(p.Broker.PubWith(DeviceTopic(p.Meta.DeviceID, ScanTopic), payload, 1, false)); err != nil {
		glog.Warningf("publish scan event %s: %v", ev.Id, err)
		return
	}
	glog.V(2).Infof("published scan event %s %s", ev.Id, ev.Result)
}

func (p *Publisher) wait(token paho.Token) error {
	if !token.WaitTimeout(p.PublishTimeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

func (p *Publisher) onConnected() {
	p.Broker.PubWith(DeviceTopic(p.Meta.DeviceID, MetaTopic), p.metaJSON, 1, true)
}
