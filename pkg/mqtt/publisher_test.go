package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/ekefan/afitlms-edgeserver/pkg/enroll"
	"github.com/ekefan/afitlms-edgeserver/pkg/msgs"
)

type published struct {
	topic   string
	payload []byte
	qos     byte
	retain  bool
}

type fakeBroker struct {
	lock      sync.Mutex
	connected bool
	closed    bool
	pubs      []published
	pubCh     chan published
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{pubCh: make(chan published, 16)}
}

func (b *fakeBroker) Connect() paho.Token {
	b.lock.Lock()
	b.connected = true
	b.lock.Unlock()
	return &paho.DummyToken{}
}

func (b *fakeBroker) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	pub := published{topic: topic, payload: payload, qos: qos, retain: retain}
	b.lock.Lock()
	b.pubs = append(b.pubs, pub)
	b.lock.Unlock()
	b.pubCh <- pub
	return &paho.DummyToken{}
}

func (b *fakeBroker) Close() error {
	b.lock.Lock()
	b.closed = true
	b.lock.Unlock()
	return nil
}

func (b *fakeBroker) next(t *testing.T) published {
	select {
	case pub := <-b.pubCh:
		return pub
	case <-time.After(time.Second):
		t.Fatal("nothing published")
	}
	return published{}
}

func scanReport(result enroll.ScanResult) *enroll.ScanReport {
	now := time.Now()
	return &enroll.ScanReport{
		Command:    enroll.Parse("SCAN_RFID:42:Jane Doe\n"),
		Result:     result,
		StartedAt:  now.Add(-time.Second),
		FinishedAt: now,
	}
}

func TestPublisherRun(t *testing.T) {
	broker := newFakeBroker()
	p := newPublisher(broker, Meta{DeviceID: "dev1", Reader: "sim"})
	p.onConnected()
	meta := broker.next(t)
	require.Equal(t, "dev1/meta", meta.topic)
	require.True(t, meta.retain)
	require.Contains(t, string(meta.payload), `"device_id":"dev1"`)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	p.ScanFinished(ctx, scanReport(enroll.Found(enroll.UID{0xde, 0xad})))
	pub := broker.next(t)
	require.Equal(t, "dev1/scan", pub.topic)
	require.False(t, pub.retain)
	ev, err := msgs.DecodeScanEvent(pub.payload)
	require.NoError(t, err)
	require.Equal(t, "DEAD", ev.Uid)
	require.Equal(t, msgs.ScanEvent_FOUND, ev.Result)
	require.Equal(t, "42", ev.UserId)

	cancel()
	require.NoError(t, <-errCh)
	offline := broker.next(t)
	require.Equal(t, "dev1/meta", offline.topic)
	require.Nil(t, offline.payload)
	require.True(t, offline.retain)
	require.True(t, broker.connected)
	require.True(t, broker.closed)
}

func TestPublisherDropsWhenBacklogFull(t *testing.T) {
	p := newPublisher(newFakeBroker(), Meta{DeviceID: "dev1"})
	done := make(chan struct{})
	go func() {
		for i := 0; i < DefaultBacklog+3; i++ {
			p.ScanFinished(context.Background(), scanReport(enroll.TimedOut))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ScanFinished blocked")
	}
	require.Equal(t, uint64(3), p.Dropped())
}
