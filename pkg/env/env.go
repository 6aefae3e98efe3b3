package env

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ekefan/afitlms-edgeserver/pkg/enroll"
	"github.com/ekefan/afitlms-edgeserver/pkg/feed"
	fx "github.com/ekefan/afitlms-edgeserver/pkg/framework"
	"github.com/ekefan/afitlms-edgeserver/pkg/link"
	"github.com/ekefan/afitlms-edgeserver/pkg/mqtt"
	"github.com/ekefan/afitlms-edgeserver/pkg/rfid"
	"github.com/ekefan/afitlms-edgeserver/pkg/rfid/pn532"
	"github.com/ekefan/afitlms-edgeserver/pkg/rfid/sim"
)

// readerReadTimeout lets the PN532 driver regain control while waiting
// for a response.
const readerReadTimeout = 100 * time.Millisecond

// Env holds the components of the daemon.
type Env struct {
	Config    *Config
	Port      io.ReadWriteCloser
	Reader    rfid.Reader
	Device    *enroll.Device
	Observers *enroll.ObserverMux
	Publisher *mqtt.Publisher
	Feed      *feed.Server
}

// NewEnv opens the ports and creates all components.
func (c *Config) NewEnv() (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.DeviceID == "" {
		c.DeviceID = MachineID()
	}
	reader, err := c.NewReader()
	if err != nil {
		return nil, err
	}
	if err = reader.Init(); err != nil {
		rfid.Close(reader)
		return nil, fmt.Errorf("init reader: %w", err)
	}
	port, err := link.OpenPort(link.PortConfig{Device: c.SerialDevice, Baudrate: c.Baudrate})
	if err != nil {
		rfid.Close(reader)
		return nil, err
	}
	e := &Env{
		Config:    c,
		Port:      port,
		Reader:    reader,
		Observers: &enroll.ObserverMux{},
	}
	if err = e.attach(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// NewReader creates the configured RFID reader without initializing it.
func (c *Config) NewReader() (rfid.Reader, error) {
	switch c.Reader {
	case ReaderSim:
		uids, err := c.simCards()
		if err != nil {
			return nil, err
		}
		glog.Infof("simulated reader presents %d card(s) every %v", len(uids), c.SimDelay)
		return sim.NewDelayed(c.SimDelay, uids...), nil
	case ReaderPN532:
		port, err := link.OpenPort(link.PortConfig{
			Device:      c.ReaderDevice,
			Baudrate:    c.ReaderBaudrate,
			ReadTimeout: readerReadTimeout,
		})
		if err != nil {
			return nil, err
		}
		return pn532.New(port), nil
	}
	return nil, &UnknownReaderError{Kind: c.Reader}
}

func (c *Config) simCards() ([][]byte, error) {
	var uids [][]byte
	for _, s := range strings.Split(c.SimCards, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		uid, err := enroll.ParseUID(s)
		if err != nil {
			return nil, fmt.Errorf("invalid sim card %q: %w", s, err)
		}
		uids = append(uids, uid)
	}
	if len(uids) == 0 {
		return nil, fmt.Errorf("no sim cards")
	}
	return uids, nil
}

func (e *Env) attach() error {
	e.Device = e.Config.DeviceConfig().NewDevice(e.Port, e.Reader)
	e.Device.Dispatcher.Observer = e.Observers
	if url := e.Config.MQTTBrokerURL; url != "" {
		pub, err := mqtt.NewPublisher(url, mqtt.Meta{
			DeviceID:  e.Config.DeviceID,
			Port:      e.Config.SerialDevice,
			Reader:    e.Config.Reader,
			StartedAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("create MQTT publisher: %w", err)
		}
		e.Publisher = pub
		e.Observers.Add(pub)
	}
	if addr := e.Config.FeedAddr; addr != "" {
		e.Feed = feed.NewServer(addr, e.Config.DeviceID)
		e.Observers.Add(e.Feed)
	}
	return nil
}

// Runnables returns what must run for the daemon. The ports are closed
// once the device stops.
func (e *Env) Runnables() []fx.Runnable {
	runners := []fx.Runnable{fx.RunThenClose(e.Device, e)}
	if e.Publisher != nil {
		runners = append(runners, e.Publisher)
	}
	if e.Feed != nil {
		runners = append(runners, e.Feed)
	}
	return runners
}

// Close closes the host port and the reader.
func (e *Env) Close() error {
	var errs fx.AggregatedError
	errs.Add(e.Port.Close(), rfid.Close(e.Reader))
	return errs.Aggregate()
}
