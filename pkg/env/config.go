// Package env assembles the enrollment daemon from configuration.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ekefan/afitlms-edgeserver/pkg/enroll"
	"github.com/ekefan/afitlms-edgeserver/pkg/link"
)

// Reader kinds.
const (
	ReaderPN532 = "pn532"
	ReaderSim   = "sim"
)

// Config defines the configuration of the enrollment daemon.
type Config struct {
	// ConfigFile is an optional TOML file overriding the defaults.
	ConfigFile string `toml:"-"`

	SerialDevice string `toml:"serial_device"`
	Baudrate     uint   `toml:"baudrate"`

	Reader         string        `toml:"reader"`
	ReaderDevice   string        `toml:"reader_device"`
	ReaderBaudrate uint          `toml:"reader_baudrate"`
	SimDelay       time.Duration `toml:"sim_delay"`
	// SimCards is a comma separated list of hex UIDs presented in turn.
	SimCards string `toml:"sim_cards"`

	ScanTimeout  time.Duration `toml:"scan_timeout"`
	PollInterval time.Duration `toml:"poll_interval"`
	MaxLineLen   int           `toml:"max_line_len"`
	RxBufferSize int           `toml:"rx_buffer_size"`

	// DeviceID identifies the device in published events,
	// derived from the machine ID when empty.
	DeviceID string `toml:"device_id"`
	// MQTTBrokerURL enables scan event publication,
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string `toml:"mqtt_url"`
	// FeedAddr enables the websocket feed, e.g. :8080
	FeedAddr string `toml:"feed_addr"`
}

var defaultConfig = Config{
	SerialDevice:   "/dev/ttyGS0",
	Baudrate:       link.DefaultBaudrate,
	Reader:         ReaderPN532,
	ReaderDevice:   "/dev/ttyS0",
	ReaderBaudrate: link.DefaultBaudrate,
	SimDelay:       3 * time.Second,
	SimCards:       "DEADBEEF",
	ScanTimeout:    enroll.DefaultConfig.ScanTimeout,
	PollInterval:   enroll.DefaultConfig.PollInterval,
	MaxLineLen:     enroll.DefaultConfig.MaxLineLen,
	RxBufferSize:   enroll.DefaultConfig.RxBufferSize,
}

func init() {
	loadEnv(&defaultConfig, os.Getenv)
}

func loadEnv(c *Config, getenv func(string) string) {
	strs := map[string]*string{
		"ENROLL_CONFIG":      &c.ConfigFile,
		"ENROLL_PORT":        &c.SerialDevice,
		"ENROLL_READER":      &c.Reader,
		"ENROLL_READER_PORT": &c.ReaderDevice,
		"ENROLL_DEVICE_ID":   &c.DeviceID,
		"ENROLL_MQTT_URL":    &c.MQTTBrokerURL,
		"ENROLL_FEED_ADDR":   &c.FeedAddr,
	}
	for key, ptr := range strs {
		if val := getenv(key); val != "" {
			*ptr = val
		}
	}
	if val := getenv("ENROLL_BAUD"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			c.Baudrate = uint(n)
		}
	}
	if val := getenv("ENROLL_SCAN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.ScanTimeout = d
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	defaultConfig.bindFlags(flag.CommandLine)
}

func (c *Config) bindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "TOML config file")
	fs.StringVar(&c.SerialDevice, "port", c.SerialDevice, "Serial port connected to the host")
	fs.UintVar(&c.Baudrate, "baud", c.Baudrate, "Baud rate of the host serial port")
	fs.StringVar(&c.Reader, "reader", c.Reader, "RFID reader: pn532 or sim")
	fs.StringVar(&c.ReaderDevice, "reader-port", c.ReaderDevice, "Serial port of the PN532")
	fs.UintVar(&c.ReaderBaudrate, "reader-baud", c.ReaderBaudrate, "Baud rate of the PN532")
	fs.DurationVar(&c.SimDelay, "sim-delay", c.SimDelay, "Delay before the simulated reader presents a card")
	fs.StringVar(&c.SimCards, "sim-cards", c.SimCards, "Comma separated hex UIDs presented by the simulated reader")
	fs.DurationVar(&c.ScanTimeout, "scan-timeout", c.ScanTimeout, "RFID scan timeout")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "RFID poll interval")
	fs.IntVar(&c.MaxLineLen, "max-line", c.MaxLineLen, "Maximum command line length, 0 for unbounded")
	fs.IntVar(&c.RxBufferSize, "rx-buffer", c.RxBufferSize, "Received bytes buffered while scanning")
	fs.StringVar(&c.DeviceID, "id", c.DeviceID, "Device ID, derived from machine ID if empty")
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL for scan events, disabled if empty")
	fs.StringVar(&c.FeedAddr, "ws", c.FeedAddr, "Listen address of the websocket scan feed, disabled if empty")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load applies ConfigFile if specified. Flags explicitly set in
// overrides keep precedence over the file.
func (c *Config) Load(overrides *flag.FlagSet) error {
	if c.ConfigFile == "" {
		return nil
	}
	if _, err := toml.DecodeFile(c.ConfigFile, c); err != nil {
		return fmt.Errorf("load config %s: %w", c.ConfigFile, err)
	}
	if overrides == nil {
		return nil
	}
	fs := flag.NewFlagSet("overrides", flag.ContinueOnError)
	c.bindFlags(fs)
	var err error
	overrides.Visit(func(f *flag.Flag) {
		if fs.Lookup(f.Name) != nil && err == nil {
			err = fs.Set(f.Name, f.Value.String())
		}
	})
	return err
}

// MustLoad loads the config file and fails on error.
func (c *Config) MustLoad(overrides *flag.FlagSet) *Config {
	if err := c.Load(overrides); err != nil {
		log.Fatalln(err)
	}
	return c
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.SerialDevice == "" {
		return fmt.Errorf("serial port must be specified")
	}
	if c.ScanTimeout <= 0 {
		return fmt.Errorf("invalid scan timeout %v", c.ScanTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval %v", c.PollInterval)
	}
	if c.MaxLineLen < 0 {
		return fmt.Errorf("invalid max line length %d", c.MaxLineLen)
	}
	switch c.Reader {
	case ReaderPN532:
		if c.ReaderDevice == "" {
			return fmt.Errorf("reader port must be specified")
		}
	case ReaderSim:
		if _, err := c.simCards(); err != nil {
			return err
		}
	default:
		return &UnknownReaderError{Kind: c.Reader}
	}
	return nil
}

// DeviceConfig returns the configuration of enroll.Device.
func (c *Config) DeviceConfig() enroll.Config {
	return enroll.Config{
		ScanTimeout:  c.ScanTimeout,
		PollInterval: c.PollInterval,
		MaxLineLen:   c.MaxLineLen,
		RxBufferSize: c.RxBufferSize,
	}
}

// UnknownReaderError indicates an unsupported reader kind.
type UnknownReaderError struct {
	Kind string
}

func (e *UnknownReaderError) Error() string {
	return fmt.Sprintf("unknown reader %q, expect %s or %s", e.Kind, ReaderPN532, ReaderSim)
}
