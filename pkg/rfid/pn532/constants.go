package pn532

import "time"

// commands, see PN532 user manual section 7.
const (
	cmdGetFirmwareVersion  byte = 0x02
	cmdSAMConfiguration    byte = 0x14
	cmdRFConfiguration     byte = 0x32
	cmdInDeselect          byte = 0x44
	cmdInListPassiveTarget byte = 0x4A
	cmdInRelease           byte = 0x52
)

const (
	samModeNormal byte = 0x01
	// rfItemMaxRetries configures MxRtyATR, MxRtyPSL and
	// MxRtyPassiveActivation.
	rfItemMaxRetries byte = 0x05
	// baudISO14443A selects 106 kbps type A targets.
	baudISO14443A byte = 0x00
)

const (
	// DefaultCmdTimeout bounds the wait for ACK and response of one command.
	DefaultCmdTimeout = time.Second
	// DefaultPassiveRetries is the number of activation attempts per poll.
	DefaultPassiveRetries byte = 0x02
	// MaxUIDLen is the largest NFCID1 a type A target reports.
	MaxUIDLen = 10
)

const (
	framePreamble    byte = 0x00
	frameStartCode1  byte = 0x00
	frameStartCode2  byte = 0xFF
	framePostamble   byte = 0x00
	frameHostToPN532 byte = 0xD4
	framePN532ToHost byte = 0xD5
	maxFrameLen           = 0xFE
)

var wakeUpSequence = []byte{
	0x55, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}
