package pn532

import "fmt"

// FrameType classifies frames received from the PN532.
type FrameType int

// Frame types.
const (
	FrameACK FrameType = iota
	FrameNACK
	FrameData
)

// Frame is a parsed normal information frame or an ACK/NACK.
type Frame struct {
	Type    FrameType
	TFI     byte
	Command byte
	Data    []byte
}

func (f *Frame) String() string {
	switch f.Type {
	case FrameACK:
		return "ACK"
	case FrameNACK:
		return "NACK"
	}
	return fmt.Sprintf("DATA(%#02x,%#02x,% X)", f.TFI, f.Command, f.Data)
}

// EncodeFrame builds a normal information frame.
func EncodeFrame(tfi, command byte, data []byte) []byte {
	length := byte(len(data) + 2)
	buf := make([]byte, 0, len(data)+9)
	buf = append(buf, framePreamble, frameStartCode1, frameStartCode2, length, -length, tfi, command)
	sum := tfi + command
	for _, b := range data {
		sum += b
	}
	buf = append(buf, data...)
	return append(buf, -sum, framePostamble)
}

var ackFrame = []byte{framePreamble, frameStartCode1, frameStartCode2, 0x00, 0xFF, framePostamble}

type parseState int

const (
	stateIdle      parseState = iota // waiting for 0x00
	stateStart                       // waiting for 0xFF
	stateLen                         // waiting for LEN
	stateLCS                         // waiting for LCS
	stateBody                        // waiting for TFI and PD0..PDn
	stateDCS                         // waiting for DCS
	statePostamble                   // waiting for postamble
)

// Parser decodes frames from a byte stream. Corrupted frames are skipped.
type Parser struct {
	state  parseState
	length int
	body   []byte
}

// Parse consumes one byte and returns a frame when one is complete.
func (p *Parser) Parse(b byte) *Frame {
	switch p.state {
	case stateIdle:
		if b == frameStartCode1 {
			p.state = stateStart
		}
	case stateStart:
		if b == frameStartCode2 {
			p.state = stateLen
		} else if b != frameStartCode1 {
			p.state = stateIdle
		}
	case stateLen:
		p.length, p.state = int(b), stateLCS
	case stateLCS:
		switch {
		case p.length == 0x00 && b == 0xFF:
			p.state = stateIdle
			return &Frame{Type: FrameACK}
		case p.length == 0xFF && b == 0x00:
			p.state = stateIdle
			return &Frame{Type: FrameNACK}
		case byte(p.length)+b != 0, p.length < 2, p.length > maxFrameLen:
			p.state = stateIdle
		default:
			p.body = make([]byte, 0, p.length)
			p.state = stateBody
		}
	case stateBody:
		p.body = append(p.body, b)
		if len(p.body) >= p.length {
			p.state = stateDCS
		}
	case stateDCS:
		sum := b
		for _, c := range p.body {
			sum += c
		}
		if sum != 0 {
			p.state = stateIdle
		} else {
			p.state = statePostamble
		}
	case statePostamble:
		p.state = stateIdle
		body := p.body
		p.body = nil
		return &Frame{Type: FrameData, TFI: body[0], Command: body[1], Data: body[2:]}
	}
	return nil
}

// Reset drops any partially parsed frame.
func (p *Parser) Reset() {
	p.state, p.body = stateIdle, nil
}
