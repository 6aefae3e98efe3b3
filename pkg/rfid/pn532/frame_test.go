package pn532

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parseAll(p *Parser, bs []byte) (frames []*Frame) {
	for _, b := range bs {
		if f := p.Parse(b); f != nil {
			frames = append(frames, f)
		}
	}
	return
}

func TestEncodeFrame(t *testing.T) {
	require.Equal(t,
		[]byte{0x00, 0x00, 0xFF, 0x02, 0xFE, 0xD4, 0x02, 0x2A, 0x00},
		EncodeFrame(frameHostToPN532, cmdGetFirmwareVersion, nil))
	require.Equal(t,
		[]byte{0x00, 0x00, 0xFF, 0x04, 0xFC, 0xD4, 0x4A, 0x01, 0x00, 0xE1, 0x00},
		EncodeFrame(frameHostToPN532, cmdInListPassiveTarget, []byte{0x01, 0x00}))
}

func TestParser(t *testing.T) {
	var p Parser
	stream := append([]byte{0x55, 0x55, 0x00, 0x00}, ackFrame...)
	stream = append(stream, EncodeFrame(framePN532ToHost, 0x03, []byte{0x32, 0x01, 0x06, 0x07})...)
	frames := parseAll(&p, stream)
	require.Len(t, frames, 2)
	require.Equal(t, FrameACK, frames[0].Type)
	require.Equal(t, &Frame{Type: FrameData, TFI: 0xD5, Command: 0x03, Data: []byte{0x32, 0x01, 0x06, 0x07}}, frames[1])
}

func TestParserNACK(t *testing.T) {
	var p Parser
	frames := parseAll(&p, []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00})
	require.Len(t, frames, 1)
	require.Equal(t, FrameNACK, frames[0].Type)
}

func TestParserSkipsCorruptedFrames(t *testing.T) {
	var p Parser
	bad := EncodeFrame(framePN532ToHost, 0x15, []byte{0x01})
	bad[len(bad)-2]++ // DCS
	badLen := EncodeFrame(framePN532ToHost, 0x15, nil)
	badLen[4]++ // LCS
	stream := append(bad, badLen...)
	stream = append(stream, EncodeFrame(framePN532ToHost, 0x15, nil)...)
	frames := parseAll(&p, stream)
	require.Len(t, frames, 1)
	require.Equal(t, byte(0x15), frames[0].Command)
	require.Empty(t, frames[0].Data)
}
