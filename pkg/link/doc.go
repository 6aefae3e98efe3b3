// Package link provides the serial link between the host and the device.
package link

// The link is line oriented: the host sends one newline terminated command
// per line and the device answers with CRLF terminated lines.
//
// Bytes are assembled into lines one at a time by Assembler. The assembler
// has no idea what a command is, it only knows about line terminators.
//
// Producer: host
// Consumer: device control loop
