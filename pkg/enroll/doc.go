// Package enroll implements the card enrollment command processor.
//
// The host asks the device to scan a card for a user:
//
//	SCAN_RFID:<userId>:<userName>\n
//
// The device acknowledges, polls the reader until a card answers or the
// scan times out, and reports the card with the only line the host is
// expected to parse:
//
//	UID_SCANNED:<HEXUID>\r\n
//
// Every other line is informational. A timeout is reported with a human
// readable line only; the host detects failure by the absence of a
// UID_SCANNED line.
//
// Everything runs on the single control loop in Device.Run; a scan blocks
// the loop until it finishes.
//
// Producer: host
// Consumer: device
package enroll
