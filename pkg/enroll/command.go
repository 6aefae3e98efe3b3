package enroll

import "strings"

// ScanRFIDPrefix starts a scan command line.
const ScanRFIDPrefix = "SCAN_RFID:"

// CommandKind defines the kind of a command.
type CommandKind int

const (
	// Unknown is any unrecognized line.
	Unknown CommandKind = iota
	// ScanRFID requests a card scan for a user.
	ScanRFID
	// Malformed is a ScanRFID line without the user separator.
	Malformed
)

// String implements fmt.Stringer.
func (k CommandKind) String() string {
	switch k {
	case ScanRFID:
		return "SCAN_RFID"
	case Malformed:
		return "MALFORMED"
	default:
		return "UNKNOWN"
	}
}

// Command is a parsed command line.
type Command struct {
	Kind     CommandKind
	UserID   string
	UserName string
	// Line is the raw line as received, terminator included.
	Line string
}

// Parse parses one received line.
//
// The prefix match is exact and case sensitive, and the line is not trimmed
// before matching. The payload is split at the first colon: the user ID is
// taken verbatim, the user name is trimmed of surrounding whitespace.
func Parse(line string) Command {
	if !strings.HasPrefix(line, ScanRFIDPrefix) {
		return Command{Kind: Unknown, Line: line}
	}
	payload := line[len(ScanRFIDPrefix):]
	sep := strings.IndexByte(payload, ':')
	if sep < 0 {
		return Command{Kind: Malformed, Line: line}
	}
	return Command{
		Kind:     ScanRFID,
		UserID:   payload[:sep],
		UserName: strings.TrimSpace(payload[sep+1:]),
		Line:     line,
	}
}

// FormatScanRFID renders the command line a host sends to request a scan.
func FormatScanRFID(userID, userName string) string {
	return ScanRFIDPrefix + userID + ":" + userName + "\n"
}
