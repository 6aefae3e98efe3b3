package enroll

import (
	"encoding/hex"
	"errors"
	"strings"
)

// ErrEmptyUID indicates a UID without any byte.
var ErrEmptyUID = errors.New("empty UID")

const hexChars = "0123456789ABCDEF"

// UID is the identifier reported by a card.
type UID []byte

// String returns the UID as uppercase hex, two digits per byte, no
// separators (e.g. "0AFF03"). Returns an empty string for an empty UID.
func (u UID) String() string {
	buf := make([]byte, len(u)*2)
	for i, b := range u {
		buf[i*2] = hexChars[b>>4]
		buf[i*2+1] = hexChars[b&0x0F]
	}
	return string(buf)
}

// ParseUID parses hex digits, optionally separated by ':'.
func ParseUID(s string) (UID, error) {
	uid, err := hex.DecodeString(strings.ReplaceAll(s, ":", ""))
	if err != nil {
		return nil, err
	}
	if len(uid) == 0 {
		return nil, ErrEmptyUID
	}
	return UID(uid), nil
}
