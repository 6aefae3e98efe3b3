// Package rfid defines the contract of an RFID reader peripheral.
package rfid

// Reader is a contactless card reader (PCD) polled for cards (PICCs).
//
// A Reader is owned by a single scanner and is not required to be
// safe for concurrent use.
type Reader interface {
	// Init prepares the reader. It's called once before polling starts.
	Init() error
	// IsNewCardPresent reports whether a card entered the field.
	IsNewCardPresent() bool
	// ReadCardSerial selects the card and reads its UID.
	// After it returns true, UID returns the card UID.
	ReadCardSerial() bool
	// UID returns the UID of the selected card.
	UID() []byte
	// HaltCard puts the selected card to sleep.
	HaltCard() error
	// StopCrypto ends any authenticated session with the card.
	StopCrypto() error
}

// Closer is implemented by readers holding system resources.
type Closer interface {
	Close() error
}

// Close releases r if it holds resources.
func Close(r Reader) error {
	if closer, ok := r.(Closer); ok {
		return closer.Close()
	}
	return nil
}
