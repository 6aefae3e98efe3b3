// Package sim provides a simulated RFID reader.
package sim

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/ekefan/afitlms-edgeserver/pkg/rfid"
)

var _ rfid.Reader = (*Reader)(nil)

// Poll is the outcome of one presence check.
type Poll struct {
	Present  bool
	Readable bool
	UID      []byte
}

// Absent is a poll without any card in the field.
var Absent = Poll{}

// Unreadable is a poll with a card present whose serial can't be read.
func Unreadable() Poll {
	return Poll{Present: true}
}

// Card is a poll with a readable card.
func Card(uid ...byte) Poll {
	return Poll{Present: true, Readable: true, UID: uid}
}

// Stats counts calls made to the reader.
type Stats struct {
	Inits       int
	Polls       int
	Reads       int
	Halts       int
	StopCryptos int
}

// Reader simulates a reader.
//
// Scripted polls are consumed one per IsNewCardPresent. Once the script is
// exhausted, and if UIDs is not empty, a card from UIDs is presented Delay
// after polling starts and again Delay after every halt, cycling through
// UIDs. Otherwise the field stays empty.
type Reader struct {
	Delay time.Duration
	UIDs  [][]byte

	lock    sync.Mutex
	script  []Poll
	current Poll
	armedAt time.Time
	next    int
	stats   Stats
}

// NewScripted creates a Reader replaying polls.
func NewScripted(polls ...Poll) *Reader {
	return &Reader{script: polls}
}

// NewDelayed creates a Reader presenting uids after delay.
func NewDelayed(delay time.Duration, uids ...[]byte) *Reader {
	return &Reader{Delay: delay, UIDs: uids}
}

// Push appends polls to the script.
func (r *Reader) Push(polls ...Poll) {
	r.lock.Lock()
	r.script = append(r.script, polls...)
	r.lock.Unlock()
}

// Stats returns a snapshot of call counters.
func (r *Reader) Stats() Stats {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.stats
}

// Init implements rfid.Reader.
func (r *Reader) Init() error {
	r.lock.Lock()
	r.stats.Inits++
	r.lock.Unlock()
	glog.Info("simulated reader ready")
	return nil
}

// IsNewCardPresent implements rfid.Reader.
func (r *Reader) IsNewCardPresent() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.stats.Polls++
	if len(r.script) > 0 {
		r.current, r.script = r.script[0], r.script[1:]
		return r.current.Present
	}
	r.current = Absent
	if len(r.UIDs) == 0 {
		return false
	}
	now := time.Now()
	if r.armedAt.IsZero() {
		r.armedAt = now
	}
	if now.Sub(r.armedAt) < r.Delay {
		return false
	}
	r.current = Card(r.UIDs[r.next%len(r.UIDs)]...)
	return true
}

// ReadCardSerial implements rfid.Reader.
func (r *Reader) ReadCardSerial() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.stats.Reads++
	return r.current.Present && r.current.Readable
}

// UID implements rfid.Reader.
func (r *Reader) UID() []byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	uid := make([]byte, len(r.current.UID))
	copy(uid, r.current.UID)
	return uid
}

// HaltCard implements rfid.Reader.
func (r *Reader) HaltCard() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.stats.Halts++
	if r.current.Present && r.current.Readable {
		r.next++
		r.armedAt = time.Time{}
	}
	r.current = Absent
	return nil
}

// StopCrypto implements rfid.Reader.
func (r *Reader) StopCrypto() error {
	r.lock.Lock()
	r.stats.StopCryptos++
	r.lock.Unlock()
	return nil
}
