package enroll

import (
	"context"
	"time"
)

// ScanReport describes a finished scan.
type ScanReport struct {
	Command    Command
	Result     ScanResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// ScanObserver is notified when a scan finishes.
// It's called on the control loop and must not block.
type ScanObserver interface {
	ScanFinished(context.Context, *ScanReport)
}

// ScanFinishedFunc is func type of ScanObserver.
type ScanFinishedFunc func(context.Context, *ScanReport)

// ScanFinished implements ScanObserver.
func (f ScanFinishedFunc) ScanFinished(ctx context.Context, r *ScanReport) {
	f(ctx, r)
}

// ObserverMux notifies multiple observers.
type ObserverMux struct {
	Observers []ScanObserver
}

// Add adds more observers.
func (m *ObserverMux) Add(observers ...ScanObserver) {
	m.Observers = append(m.Observers, observers...)
}

// ScanFinished implements ScanObserver.
func (m *ObserverMux) ScanFinished(ctx context.Context, r *ScanReport) {
	for _, o := range m.Observers {
		o.ScanFinished(ctx, r)
	}
}
