// Package watchdog is an always-on liveness sampler: it schedules a
// recurring tick via internal/scheduler's min-heap deadline scheduler and logs how far that
// tick drifted from its expected period, the same way a heartbeat notices a
// stalled event loop before a peer does.
package watchdog

import (
	"time"

	"github.com/nano-kit/zenoh-remote-bridge/internal/log"
	"github.com/nano-kit/zenoh-remote-bridge/internal/scheduler"
)

const (
	infoThreshold = 10 * time.Millisecond
	warnThreshold = 100 * time.Millisecond
)

// Start begins sampling at period and never stops; it runs for the life of
// the process and is never individually cancelled.
func Start(period time.Duration) {
	last := time.Now()
	scheduler.Repeat(func() {
		now := time.Now()
		drift := now.Sub(last) - period
		last = now
		logDrift(drift, period)
	}, period)
}

func logDrift(drift, period time.Duration) {
	switch {
	case drift >= period:
		log.Errorf("watchdog: tick drifted %s past its %s period", drift, period)
	case drift >= warnThreshold:
		log.Warnf("watchdog: tick drifted %s", drift)
	case drift >= infoThreshold:
		log.Printf("watchdog: tick drifted %s", drift)
	}
}
