package watchdog

import (
	"testing"
	"time"

	"github.com/nano-kit/zenoh-remote-bridge/internal/log"
)

type recordingLogger struct {
	infos, warns, errors []string
}

func (r *recordingLogger) Print(v ...interface{})   {}
func (r *recordingLogger) Printf(format string, v ...interface{}) {
	r.infos = append(r.infos, format)
}
func (r *recordingLogger) Warnf(format string, v ...interface{}) {
	r.warns = append(r.warns, format)
}
func (r *recordingLogger) Errorf(format string, v ...interface{}) {
	r.errors = append(r.errors, format)
}
func (r *recordingLogger) Fatal(v ...interface{})                 {}
func (r *recordingLogger) Fatalf(format string, v ...interface{}) {}

func TestLogDriftThresholds(t *testing.T) {
	rec := &recordingLogger{}
	log.SetLogger(rec)

	period := 200 * time.Millisecond

	logDrift(1*time.Millisecond, period)
	logDrift(20*time.Millisecond, period)
	logDrift(150*time.Millisecond, period)
	logDrift(250*time.Millisecond, period)

	if len(rec.infos) != 1 {
		t.Fatalf("expected 1 info log, got %d: %v", len(rec.infos), rec.infos)
	}
	if len(rec.warns) != 1 {
		t.Fatalf("expected 1 warn log, got %d: %v", len(rec.warns), rec.warns)
	}
	if len(rec.errors) != 1 {
		t.Fatalf("expected 1 error log, got %d: %v", len(rec.errors), rec.errors)
	}
}
