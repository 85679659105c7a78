package logging

import "testing"

func TestDiscardDoesNotPanic(t *testing.T) {
	l := Discard()
	l.Debugf("x=%d", 1)
	l.Infof("hello")
	l.Warnf("careful: %s", "thing")
	l.Errorf("boom")
}

func TestNewWithoutLogFile(t *testing.T) {
	l := New(LevelDebug, "")
	l.Infof("no file configured, stderr only")
}
