package irq_test

import (
	"testing"

	"github.com/go6502/m6502/irq"
)

func TestLine(t *testing.T) {
	var l irq.Line
	var s irq.Sender = &l

	if s.Raised() {
		t.Fatal("new line should not be raised")
	}
	l.Raise()
	if !s.Raised() {
		t.Error("expected Raised() after Raise()")
	}
	l.Clear()
	if s.Raised() {
		t.Error("expected !Raised() after Clear()")
	}
}
