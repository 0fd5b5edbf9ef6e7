package logic

import (
	"errors"
	"testing"
)

func TestSinksRenderAll(t *testing.T) {
	a := &RecordingSink{}
	b := &RecordingSink{}
	sinks := Sinks{a, nil, b}

	if err := sinks.Render(StatusOn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Rendered) != 1 || len(b.Rendered) != 1 {
		t.Errorf("expected both sinks rendered once, got %d and %d", len(a.Rendered), len(b.Rendered))
	}
}

func TestSinksContinueAfterError(t *testing.T) {
	errPin := errors.New("pin busy")
	a := &RecordingSink{RenderError: errPin}
	b := &RecordingSink{}

	err := Sinks{a, b}.Render(StatusLinkDown)
	if !errors.Is(err, errPin) {
		t.Errorf("expected joined error to wrap pin error, got %v", err)
	}
	if len(b.Rendered) != 1 || b.Rendered[0] != StatusLinkDown {
		t.Errorf("second sink should still render, got %v", b.Rendered)
	}
}

func TestSinksEmpty(t *testing.T) {
	if err := (Sinks{}).Render(StatusOff); err != nil {
		t.Errorf("empty Sinks should not error, got %v", err)
	}
}
