package ftlerr

import (
	"testing"

	"github.com/pkg/errors"
)

func TestIsTraversesWrap(t *testing.T) {
	wrapped := WrapFlashFull("allocate_page")
	if !Is(wrapped, FlashFull) {
		t.Fatalf("expected wrapped error to satisfy errors.Is(FlashFull), got %v", wrapped)
	}
}

func TestIsTraversesWrapf(t *testing.T) {
	wrapped := WrapUnknownMode("bogus")
	if !Is(wrapped, UnknownMode) {
		t.Fatalf("expected wrapped error to satisfy errors.Is(UnknownMode), got %v", wrapped)
	}
}

func TestIsRejectsUnrelatedError(t *testing.T) {
	other := errors.New("unrelated")
	if Is(other, FlashFull) {
		t.Fatalf("unrelated error should not satisfy errors.Is(FlashFull)")
	}
}
