package util

import (
	"strings"
	"testing"
)

func TestErrorMessageIncludesBlockAndSubject(t *testing.T) {
	err := NewError(Redefinition, 3, "x")
	if !strings.Contains(err.Error(), "Redefinition") {
		t.Errorf("Error() = %q, want it to mention Redefinition", err.Error())
	}
	if !strings.Contains(err.Error(), "3") || !strings.Contains(err.Error(), "x") {
		t.Errorf("Error() = %q, want block 3 and subject x", err.Error())
	}
}

func TestErrorMessageOmitsBlockWhenNegative(t *testing.T) {
	err := NewError(TempExhausted, -1, "pool exhausted")
	if strings.Contains(err.Error(), "block -1") {
		t.Errorf("Error() = %q, should not mention a negative block id", err.Error())
	}
}

func TestKindStringUnknown(t *testing.T) {
	if got := Kind(999).String(); got != "Unknown" {
		t.Errorf("Kind(999).String() = %q, want Unknown", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	base := NewError(Undefined, 0, "y")
	wrapped := Wrap(base, "resolving identifier")
	if !strings.Contains(wrapped.Error(), "resolving identifier") {
		t.Errorf("Wrap did not include context, got %q", wrapped.Error())
	}
	if !strings.Contains(wrapped.Error(), "Undefined") {
		t.Errorf("Wrap lost the underlying error, got %q", wrapped.Error())
	}
}
