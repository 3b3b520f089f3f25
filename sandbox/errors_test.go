package sandbox

import (
	"errors"
	"strings"
	"testing"
)

func TestCapabilityError_Message(t *testing.T) {
	err := &CapabilityError{Op: "require", Name: "os", Allowed: []string{"json", "math"}}
	msg := err.Error()
	for _, want := range []string{`require of "os" is not allowed`, "json", "math"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestCapabilityError_EmptyAllowList(t *testing.T) {
	err := &CapabilityError{Op: "require", Name: "os"}
	if !strings.Contains(err.Error(), "nothing is permitted") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestCapabilityError_Is(t *testing.T) {
	var err error = &CapabilityError{Op: "require", Name: "os"}
	if !errors.Is(err, ErrCapabilityDenied) {
		t.Error("expected match with ErrCapabilityDenied")
	}
	if errors.Is(err, ErrScriptFault) {
		t.Error("unexpected match with ErrScriptFault")
	}
}

func TestScriptError(t *testing.T) {
	err := &ScriptError{Kind: "TypeError", Message: "x is not a function", Stack: "TypeError: x is not a function\n\tat <eval>:1:1"}
	if got := err.Error(); got != "TypeError: x is not a function" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrScriptFault) {
		t.Error("expected match with ErrScriptFault")
	}
}

func TestScriptError_NoKind(t *testing.T) {
	err := &ScriptError{Message: "bare fault"}
	if got := err.Error(); got != "bare fault" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrCapabilityDenied, ErrScriptFault, ErrTimeout, ErrLimitExceeded, ErrConfiguration}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v matches %v", a, b)
			}
		}
	}
}
