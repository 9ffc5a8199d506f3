package gpt

import (
	"errors"
	"strings"
	"testing"
)

func TestRecoverPanic(t *testing.T) {
	run := func() (err error) {
		defer recoverPanic(&err)
		var m map[string]int
		m["boom"] = 1
		return nil
	}

	err := run()
	var detailed *DetailedError
	if !errors.As(err, &detailed) {
		t.Fatalf("error = %v, want *DetailedError", err)
	}
	if !strings.Contains(detailed.Error(), "internal panic") {
		t.Errorf("Error() = %q, want internal panic", detailed.Error())
	}
	if len(detailed.Stack) == 0 {
		t.Error("Stack is empty")
	}
}
