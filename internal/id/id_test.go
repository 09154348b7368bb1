package id

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	got := New("run")
	if !strings.HasPrefix(got, "run_") {
		t.Errorf("expected run_ prefix, got %s", got)
	}
	if len(got) != len("run_")+DefaultLength {
		t.Errorf("unexpected length: %s", got)
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewRun()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestNewRun(t *testing.T) {
	if !strings.HasPrefix(NewRun(), PrefixRun+"_") {
		t.Error("NewRun should use the run prefix")
	}
}
