package pipeline

import "testing"

func TestSeenSet(t *testing.T) {
	s := NewSeenSet()

	if s.Check("h1") {
		t.Error("first occurrence reported as duplicate")
	}
	if !s.Check("h1") {
		t.Error("second occurrence not reported as duplicate")
	}
	if s.Check("h2") {
		t.Error("distinct hash reported as duplicate")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestSeenSet_FreshPerRun(t *testing.T) {
	run1 := NewSeenSet()
	run1.Check("h1")

	run2 := NewSeenSet()
	if run2.Check("h1") {
		t.Error("seen set leaked across runs")
	}
}
