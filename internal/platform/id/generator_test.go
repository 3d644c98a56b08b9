package id

import (
	"strings"
	"testing"
)

func TestRandomGenerator_NewID(t *testing.T) {
	t.Parallel()

	gen := NewRandomGenerator()
	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(first) != 32 || first == second {
		t.Fatalf("unexpected ids: %q %q", first, second)
	}
}

func TestAccept(t *testing.T) {
	t.Parallel()

	accepted := []string{"abc-123", " trace:01.a_b ", strings.Repeat("x", 64)}
	for _, raw := range accepted {
		if _, ok := Accept(raw); !ok {
			t.Fatalf("expected %q to be accepted", raw)
		}
	}

	rejected := []string{"", "   ", "a b", "line\nbreak", "<script>", strings.Repeat("x", 65)}
	for _, raw := range rejected {
		if _, ok := Accept(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
