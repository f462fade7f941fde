package digest

import "testing"

func TestSumDeterministic(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	if a != b {
		t.Fatalf("Sum is not deterministic: %s vs %s", a, b)
	}
	c := Sum([]byte("world"))
	if a == c {
		t.Fatalf("distinct inputs hashed to the same digest")
	}
}

func TestParseRoundTrip(t *testing.T) {
	h := Sum([]byte("round trip"))
	parsed, err := Parse(h.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed != h {
		t.Fatalf("Parse(h.String()) != h")
	}
}

func TestNibble(t *testing.T) {
	var h Hash
	h[0] = 0xAB
	if got := h.Nibble(0); got != 0xA {
		t.Fatalf("Nibble(0) = %x, want a", got)
	}
	if got := h.Nibble(4); got != 0xB {
		t.Fatalf("Nibble(4) = %x, want b", got)
	}
}

func TestLessTotalOrder(t *testing.T) {
	a := Hash{0x01}
	b := Hash{0x02}
	if !a.Less(b) || b.Less(a) {
		t.Fatalf("Less is not consistent with byte order")
	}
	if a.Less(a) {
		t.Fatalf("Less must be irreflexive")
	}
}
