package util

import "testing"

func TestParseFloatLoose(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"123.45", 123.45, true},
		{"1,234,567.8", 1234567.8, true},
		{" 42 ", 42, true},
		{"-0.5", -0.5, true},
		{"", 0, false},
		{".", 0, false},
		{"n/a", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseFloatLoose(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseFloatLoose(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("expected default, got %d", got)
	}
	if got := ParseIntDefault("12", 7); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if got := ParseIntDefault("x", 7); got != 7 {
		t.Fatalf("expected default, got %d", got)
	}
}
