package util

import "testing"

func TestRoundupRounddown(t *testing.T) {
	if got := Roundup(13, 8); got != 16 {
		t.Fatalf("Roundup(13,8) = %d, want 16", got)
	}
	if got := Rounddown(13, 8); got != 8 {
		t.Fatalf("Rounddown(13,8) = %d, want 8", got)
	}
	if got := Roundup(16, 8); got != 16 {
		t.Fatalf("Roundup(16,8) = %d, want 16", got)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	cases := map[int]bool{0: false, 1: true, 2: true, 3: false, 64: true, 63: false}
	for v, want := range cases {
		if got := IsPowerOfTwo(v); got != want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", v, got, want)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128}
	for v, want := range cases {
		if got := NextPowerOfTwo(v); got != want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", v, got, want)
		}
	}
}

func TestLog2(t *testing.T) {
	cases := map[int]uint{1: 0, 2: 1, 8: 3, 64: 6}
	for v, want := range cases {
		if got := Log2(v); got != want {
			t.Errorf("Log2(%d) = %d, want %d", v, got, want)
		}
	}
}
