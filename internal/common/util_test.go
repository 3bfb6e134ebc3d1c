package common

import (
	"encoding/hex"
	"testing"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

// ---------- RandomDigits ----------

func TestRandomDigits_OnlyDigits(t *testing.T) {
	const n = 6
	for i := 0; i < 50; i++ {
		s, err := RandomDigits(n)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(s) != n {
			t.Fatalf("expected length %d, got %d (%q)", n, len(s), s)
		}
		for _, c := range s {
			if c < '0' || c > '9' {
				t.Fatalf("non-digit %q in %q", c, s)
			}
		}
	}
}

func TestRandomDigits_Zero(t *testing.T) {
	s, err := RandomDigits(0)
	if err != nil || s != "" {
		t.Fatalf("want empty string, got (%q, %v)", s, err)
	}
}
