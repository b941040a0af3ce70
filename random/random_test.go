package random

import (
	"regexp"
	"testing"
)

var urlSafe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestTokenIsURLSafeAndDistinct(t *testing.T) {
	first, err := Token(32)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	second, err := Token(32)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}

	if !urlSafe.MatchString(first) || !urlSafe.MatchString(second) {
		t.Fatalf("expected URL-safe tokens, got %q and %q", first, second)
	}
	if first == second {
		t.Fatal("expected two generated tokens to differ")
	}
}

func TestTokenLengthProportionalToBytes(t *testing.T) {
	for _, n := range []int{1, 16, 32, 1024} {
		tok, err := Token(n)
		if err != nil {
			t.Fatalf("Token(%d) error: %v", n, err)
		}
		// base64url without padding: ceil(4n/3) characters.
		want := (n*4 + 2) / 3
		if len(tok) != want {
			t.Fatalf("Token(%d): expected %d chars, got %d", n, want, len(tok))
		}
	}
}

func TestTokenRejectsOutOfRangeLength(t *testing.T) {
	for _, n := range []int{0, -1, 1025} {
		if _, err := Token(n); err != ErrInvalidLength {
			t.Fatalf("Token(%d): expected ErrInvalidLength, got %v", n, err)
		}
	}
}

func TestSaltSizeAndDistinctness(t *testing.T) {
	first, err := Salt()
	if err != nil {
		t.Fatalf("Salt error: %v", err)
	}
	second, err := Salt()
	if err != nil {
		t.Fatalf("Salt error: %v", err)
	}

	if len(first) != SaltSize || len(second) != SaltSize {
		t.Fatalf("expected %d-byte salts", SaltSize)
	}

	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected two salts to differ")
	}
}
