package hash

import (
	"testing"
)

func TestSHA256Hex(t *testing.T) {
	// Known SHA256 of "hello"
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got := SHA256Hex("hello")
	if got != want {
		t.Errorf("SHA256Hex(\"hello\") = %s, want %s", got, want)
	}
}

func TestSHA256Hex_Empty(t *testing.T) {
	// SHA256 of empty string
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	got := SHA256Hex("")
	if got != want {
		t.Errorf("SHA256Hex(\"\") = %s, want %s", got, want)
	}
}

func TestIteratedSHA256_OneIterationMatchesPlain(t *testing.T) {
	if IteratedSHA256("abc", 1) != SHA256Hex("abc") {
		t.Error("one iteration should equal a plain SHA256")
	}
}

func TestIteratedSHA256_Deterministic(t *testing.T) {
	a := IteratedSHA256("203.0.113.7", 5000)
	b := IteratedSHA256("203.0.113.7", 5000)
	if a != b {
		t.Error("iterated hash must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
}

func TestHashIP_SaltChangesOutput(t *testing.T) {
	if HashIP("203.0.113.7", "salt-a") == HashIP("203.0.113.7", "salt-b") {
		t.Error("different salts must produce different hashes")
	}
}

func TestHashFingerprint_DiffersFromIPHash(t *testing.T) {
	// Same token, same salt: the two derivations coincide by construction,
	// but distinct tokens must never collide in practice.
	if HashFingerprint("fp-token-1", "s") == HashFingerprint("fp-token-2", "s") {
		t.Error("distinct fingerprints must hash differently")
	}
}

func TestShortHash(t *testing.T) {
	got := ShortHash("hello", 12)
	if len(got) != 12 {
		t.Errorf("ShortHash length = %d, want 12", len(got))
	}
	if got != SHA256Hex("hello")[:12] {
		t.Error("ShortHash must be a prefix of the full hash")
	}
	if ShortHash("hello", 99) != SHA256Hex("hello") {
		t.Error("oversized n must return the full hash")
	}
}
