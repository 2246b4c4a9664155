package tor

import (
	"strings"
	"testing"

	"golang.org/x/crypto/sha3"
)

// makeV3Address builds a checksum-correct v3 onion address from a pubkey.
func makeV3Address(pubkey [32]byte) string {
	h := sha3.New256()
	h.Write(checksumPrefix)
	h.Write(pubkey[:])
	h.Write([]byte{onionV3Version})
	checksum := h.Sum(nil)[:2]

	raw := append(append(pubkey[:], checksum...), onionV3Version)
	return base32Lower.EncodeToString(raw) + OnionSuffix
}

// TestIsValidV3Address tests v3 onion address validation.
func TestIsValidV3Address(t *testing.T) {
	t.Parallel()

	t.Run("accepts a checksum-correct address", func(t *testing.T) {
		t.Parallel()

		var pubkey [32]byte
		for i := range pubkey {
			pubkey[i] = byte(i * 7)
		}
		addr := makeV3Address(pubkey)

		if !IsValidV3Address(addr) {
			t.Errorf("expected %s to validate", addr)
		}
	})

	t.Run("accepts uppercase and surrounding whitespace", func(t *testing.T) {
		t.Parallel()

		var pubkey [32]byte
		addr := makeV3Address(pubkey)

		if !IsValidV3Address("  " + strings.ToUpper(addr) + " ") {
			t.Error("expected validation to normalize case and whitespace")
		}
	})

	t.Run("rejects a corrupted address", func(t *testing.T) {
		t.Parallel()

		var pubkey [32]byte
		addr := makeV3Address(pubkey)

		// Flip one character without breaking the base32 alphabet.
		corrupted := []byte(addr)
		if corrupted[0] == 'a' {
			corrupted[0] = 'b'
		} else {
			corrupted[0] = 'a'
		}

		if IsValidV3Address(string(corrupted)) {
			t.Error("expected corrupted address to fail checksum validation")
		}
	})

	t.Run("rejects malformed addresses", func(t *testing.T) {
		t.Parallel()

		invalid := []string{
			"",
			"example.onion",
			"example.com",
			strings.Repeat("a", 56),           // missing suffix
			strings.Repeat("a", 55) + ".onion", // too short
			strings.Repeat("1", 56) + ".onion", // invalid base32 characters
		}

		for _, addr := range invalid {
			if IsValidV3Address(addr) {
				t.Errorf("expected %q to be rejected", addr)
			}
		}
	})
}
