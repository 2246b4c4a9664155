package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Onion address constants.
const (
	// OnionSuffix is the common suffix of all onion addresses.
	OnionSuffix = ".onion"

	// onionV3Length is the length of a v3 address without the suffix:
	// 56 base32 characters encoding pubkey, checksum, and version byte.
	onionV3Length = 56

	// onionV3Version is the version byte of v3 onion addresses.
	onionV3Version = 0x03
)

// onionV3Pattern matches v3 onion addresses. Base32 uses a-z and 2-7.
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// checksumPrefix is specified by the Tor rendezvous protocol for v3
// address checksum calculation.
var checksumPrefix = []byte(".onion checksum")

// base32Lower decodes the lowercase base32 alphabet onion addresses use.
var base32Lower = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// IsValidV3Address reports whether addr is a well-formed v3 onion address
// with a correct embedded checksum. Checksum verification catches typos
// and corrupted addresses that mere pattern matching would accept; it is
// the same check Tor itself performs before connecting.
func IsValidV3Address(addr string) bool {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if !onionV3Pattern.MatchString(addr) {
		return false
	}

	decoded, err := base32Lower.DecodeString(strings.TrimSuffix(addr, OnionSuffix))
	if err != nil {
		return false
	}
	// pubkey (32 bytes) || checksum (2 bytes) || version (1 byte)
	if len(decoded) != 35 || decoded[34] != onionV3Version {
		return false
	}

	pubkey := decoded[:32]
	checksum := decoded[32:34]

	h := sha3.New256()
	h.Write(checksumPrefix)
	h.Write(pubkey)
	h.Write([]byte{onionV3Version})
	expected := h.Sum(nil)[:2]

	return checksum[0] == expected[0] && checksum[1] == expected[1]
}
