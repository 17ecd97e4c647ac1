// Package gameid generates and checks game identifiers: a UUIDv7 written as
// 26 characters of Crockford base32, so IDs sort by creation time and are
// safe to use as directory names.
package gameid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the length of an encoded game ID.
const Length = 26

// Generate creates a new game ID from a UUIDv7.
func Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("gameid: failed to generate UUIDv7: " + err.Error())
	}
	return Encode(id)
}

// Encode writes a UUID as 26 base32 characters. The 128 bits are treated as a
// 130-bit big-endian number with two leading zero bits, so the first
// character is always 0-7.
func Encode(id uuid.UUID) string {
	var out [Length]byte
	for i := 0; i < Length; i++ {
		// Character i covers bits [5i-2, 5i+3) of the 128-bit value.
		var v uint8
		for b := 0; b < 5; b++ {
			bit := i*5 + b - 2
			v <<= 1
			if bit >= 0 && id[bit/8]&(0x80>>(bit%8)) != 0 {
				v |= 1
			}
		}
		out[i] = alphabet[v]
	}
	return string(out[:])
}

// Parse decodes a game ID back into its UUID.
func Parse(s string) (uuid.UUID, error) {
	var id uuid.UUID
	if err := Validate(s); err != nil {
		return id, err
	}
	for i := 0; i < Length; i++ {
		v := strings.IndexByte(alphabet, s[i])
		for b := 0; b < 5; b++ {
			bit := i*5 + b - 2
			if bit < 0 || v&(0x10>>b) == 0 {
				continue
			}
			id[bit/8] |= 0x80 >> (bit % 8)
		}
	}
	return id, nil
}

// Validate checks if a game ID is valid (26 characters, valid base32)
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("game ID must be exactly %d characters, got %d", Length, len(id))
	}

	// The first character only carries three bits.
	if id[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}

	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}

	return nil
}
