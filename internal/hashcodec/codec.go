// Package hashcodec turns random identifiers into short URL-safe aliases.
//
// The transform is one-way: an identifier is folded into a small integer which
// is then written in the digits of a shuffled URL-safe alphabet. Distinct
// identifiers may share an alias, so callers that need uniqueness must check
// the result against their store.
package hashcodec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Alphabet is the digit table used by Encode, index 0 first.
const Alphabet = "_JaHQ1K-0pFh5ZeWTvXlV9xqLcPgzfw6UrBDSR7dCnkbIAjsNotGMOi28YE3y4mu"

const base = uint64(len(Alphabet))

// ErrMalformedID is returned by EncodeString for input that is not a UUID.
var ErrMalformedID = errors.New("malformed identifier")

// Encode returns the alias for id. The result is never empty.
func Encode(id uuid.UUID) string {
	return EncodeValue(Fold(id))
}

// EncodeString parses s as a UUID and returns its alias.
func EncodeString(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedID, err)
	}

	return Encode(id), nil
}

// EncodeValue writes v in base len(Alphabet), least significant digit first.
func EncodeValue(v uint64) string {
	if v == 0 {
		return Alphabet[:1]
	}

	var sb strings.Builder

	for v > 0 {
		sb.WriteByte(Alphabet[v%base])
		v /= base
	}

	return sb.String()
}

// Fold reduces the 32 hex digits of id (groups 8-4-4-4-12) to a single value.
//
// The first group seeds the value and scales it by its two trailing bytes. The
// leading digits of groups 2-4 scale it again, then the digit products of
// groups 2-4 and the position-shifted bytes of group 5 are added. A zero digit
// at offset i counts as i+1 in a product, so every product is at least 1 and
// the folded value is never zero.
func Fold(id uuid.UUID) uint64 {
	v := uint64(id[0])<<8 | uint64(id[1])
	v *= uint64(id[2]) * uint64(id[3])
	v *= (nibble(id, 8) + nibble(id, 12) + nibble(id, 16) + nibble(id, 9)) << 2

	v += digitProduct(id, 8) + digitProduct(id, 12) + digitProduct(id, 16)

	// group 5 spans bytes 10..15; byte k sits at hex offset 2k within the group
	for k := range 6 {
		v += uint64(id[10+k]) << (2 * k)
	}

	return v
}

// Valid reports whether s could have been produced by Encode.
func Valid(s string) bool {
	if s == "" {
		return false
	}

	for i := range len(s) {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return false
		}
	}

	return true
}

// nibble returns hex digit n (0..31) of id.
func nibble(id uuid.UUID, n int) uint64 {
	b := id[n/2]
	if n%2 == 0 {
		return uint64(b >> 4)
	}

	return uint64(b & 0x0f)
}

func digitProduct(id uuid.UUID, start int) uint64 {
	p := uint64(1)

	for i := range 4 {
		d := nibble(id, start+i)
		if d == 0 {
			d = uint64(i + 1)
		}

		p *= d
	}

	return p
}
