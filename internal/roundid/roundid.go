// Package roundid generates identifiers for blackjack rounds: UUIDv7 values
// encoded as 26-character Crockford base32 strings, so IDs sort by creation
// time.
package roundid

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Length of an encoded round ID
const Length = 26

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generator creates round IDs. A nil reader means crypto/rand.
type Generator struct {
	reader io.Reader
}

// NewGenerator creates a generator that takes its random bits from r
func NewGenerator(r io.Reader) *Generator {
	return &Generator{reader: r}
}

// Generate creates a new round ID
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new round ID from the generator's reader
func (g *Generator) Generate() string {
	var (
		id  uuid.UUID
		err error
	)
	if g.reader != nil {
		id, err = uuid.NewV7FromReader(g.reader)
	} else {
		id, err = uuid.NewV7()
	}
	if err != nil {
		panic("failed to generate round id: " + err.Error())
	}
	return Encode(id)
}

// Encode renders a UUID as 26 base32 characters. The 128 bits are padded
// with two leading zero bits, so the first character is always 0-7.
func Encode(id uuid.UUID) string {
	hi, lo := split(id)
	out := make([]byte, Length)
	for i := 0; i < Length; i++ {
		shift := uint(5 * (Length - 1 - i))
		out[i] = alphabet[shr128(hi, lo, shift)&0x1f]
	}
	return string(out)
}

// Parse decodes a round ID back into its UUID
func Parse(id string) (uuid.UUID, error) {
	if len(id) != Length {
		return uuid.Nil, fmt.Errorf("round ID must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return uuid.Nil, fmt.Errorf("round ID first character must be 0-7, got %c", id[0])
	}

	var hi, lo uint64
	for i := 0; i < Length; i++ {
		v := strings.IndexByte(alphabet, id[i])
		if v < 0 {
			return uuid.Nil, fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
		hi = hi<<5 | lo>>59
		lo = lo<<5 | uint64(v)
	}

	var out uuid.UUID
	for i := 0; i < 8; i++ {
		out[i] = byte(hi >> (56 - 8*i))
		out[8+i] = byte(lo >> (56 - 8*i))
	}
	return out, nil
}

// Validate checks if a round ID is valid (26 characters, valid base32)
func Validate(id string) error {
	_, err := Parse(id)
	return err
}

func split(id uuid.UUID) (hi, lo uint64) {
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(id[i])
		lo = lo<<8 | uint64(id[8+i])
	}
	return hi, lo
}

func shr128(hi, lo uint64, s uint) uint64 {
	switch {
	case s == 0:
		return lo
	case s >= 64:
		return hi >> (s - 64)
	default:
		return lo>>s | hi<<(64-s)
	}
}
