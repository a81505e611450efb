package kitties

import (
	"encoding/hex"
	"fmt"
	"math"
)

// DNALen is the size in bytes of a kitty genome.
const DNALen = 16

// MaxKittyIndex is the largest id that can ever be allocated.
const MaxKittyIndex KittyIndex = math.MaxUint32

// KittyIndex identifies a kitty for its entire lifetime. Ids start at 1.
type KittyIndex uint32

// AccountID is the authenticated identity of a transaction signer.
type AccountID string

func (a AccountID) String() string {
	return string(a)
}

// DNA is an opaque genome. It is only ever generated or combined, never interpreted.
type DNA [DNALen]byte

func (d DNA) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText encodes the genome as lowercase hex.
func (d DNA) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a hex encoded genome.
func (d *DNA) UnmarshalText(text []byte) error {
	parsed, err := ParseDNA(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDNA decodes a 32 character hex string into a genome.
func ParseDNA(s string) (DNA, error) {
	var d DNA
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("decoding dna %q: %w", s, err)
	}
	if len(b) != DNALen {
		return d, fmt.Errorf("dna %q must be %d bytes, got %d", s, DNALen, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Kitty is a single creature. It is never mutated after it is stored.
type Kitty struct {
	DNA DNA `json:"dna" msgpack:"dna"`
}

// Crossover mixes two parent genomes bit by bit. Where a selector bit is set
// the child takes the bit from a, otherwise from b.
func Crossover(selector, a, b DNA) DNA {
	var child DNA
	for i := range child {
		child[i] = (selector[i] & a[i]) | (^selector[i] & b[i])
	}
	return child
}
