package chain

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/pixil98/go-kitties/internal/kitties"
	"golang.org/x/crypto/blake2b"
)

// Randomness produces the seed for each new block from the previous one.
type Randomness interface {
	Next(prev kitties.Seed, block uint64) kitties.Seed
}

// HashRandomness chains seeds as blake2b-256(prev || big endian block number).
type HashRandomness struct{}

func (HashRandomness) Next(prev kitties.Seed, block uint64) kitties.Seed {
	var buf [kitties.SeedLen + 8]byte
	copy(buf[:], prev[:])
	binary.BigEndian.PutUint64(buf[kitties.SeedLen:], block)
	return blake2b.Sum256(buf[:])
}

// NewSeed generates a genesis seed using crypto/rand.
func NewSeed() (kitties.Seed, error) {
	var s kitties.Seed
	if _, err := crand.Read(s[:]); err != nil {
		return s, fmt.Errorf("read random seed: %w", err)
	}
	return s, nil
}
