package kitties

import (
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"
)

// SeedLen is the size in bytes of a block randomness seed.
const SeedLen = 32

// Seed is the block-scoped randomness supplied by the host. It changes every block.
type Seed [SeedLen]byte

func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// ParseSeed decodes a 64 character hex string.
func ParseSeed(str string) (Seed, error) {
	var s Seed
	b, err := hex.DecodeString(str)
	if err != nil {
		return s, fmt.Errorf("decoding seed: %w", err)
	}
	if len(b) != SeedLen {
		return s, fmt.Errorf("seed must be %d bytes, got %d", SeedLen, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// Entropy derives a genome from host randomness. It must be a pure function of
// its inputs so every validator replaying a block gets the same kitties.
type Entropy interface {
	Derive(seed Seed, caller AccountID, index uint32) (DNA, error)
}

// entropyPayload is encoded positionally so field names never reach the hash.
type entropyPayload struct {
	_msgpack struct{} `msgpack:",as_array"`

	Seed   []byte
	Caller string
	Index  uint32
}

// Blake2Entropy hashes the msgpack encoded (seed, caller, index) tuple with a
// 128-bit BLAKE2b digest.
type Blake2Entropy struct{}

func (Blake2Entropy) Derive(seed Seed, caller AccountID, index uint32) (DNA, error) {
	var dna DNA

	payload, err := msgpack.Marshal(&entropyPayload{
		Seed:   seed[:],
		Caller: string(caller),
		Index:  index,
	})
	if err != nil {
		return dna, fmt.Errorf("encoding entropy payload: %w", err)
	}

	h, err := blake2b.New(DNALen, nil)
	if err != nil {
		return dna, fmt.Errorf("creating blake2b hash: %w", err)
	}
	h.Write(payload)
	copy(dna[:], h.Sum(nil))

	return dna, nil
}
