package chain

import (
	"context"
	"errors"
	"fmt"
	"os"

	perrors "github.com/pixil98/go-errors"
	"github.com/pixil98/go-kitties/internal/kitties"
	"gopkg.in/yaml.v3"
)

var ErrGenesisApplied = errors.New("ledger already has kitties")

// Genesis is the initial chain state.
type Genesis struct {
	// Seed is the hex genesis randomness. A random one is generated when empty.
	Seed    string         `yaml:"seed"`
	Kitties []GenesisKitty `yaml:"kitties"`
}

type GenesisKitty struct {
	Owner kitties.AccountID `yaml:"owner"`
	DNA   string            `yaml:"dna"`
}

// LoadGenesis reads a genesis file. A missing file gives an empty genesis.
func LoadGenesis(path string) (*Genesis, error) {
	g := &Genesis{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, fmt.Errorf("reading genesis %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("parsing genesis %s: %w", path, err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("validating genesis %s: %w", path, err)
	}

	return g, nil
}

func (g *Genesis) Validate() error {
	el := perrors.NewErrorList()

	if g.Seed != "" {
		if _, err := kitties.ParseSeed(g.Seed); err != nil {
			el.Add(err)
		}
	}

	for i, k := range g.Kitties {
		if k.Owner == "" {
			el.Add(fmt.Errorf("kitty %d: owner is required", i+1))
		}
		if _, err := kitties.ParseDNA(k.DNA); err != nil {
			el.Add(fmt.Errorf("kitty %d: %w", i+1, err))
		}
	}

	return el.Err()
}

// GenesisSeed returns the configured seed, or a fresh random one.
func (g *Genesis) GenesisSeed() (kitties.Seed, error) {
	if g.Seed == "" {
		return NewSeed()
	}
	return kitties.ParseSeed(g.Seed)
}

// Apply stores the genesis kitties with ids 1..n. It refuses to run on a
// ledger that already counted kitties.
func (g *Genesis) Apply(ctx context.Context, ledger kitties.Ledger) error {
	if len(g.Kitties) == 0 {
		return nil
	}

	return ledger.Atomic(ctx, func(ctx context.Context, st kitties.Store) error {
		_, ok, err := st.KittiesCount(ctx)
		if err != nil {
			return fmt.Errorf("reading kitties count: %w", err)
		}
		if ok {
			return ErrGenesisApplied
		}

		for i, gk := range g.Kitties {
			id := kitties.KittyIndex(i + 1)
			dna, err := kitties.ParseDNA(gk.DNA)
			if err != nil {
				return fmt.Errorf("kitty %d: %w", id, err)
			}
			if err := st.PutKitty(ctx, id, kitties.Kitty{DNA: dna}); err != nil {
				return err
			}
			if err := st.PutOwner(ctx, id, gk.Owner); err != nil {
				return err
			}
		}

		return st.SetKittiesCount(ctx, kitties.KittyIndex(len(g.Kitties)))
	})
}
