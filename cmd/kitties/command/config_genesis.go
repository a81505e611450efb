package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pixil98/go-kitties/internal/chain"
	"github.com/pixil98/go-kitties/internal/kitties"
)

type GenesisConfig struct {
	Path string `json:"path" env:"PATH"`
}

func (c *GenesisConfig) validate() error {
	if c.Path == "" {
		return nil
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("genesis: invalid path %q: %w", c.Path, err)
	}
	return nil
}

// applyGenesis seeds an empty ledger and returns the genesis randomness.
func (c *GenesisConfig) applyGenesis(ctx context.Context, ledger kitties.Ledger) (kitties.Seed, error) {
	g := &chain.Genesis{}
	if c.Path != "" {
		var err error
		g, err = chain.LoadGenesis(c.Path)
		if err != nil {
			return kitties.Seed{}, err
		}
	}

	err := g.Apply(ctx, ledger)
	if errors.Is(err, chain.ErrGenesisApplied) {
		slog.InfoContext(ctx, "ledger already initialized, skipping genesis kitties")
	} else if err != nil {
		return kitties.Seed{}, fmt.Errorf("applying genesis: %w", err)
	}

	return g.GenesisSeed()
}
