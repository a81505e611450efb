package command

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-kitties/internal/chain"
)

type Config struct {
	BlockInterval string        `json:"block_interval" env:"KITTIES_BLOCK_INTERVAL"`
	Storage       StorageConfig `json:"storage" envPrefix:"KITTIES_STORAGE_"`
	Nats          NatsConfig    `json:"nats" envPrefix:"KITTIES_NATS_"`
	Genesis       GenesisConfig `json:"genesis" envPrefix:"KITTIES_GENESIS_"`
}

// Validate applies environment overrides on top of the config file and
// checks the result.
func (c *Config) Validate() error {
	el := errors.NewErrorList()

	err := env.Parse(c)
	if err != nil {
		el.Add(fmt.Errorf("parsing environment: %w", err))
	}

	_, err = c.blockInterval()
	if err != nil {
		el.Add(err)
	}

	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.Genesis.validate())

	return el.Err()
}

func (c *Config) blockInterval() (time.Duration, error) {
	if c.BlockInterval == "" {
		return chain.DefaultBlockInterval, nil
	}

	d, err := time.ParseDuration(c.BlockInterval)
	if err != nil {
		return 0, fmt.Errorf("parsing block_interval: %w", err)
	}
	if d < time.Second {
		return 0, fmt.Errorf("block_interval must be at least 1 second")
	}
	return d, nil
}
