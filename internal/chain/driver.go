package chain

import (
	"context"
	"time"
)

const (
	DefaultBlockInterval = time.Second * 6
)

type Ticker interface {
	Tick(context.Context) error
}

// BlockDriver closes a block on every tick.
type BlockDriver struct {
	interval time.Duration
	tickers  []Ticker
}

func NewBlockDriver(t []Ticker, opts ...BlockDriverOpt) *BlockDriver {
	d := &BlockDriver{
		interval: DefaultBlockInterval,
		tickers:  t,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *BlockDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

func (d *BlockDriver) Tick(ctx context.Context) error {
	for _, t := range d.tickers {
		err := t.Tick(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

type BlockDriverOpt func(*BlockDriver)

// WithBlockInterval sets how long each block stays open
func WithBlockInterval(d time.Duration) BlockDriverOpt {
	return func(b *BlockDriver) {
		b.interval = d
	}
}
