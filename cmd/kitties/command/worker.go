package command

import (
	"context"
	"fmt"

	"github.com/pixil98/go-kitties/internal/chain"
	"github.com/pixil98/go-kitties/internal/kitties"
	"github.com/pixil98/go-kitties/internal/messaging"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}
	ctx := context.Background()

	interval, err := cfg.blockInterval()
	if err != nil {
		return nil, err
	}

	ledger, closer, err := cfg.Storage.buildLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating ledger: %w", err)
	}

	seed, err := cfg.Genesis.applyGenesis(ctx, ledger)
	if err != nil {
		if closer.close != nil {
			_ = closer.close()
		}
		return nil, err
	}

	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	// Setup the chain
	c := chain.NewChain(
		ledger,
		kitties.NewPallet(kitties.Blake2Entropy{}),
		seed,
		chain.WithPublisher(messaging.NewNatsPublisher(natsServer)),
	)
	driver := chain.NewBlockDriver([]chain.Ticker{c}, chain.WithBlockInterval(interval))

	// Create a worker list
	return service.WorkerList{
		"nats":    natsServer,
		"driver":  driver,
		"gateway": messaging.NewGateway(natsServer, c),
		"ledger":  closer,
	}, nil
}
