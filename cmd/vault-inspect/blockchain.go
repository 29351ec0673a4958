package main

import (
	"context"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	rpcvault "github.com/nspcc-dev/vault-contract/rpc/vault"
	"go.uber.org/zap"
)

// wrapper over rpcNeo providing blockchain services needed for inspection
// commands.
type remoteBlockchain struct {
	log   *zap.Logger
	rpc   *rpcclient.Client
	actor *actor.Actor
}

// newRemoteBlockChain dials Neo RPC server and returns remoteBlockchain based
// on the opened connection. Every request is limited by the given timeout.
// Commands only read the chain, so the actor uses a throwaway account.
func newRemoteBlockChain(ctx context.Context, log *zap.Logger, cfg config) (*remoteBlockchain, error) {
	acc, err := wallet.NewAccount()
	if err != nil {
		return nil, fmt.Errorf("generate new Neo account: %w", err)
	}

	c, err := rpcclient.New(ctx, cfg.endpoint, rpcclient.Options{
		DialTimeout:    cfg.timeout,
		RequestTimeout: cfg.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	err = c.Init()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("RPC client init: %w", err)
	}

	act, err := actor.NewSimple(c, acc)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init actor: %w", err)
	}

	log.Debug("connected to RPC server", zap.String("endpoint", cfg.endpoint))

	return &remoteBlockchain{
		log:   log,
		rpc:   c,
		actor: act,
	}, nil
}

func (x *remoteBlockchain) close() {
	x.rpc.Close()
}

// invokerAt returns invoker performing test invocations against the state at
// the given height.
func (x *remoteBlockchain) invokerAt(height uint32) rpcvault.Invoker {
	return invoker.NewHistoricAtHeight(height, x.rpc, nil)
}

// iterateContractStorage iterates over all storage items of the Neo smart
// contract referenced by given address and passes them into f. Items are read
// at the penult block, its height is returned so that other values can be
// read from the same state. iterateContractStorage breaks on any f's error and
// returns it.
func (x *remoteBlockchain) iterateContractStorage(contract util.Uint160, f func(key, value []byte) error) (uint32, error) {
	nLatestBlock, err := x.rpc.GetBlockCount()
	if err != nil {
		return 0, fmt.Errorf("get number of the latest block: %w", err)
	}

	if nLatestBlock < 2 {
		return 0, fmt.Errorf("no state root yet, chain height is %d", nLatestBlock)
	}

	height := nLatestBlock - 1

	stateRoot, err := x.rpc.GetStateRootByHeight(height)
	if err != nil {
		return 0, fmt.Errorf("get state root at penult block #%d: %w", height, err)
	}

	x.log.Debug("reading contract storage",
		zap.Stringer("contract", contract),
		zap.Uint32("height", height),
		zap.Stringer("root", stateRoot.Root))

	var start []byte

	for {
		res, err := x.rpc.FindStates(stateRoot.Root, contract, nil, start, nil)
		if err != nil {
			return 0, fmt.Errorf("get historical storage items of the requested contract at state root '%s': %w", stateRoot.Root, err)
		}

		for i := range res.Results {
			err = f(res.Results[i].Key, res.Results[i].Value)
			if err != nil {
				return 0, err
			}
		}

		if !res.Truncated {
			return height, nil
		}

		start = res.Results[len(res.Results)-1].Key
	}
}
