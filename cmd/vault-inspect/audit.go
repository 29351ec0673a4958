package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/vault-contract/contracts/vault/vaultconst"
	rpcvault "github.com/nspcc-dev/vault-contract/rpc/vault"
)

var errHoldingsMismatch = errors.New("holding invariant violated")

// holdings is a state of the Vault contract collected from its raw storage.
type holdings struct {
	records  map[util.Uint160]*rpcvault.Record
	balances map[util.Uint160]*big.Int
	total    *big.Int
}

func newHoldings() *holdings {
	return &holdings{
		records:  make(map[util.Uint160]*rpcvault.Record),
		balances: make(map[util.Uint160]*big.Int),
		total:    new(big.Int),
	}
}

// add decodes single storage item of the contract.
func (h *holdings) add(key, value []byte) error {
	if bytes.Equal(key, []byte(vaultconst.TotalKey)) {
		h.total = bigint.FromBytes(value)
		return nil
	}

	if len(key) != 1+util.Uint160Size {
		return fmt.Errorf("unexpected storage key %s", hex.EncodeToString(key))
	}

	id, err := util.Uint160DecodeBytesBE(key[1:])
	if err != nil {
		return fmt.Errorf("decode vault ID: %w", err)
	}

	switch key[0] {
	case vaultconst.VaultPrefix:
		r, err := rpcvault.DecodeRecord(value)
		if err != nil {
			return fmt.Errorf("vault %s: %w", address.Uint160ToString(id), err)
		}
		h.records[id] = r
	case vaultconst.BalancePrefix:
		h.balances[id] = bigint.FromBytes(value)
	default:
		return fmt.Errorf("unexpected storage key %s", hex.EncodeToString(key))
	}

	return nil
}

// sum returns the sum of all vault balances.
func (h *holdings) sum() *big.Int {
	res := new(big.Int)
	for _, b := range h.balances {
		res.Add(res, b)
	}
	return res
}

// stateSource provides contract storage and test invocations against the same
// chain state.
type stateSource interface {
	iterateContractStorage(contract util.Uint160, f func(key, value []byte) error) (uint32, error)
	invokerAt(height uint32) rpcvault.Invoker
}

// snapshot is a contract state read at a single height.
type snapshot struct {
	height   uint32
	holdings *holdings
	// totalHeld as reported by the contract.
	total *big.Int
	// GAS balance of the contract account.
	held *big.Int
}

// collectHoldings reads contract storage and then requests the reported total
// and GAS balance of the contract at the height the storage was read at.
func collectHoldings(src stateSource, contract util.Uint160) (*snapshot, error) {
	h := newHoldings()

	height, err := src.iterateContractStorage(contract, h.add)
	if err != nil {
		return nil, fmt.Errorf("read contract storage: %w", err)
	}

	inv := src.invokerAt(height)

	total, err := rpcvault.NewReader(inv, contract).TotalHeld()
	if err != nil {
		return nil, fmt.Errorf("get total held at height %d: %w", height, err)
	}

	held, err := gas.NewReader(inv).BalanceOf(contract)
	if err != nil {
		return nil, fmt.Errorf("get contract GAS balance at height %d: %w", height, err)
	}

	return &snapshot{
		height:   height,
		holdings: h,
		total:    total,
		held:     held,
	}, nil
}

// auditHoldings checks that the contract keeps its accounting consistent:
// every balance belongs to an initialized vault and is positive, the sum of
// balances equals to the stored and reported totals and to the GAS held by
// the contract.
func auditHoldings(h *holdings, reportedTotal, gasBalance *big.Int) error {
	var errs []error

	for id, b := range h.balances {
		if _, ok := h.records[id]; !ok {
			errs = append(errs, fmt.Errorf("balance of unknown vault %s", address.Uint160ToString(id)))
		}
		if b.Sign() <= 0 {
			errs = append(errs, fmt.Errorf("non-positive balance %s of vault %s", b, address.Uint160ToString(id)))
		}
	}

	sum := h.sum()
	for _, c := range []struct {
		name  string
		value *big.Int
	}{
		{"stored total", h.total},
		{"reported total", reportedTotal},
		{"contract GAS balance", gasBalance},
	} {
		if c.value.Cmp(sum) != 0 {
			errs = append(errs, fmt.Errorf("%s %s differs from the sum of vault balances %s", c.name, c.value, sum))
		}
	}

	if len(errs) != 0 {
		return fmt.Errorf("%w: %w", errHoldingsMismatch, errors.Join(errs...))
	}

	return nil
}
