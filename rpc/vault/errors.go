package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/vault-contract/common"
	"github.com/nspcc-dev/vault-contract/contracts/vault/vaultconst"
)

// Errors returned by the contract methods.
var (
	ErrInsufficientFunds = errors.New(vaultconst.ErrInsufficientFunds)
	ErrAccountInUse      = errors.New(vaultconst.ErrAccountInUse)
	ErrVaultNotFound     = errors.New(vaultconst.ErrVaultNotFound)
	ErrTransferFailed    = errors.New(vaultconst.ErrTransferFailed)
	ErrNotOwner          = errors.New(vaultconst.ErrNotOwner)
	ErrNegativeAmount    = errors.New(vaultconst.ErrNegativeAmount)
	ErrOnlyGAS           = errors.New(vaultconst.ErrOnlyGAS)
	ErrInvalidAddress    = errors.New(common.ErrInvalidAddress)
	ErrOwnerWitness      = errors.New(common.ErrOwnerWitnessFailed)
	ErrWitness           = errors.New(common.ErrWitnessFailed)
)

// ErrExecutionFault is returned for FAULT executions with an exception the
// contract does not throw itself, e.g. lack of GAS for fees.
var ErrExecutionFault = errors.New("execution fault")

// faults is ordered so that no message is a substring of a message placed
// after it.
var faults = []error{
	ErrOwnerWitness,
	ErrWitness,
	ErrInsufficientFunds,
	ErrAccountInUse,
	ErrVaultNotFound,
	ErrTransferFailed,
	ErrNotOwner,
	ErrNegativeAmount,
	ErrOnlyGAS,
	ErrInvalidAddress,
}

// ParseFault maps VM fault exception to one of the contract errors. The
// returned error keeps the original exception text.
func ParseFault(exception string) error {
	for _, err := range faults {
		if strings.Contains(exception, err.Error()) {
			return fmt.Errorf("%w: %s", err, exception)
		}
	}

	return fmt.Errorf("%w: %s", ErrExecutionFault, exception)
}

// CheckExecution returns nil for HALT executions and the contract error
// otherwise.
func CheckExecution(aer *state.AppExecResult) error {
	if aer == nil {
		return errors.New("nil execution result")
	}
	if aer.VMState == vmstate.Halt {
		return nil
	}

	return ParseFault(aer.FaultException)
}
