package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/neo"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
)

// HasUpdateAccess returns true if contract can be updated.
func HasUpdateAccess() bool {
	return runtime.CheckWitness(CommitteeAddress())
}

// CommitteeAddress returns multi address of the current committee with
// `M = N/2+1` signatures required.
func CommitteeAddress() []byte {
	committee := neo.GetCommittee()

	keys := []interop.PublicKey{}
	for _, key := range committee {
		keys = append(keys, key)
	}

	return contract.CreateMultisigAccount(len(keys)/2+1, keys)
}
