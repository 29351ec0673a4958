package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
)

var (
	// ErrOwnerWitnessFailed appears when the method must be called
	// by an owner of some assets but was not.
	ErrOwnerWitnessFailed = "owner witness check failed"
	// ErrWitnessFailed appears when the method must be called
	// by a certain account but was not.
	ErrWitnessFailed = "witness check failed"
	// ErrInvalidAddress appears when an account argument is not a valid
	// 20-byte script hash.
	ErrInvalidAddress = "invalid address length"
)

// CheckOwnerWitness checks witness of the passed caller.
// It panics with ErrOwnerWitnessFailed message on fail.
func CheckOwnerWitness(caller []byte) {
	checkWitnessWithPanic(caller, ErrOwnerWitnessFailed)
}

// CheckWitness checks witness of the passed caller.
// It panics with ErrWitnessFailed message on fail.
func CheckWitness(caller []byte) {
	checkWitnessWithPanic(caller, ErrWitnessFailed)
}

// CheckAddress panics with ErrInvalidAddress if addr is not a script hash.
func CheckAddress(addr interop.Hash160) {
	if len(addr) != interop.Hash160Len {
		panic(ErrInvalidAddress)
	}
}

func checkWitnessWithPanic(caller []byte, panicMsg string) {
	if !runtime.CheckWitness(caller) {
		panic(panicMsg)
	}
}
