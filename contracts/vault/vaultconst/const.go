// Package vaultconst contains Vault contract constants shared between the
// contract and its off-chain users.
package vaultconst

const (
	// ErrInsufficientFunds is thrown when an account holds less than the
	// requested amount.
	ErrInsufficientFunds = "insufficient funds"
	// ErrAccountInUse is thrown on an attempt to initialize an existing vault.
	ErrAccountInUse = "account already in use"
	// ErrVaultNotFound is thrown when the vault is not initialized.
	ErrVaultNotFound = "vault not found"
	// ErrTransferFailed is thrown when GAS contract refuses the transfer.
	ErrTransferFailed = "transfer failed"
	// ErrNotOwner is thrown when the withdrawal recipient is not the owner of
	// the vault.
	ErrNotOwner = "only the vault owner can withdraw"
	// ErrNegativeAmount is thrown for negative transfer amounts.
	ErrNegativeAmount = "negative amount"
	// ErrOnlyGAS is thrown when the contract receives anything but GAS.
	ErrOnlyGAS = "only GAS can be accepted for deposit"
)

// Storage layout of the Vault contract.
const (
	// VaultPrefix precedes vault ID in the key of a serialized vault record.
	VaultPrefix = 'v'
	// BalancePrefix precedes vault ID in the key of a vault balance.
	BalancePrefix = 'b'
	// TotalKey stores the sum of all vault balances.
	TotalKey = "total"

	// RecordSize is the size of a serialized vault record.
	RecordSize = 24
)
