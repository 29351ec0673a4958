package vault

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/lib/address"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/nspcc-dev/vault-contract/common"
	"github.com/nspcc-dev/vault-contract/contracts/vault/vaultconst"
)

// Vault is a record stored for every initialized vault.
type Vault struct {
	// Account allowed to withdraw from the vault, set once on initialization.
	Owner interop.Hash160
}

// nolint:unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	runtime.Log("vault contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(nefFile, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("vault contract updated")
}

// InitializeVault creates a vault record with the given ID and stamps it
// with authority as the owner. Authority must witness the invocation, it also
// pays for the record storage as a transaction sender.
//
// Vault ID is not required to sign, so any unused ID can be claimed by the
// first invocation. Depositors should check the owner from Initialize
// notification or OwnerOf before sending funds.
//
// It produces Initialize notification. It panics if the vault already exists.
func InitializeVault(vault, authority interop.Hash160) {
	common.CheckAddress(vault)
	common.CheckAddress(authority)
	common.CheckWitness(authority)

	ctx := storage.GetContext()
	key := vaultKey(vault)

	if storage.Get(ctx, key) != nil {
		panic(vaultconst.ErrAccountInUse)
	}

	common.SetSerialized(ctx, key, Vault{Owner: authority})

	runtime.Log("vault initialized")
	runtime.Notify("Initialize", vault, authority)
}

// Deposit transfers amount of GAS from the specified account to the vault.
// Any account can deposit to any vault, but it must witness the invocation.
//
// Funds are moved with GAS transfer, so the vault is credited in
// OnNEP17Payment which produces Deposit notification.
func Deposit(from, vault interop.Hash160, amount int) {
	if amount < 0 {
		panic(vaultconst.ErrNegativeAmount)
	}

	common.CheckAddress(from)
	common.CheckAddress(vault)
	common.CheckWitness(from)

	ctx := storage.GetReadOnlyContext()
	if !vaultExists(ctx, vault) {
		panic(vaultconst.ErrVaultNotFound)
	}

	if gas.BalanceOf(from) < amount {
		panic(vaultconst.ErrInsufficientFunds)
	}

	if !gas.Transfer(from, runtime.GetExecutingScriptHash(), amount, vault) {
		panic(vaultconst.ErrTransferFailed)
	}
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract.
// Data must contain ID of an initialized vault, the vault is credited with
// the received amount.
//
// It produces Deposit notification.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(gas.Hash) {
		panic(vaultconst.ErrOnlyGAS)
	}

	vault := data.(interop.Hash160)
	common.CheckAddress(vault)

	ctx := storage.GetContext()
	if !vaultExists(ctx, vault) {
		panic(vaultconst.ErrVaultNotFound)
	}

	adjust(ctx, vault, amount)

	msg := "deposited " + std.Itoa(amount, 10)
	if len(from) == interop.Hash160Len {
		msg = msg + " from " + address.FromHash160(from)
	}
	runtime.Log(msg)
	runtime.Notify("Deposit", from, vault, amount)
}

// Withdraw transfers amount of GAS from the vault to the specified account.
// The recipient must be the vault owner and must witness the invocation.
//
// Vault balance is decreased before GAS leaves the contract account, failed
// transfer reverts the whole invocation.
//
// It produces Withdraw notification.
func Withdraw(vault, to interop.Hash160, amount int) {
	if amount < 0 {
		panic(vaultconst.ErrNegativeAmount)
	}

	common.CheckAddress(vault)
	common.CheckAddress(to)

	ctx := storage.GetContext()
	v := getVault(ctx, vault)

	if !to.Equals(v.Owner) {
		panic(vaultconst.ErrNotOwner)
	}
	common.CheckOwnerWitness(to)

	if common.GetInt(ctx, balanceKey(vault)) < amount {
		panic(vaultconst.ErrInsufficientFunds)
	}

	adjust(ctx, vault, -amount)

	if !gas.Transfer(runtime.GetExecutingScriptHash(), to, amount, nil) {
		panic(vaultconst.ErrTransferFailed)
	}

	runtime.Log("withdrawn " + std.Itoa(amount, 10) + " to " + address.FromHash160(to))
	runtime.Notify("Withdraw", vault, to, amount)
}

// OwnerOf returns owner of the specified vault. It panics if the vault is
// not initialized.
func OwnerOf(vault interop.Hash160) interop.Hash160 {
	return getVault(storage.GetReadOnlyContext(), vault).Owner
}

// BalanceOf returns amount of GAS held by the specified vault. Unknown vaults
// hold nothing.
func BalanceOf(vault interop.Hash160) int {
	return common.GetInt(storage.GetReadOnlyContext(), balanceKey(vault))
}

// TotalHeld returns the sum of all vault balances. It always equals to GAS
// balance of the contract.
func TotalHeld() int {
	return common.GetInt(storage.GetReadOnlyContext(), vaultconst.TotalKey)
}

// ListVaults returns iterator over all vaults. Iteration is through key-value
// pair, where key is vault ID, value is Vault structure.
func ListVaults() iterator.Iterator {
	return storage.Find(storage.GetReadOnlyContext(), []byte{vaultconst.VaultPrefix},
		storage.RemovePrefix|storage.DeserializeValues)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// adjust changes vault balance and the total by delta. Callers check that
// the result is not negative.
func adjust(ctx storage.Context, vault interop.Hash160, delta int) {
	key := balanceKey(vault)
	common.PutInt(ctx, key, common.GetInt(ctx, key)+delta)
	common.PutInt(ctx, vaultconst.TotalKey, common.GetInt(ctx, vaultconst.TotalKey)+delta)
}

func getVault(ctx storage.Context, vault interop.Hash160) Vault {
	data := storage.Get(ctx, vaultKey(vault))
	if data == nil {
		panic(vaultconst.ErrVaultNotFound)
	}

	return std.Deserialize(data.([]byte)).(Vault)
}

func vaultExists(ctx storage.Context, vault interop.Hash160) bool {
	return storage.Get(ctx, vaultKey(vault)) != nil
}

func vaultKey(vault interop.Hash160) []byte {
	return append([]byte{vaultconst.VaultPrefix}, vault...)
}

func balanceKey(vault interop.Hash160) []byte {
	return append([]byte{vaultconst.BalancePrefix}, vault...)
}
