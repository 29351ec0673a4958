// Package vault contains RPC wrappers for Vault contract.
package vault

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Record is a contract-specific vault.Vault type used by its methods.
type Record struct {
	Owner util.Uint160
}

// Entry is a single item of vault iterator: vault ID and its record.
type Entry struct {
	ID     util.Uint160
	Record Record
}

// InitializeEvent represents "Initialize" event emitted by the contract.
type InitializeEvent struct {
	Vault util.Uint160
	Owner util.Uint160
}

// DepositEvent represents "Deposit" event emitted by the contract.
type DepositEvent struct {
	From   util.Uint160
	Vault  util.Uint160
	Amount *big.Int
}

// WithdrawEvent represents "Withdraw" event emitted by the contract.
type WithdrawEvent struct {
	Vault  util.Uint160
	To     util.Uint160
	Amount *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error)
	TerminateSession(sessionID uuid.UUID) error
	TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// Hash returns hash of the contract.
func (c *ContractReader) Hash() util.Uint160 {
	return c.hash
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// OwnerOf invokes `ownerOf` method of contract.
func (c *ContractReader) OwnerOf(vault util.Uint160) (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "ownerOf", vault))
}

// BalanceOf invokes `balanceOf` method of contract.
func (c *ContractReader) BalanceOf(vault util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "balanceOf", vault))
}

// TotalHeld invokes `totalHeld` method of contract.
func (c *ContractReader) TotalHeld() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "totalHeld"))
}

// ListVaults invokes `listVaults` method of contract.
func (c *ContractReader) ListVaults() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "listVaults"))
}

// ListVaultsExpanded is similar to ListVaults (uses the same contract
// method), but can be useful if the server used doesn't support sessions and
// doesn't expand iterators. It creates a script that will get the specified
// number of result items from the iterator right in the VM and return them to
// you. It's only limited by VM stack and GAS available for RPC invocations.
func (c *ContractReader) ListVaultsExpanded(_numOfIteratorItems int) ([]stackitem.Item, error) {
	return unwrap.Array(c.invoker.CallAndExpandIterator(c.hash, "listVaults", _numOfIteratorItems))
}

// DefaultPageSize is the number of iterator items Entries requests at once
// when no positive page size is given.
const DefaultPageSize = 100

// Entries returns all vaults. It traverses the vault iterator page by page
// when the server supports sessions and falls back to in-VM expansion of up
// to pageSize items otherwise.
func (c *ContractReader) Entries(pageSize int) ([]Entry, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var items []stackitem.Item

	sess, iter, err := c.ListVaults()
	switch {
	case err == nil && iter.ID != nil:
		defer func() { _ = c.invoker.TerminateSession(sess) }()

		for {
			page, err := c.invoker.TraverseIterator(sess, &iter, pageSize)
			if err != nil {
				return nil, fmt.Errorf("traverse vault iterator: %w", err)
			}
			items = append(items, page...)
			if len(page) < pageSize {
				break
			}
		}
	case err == nil:
		items = iter.Values
	default:
		items, err = c.ListVaultsExpanded(pageSize)
		if err != nil {
			return nil, err
		}
	}

	res := make([]Entry, len(items))
	for i := range items {
		if err := res[i].FromStackItem(items[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	return res, nil
}

// InitializeVault creates a transaction invoking `initializeVault` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) InitializeVault(vault util.Uint160, authority util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "initializeVault", vault, authority)
}

// InitializeVaultTransaction creates a transaction invoking `initializeVault` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) InitializeVaultTransaction(vault util.Uint160, authority util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "initializeVault", vault, authority)
}

// InitializeVaultUnsigned creates a transaction invoking `initializeVault` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) InitializeVaultUnsigned(vault util.Uint160, authority util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "initializeVault", nil, vault, authority)
}

// Deposit creates a transaction invoking `deposit` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Deposit(from util.Uint160, vault util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "deposit", from, vault, amount)
}

// DepositTransaction creates a transaction invoking `deposit` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) DepositTransaction(from util.Uint160, vault util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "deposit", from, vault, amount)
}

// DepositUnsigned creates a transaction invoking `deposit` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) DepositUnsigned(from util.Uint160, vault util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "deposit", nil, from, vault, amount)
}

// Withdraw creates a transaction invoking `withdraw` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Withdraw(vault util.Uint160, to util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "withdraw", vault, to, amount)
}

// WithdrawTransaction creates a transaction invoking `withdraw` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) WithdrawTransaction(vault util.Uint160, to util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "withdraw", vault, to, amount)
}

// WithdrawUnsigned creates a transaction invoking `withdraw` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) WithdrawUnsigned(vault util.Uint160, to util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "withdraw", nil, vault, to, amount)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(nefFile []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, nefFile, manifest, data)
}

// DecodeRecord decodes raw vault record as it is kept in the contract
// storage.
func DecodeRecord(raw []byte) (*Record, error) {
	item, err := stackitem.Deserialize(raw)
	if err != nil {
		return nil, fmt.Errorf("deserialize vault record: %w", err)
	}

	var res = new(Record)
	return res, res.FromStackItem(item)
}

// FromStackItem retrieves fields of Record from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *Record) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 1 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	res.Owner, err = uint160FromItem(arr[0])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	return nil
}

// FromStackItem retrieves Entry from the key-value pair produced by the
// vault iterator.
func (res *Entry) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	res.ID, err = uint160FromItem(arr[0])
	if err != nil {
		return fmt.Errorf("field ID: %w", err)
	}

	if err = res.Record.FromStackItem(arr[1]); err != nil {
		return fmt.Errorf("field Record: %w", err)
	}

	return nil
}

// InitializeEventsFromApplicationLog retrieves a set of all emitted events
// with "Initialize" name from the provided [result.ApplicationLog].
func InitializeEventsFromApplicationLog(log *result.ApplicationLog) ([]*InitializeEvent, error) {
	var res []*InitializeEvent
	err := eventsFromApplicationLog(log, "Initialize", func(item *stackitem.Array) error {
		event := new(InitializeEvent)
		if err := event.FromStackItem(item); err != nil {
			return err
		}
		res = append(res, event)
		return nil
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to InitializeEvent or
// returns an error if it's not possible to do to so.
func (e *InitializeEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 2)
	if err != nil {
		return err
	}

	e.Vault, err = uint160FromItem(arr[0])
	if err != nil {
		return fmt.Errorf("field Vault: %w", err)
	}

	e.Owner, err = uint160FromItem(arr[1])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	return nil
}

// DepositEventsFromApplicationLog retrieves a set of all emitted events
// with "Deposit" name from the provided [result.ApplicationLog].
func DepositEventsFromApplicationLog(log *result.ApplicationLog) ([]*DepositEvent, error) {
	var res []*DepositEvent
	err := eventsFromApplicationLog(log, "Deposit", func(item *stackitem.Array) error {
		event := new(DepositEvent)
		if err := event.FromStackItem(item); err != nil {
			return err
		}
		res = append(res, event)
		return nil
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to DepositEvent or
// returns an error if it's not possible to do to so. Minted GAS has no
// sender, From is zero then.
func (e *DepositEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 3)
	if err != nil {
		return err
	}

	if _, ok := arr[0].(stackitem.Null); ok {
		e.From = util.Uint160{}
	} else if e.From, err = uint160FromItem(arr[0]); err != nil {
		return fmt.Errorf("field From: %w", err)
	}

	e.Vault, err = uint160FromItem(arr[1])
	if err != nil {
		return fmt.Errorf("field Vault: %w", err)
	}

	e.Amount, err = arr[2].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

// WithdrawEventsFromApplicationLog retrieves a set of all emitted events
// with "Withdraw" name from the provided [result.ApplicationLog].
func WithdrawEventsFromApplicationLog(log *result.ApplicationLog) ([]*WithdrawEvent, error) {
	var res []*WithdrawEvent
	err := eventsFromApplicationLog(log, "Withdraw", func(item *stackitem.Array) error {
		event := new(WithdrawEvent)
		if err := event.FromStackItem(item); err != nil {
			return err
		}
		res = append(res, event)
		return nil
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to WithdrawEvent or
// returns an error if it's not possible to do to so.
func (e *WithdrawEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 3)
	if err != nil {
		return err
	}

	e.Vault, err = uint160FromItem(arr[0])
	if err != nil {
		return fmt.Errorf("field Vault: %w", err)
	}

	e.To, err = uint160FromItem(arr[1])
	if err != nil {
		return fmt.Errorf("field To: %w", err)
	}

	e.Amount, err = arr[2].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

func eventsFromApplicationLog(log *result.ApplicationLog, name string, f func(*stackitem.Array) error) error {
	if log == nil {
		return errors.New("nil application log")
	}

	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != name {
				continue
			}
			if err := f(e.Item); err != nil {
				return fmt.Errorf("failed to deserialize %sEvent from stackitem (execution #%d, event #%d): %w", name, i, j, err)
			}
		}
	}

	return nil
}

func eventFields(item *stackitem.Array, n int) ([]stackitem.Item, error) {
	if item == nil {
		return nil, errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, errors.New("not an array")
	}
	if len(arr) != n {
		return nil, errors.New("wrong number of structure elements")
	}
	return arr, nil
}

func uint160FromItem(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, err
	}
	return u, nil
}
