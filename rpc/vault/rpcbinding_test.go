package vault

import (
	"errors"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/vault-contract/contracts/vault/vaultconst"
	"github.com/stretchr/testify/require"
)

type testAct struct {
	err error
	res *result.Invoke
	tx  *transaction.Transaction
	txh util.Uint256
	vub uint32

	traversed [][]stackitem.Item
	closed    []uuid.UUID

	method string
	params []any
}

func (t *testAct) Call(contract util.Uint160, method string, params ...any) (*result.Invoke, error) {
	t.method, t.params = method, params
	return t.res, t.err
}

func (t *testAct) CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error) {
	t.method, t.params = method, params
	return t.res, t.err
}

func (t *testAct) TerminateSession(sessionID uuid.UUID) error {
	t.closed = append(t.closed, sessionID)
	return nil
}

func (t *testAct) TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error) {
	if len(t.traversed) == 0 {
		return nil, t.err
	}
	page := t.traversed[0]
	t.traversed = t.traversed[1:]
	return page, nil
}

func (t *testAct) MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error) {
	t.method, t.params = method, params
	return t.tx, t.err
}

func (t *testAct) MakeRun(script []byte) (*transaction.Transaction, error) {
	return t.tx, t.err
}

func (t *testAct) MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error) {
	t.method, t.params = method, params
	return t.tx, t.err
}

func (t *testAct) MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error) {
	return t.tx, t.err
}

func (t *testAct) SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error) {
	t.method, t.params = method, params
	return t.txh, t.vub, t.err
}

func (t *testAct) SendRun(script []byte) (util.Uint256, uint32, error) {
	return t.txh, t.vub, t.err
}

func halt(items ...stackitem.Item) *result.Invoke {
	return &result.Invoke{State: "HALT", Stack: items}
}

func recordItem(owner util.Uint160) stackitem.Item {
	return stackitem.NewStruct([]stackitem.Item{stackitem.NewByteArray(owner.BytesBE())})
}

func entryItem(id, owner util.Uint160) stackitem.Item {
	return stackitem.NewStruct([]stackitem.Item{stackitem.NewByteArray(id.BytesBE()), recordItem(owner)})
}

func TestReader(t *testing.T) {
	ta := new(testAct)
	r := NewReader(ta, util.Uint160{1, 2, 3})
	require.Equal(t, util.Uint160{1, 2, 3}, r.Hash())

	id := util.Uint160{4, 5, 6}
	owner := util.Uint160{7, 8, 9}

	ta.err = errors.New("")
	_, err := r.OwnerOf(id)
	require.Error(t, err)
	_, err = r.BalanceOf(id)
	require.Error(t, err)

	ta.err = nil
	ta.res = halt(stackitem.Make(owner.BytesBE()))
	actual, err := r.OwnerOf(id)
	require.NoError(t, err)
	require.Equal(t, owner, actual)
	require.Equal(t, "ownerOf", ta.method)
	require.Equal(t, []any{id}, ta.params)

	ta.res = halt(stackitem.Make(42))
	balance, err := r.BalanceOf(id)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), balance)

	total, err := r.TotalHeld()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), total)
	require.Equal(t, "totalHeld", ta.method)

	ta.res = halt(stackitem.Make(1000))
	v, err := r.Version()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), v)
}

func TestReader_Entries(t *testing.T) {
	ids := []util.Uint160{{1}, {2}, {3}}
	owner := util.Uint160{9}

	t.Run("session", func(t *testing.T) {
		sess := uuid.New()
		iid := uuid.New()

		ta := &testAct{
			res: &result.Invoke{
				State:   "HALT",
				Session: sess,
				Stack:   []stackitem.Item{stackitem.NewInterop(result.Iterator{ID: &iid})},
			},
			traversed: [][]stackitem.Item{
				{entryItem(ids[0], owner), entryItem(ids[1], owner)},
				{entryItem(ids[2], owner)},
			},
		}

		entries, err := NewReader(ta, util.Uint160{}).Entries(2)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for i := range ids {
			require.Equal(t, ids[i], entries[i].ID)
			require.Equal(t, owner, entries[i].Record.Owner)
		}
		require.Equal(t, []uuid.UUID{sess}, ta.closed)
	})

	t.Run("expanded", func(t *testing.T) {
		ta := &testAct{res: halt(stackitem.NewArray([]stackitem.Item{entryItem(ids[0], owner)}))}

		entries, err := NewReader(ta, util.Uint160{}).Entries(0)
		require.NoError(t, err)
		require.Equal(t, []Entry{{ID: ids[0], Record: Record{Owner: owner}}}, entries)
	})

	t.Run("invalid entry", func(t *testing.T) {
		ta := &testAct{res: halt(stackitem.NewArray([]stackitem.Item{stackitem.Make(1)}))}

		_, err := NewReader(ta, util.Uint160{}).Entries(0)
		require.Error(t, err)
	})
}

func TestContract(t *testing.T) {
	ta := &testAct{txh: util.Uint256{1}, vub: 42, tx: new(transaction.Transaction)}
	c := New(ta, util.Uint160{1, 2, 3})

	id := util.Uint160{4}
	acc := util.Uint160{5}

	h, vub, err := c.InitializeVault(id, acc)
	require.NoError(t, err)
	require.Equal(t, ta.txh, h)
	require.Equal(t, ta.vub, vub)
	require.Equal(t, "initializeVault", ta.method)
	require.Equal(t, []any{id, acc}, ta.params)

	_, _, err = c.Deposit(acc, id, big.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, "deposit", ta.method)
	require.Equal(t, []any{acc, id, big.NewInt(10)}, ta.params)

	tx, err := c.WithdrawTransaction(id, acc, big.NewInt(5))
	require.NoError(t, err)
	require.Equal(t, ta.tx, tx)
	require.Equal(t, "withdraw", ta.method)

	tx, err = c.WithdrawUnsigned(id, acc, big.NewInt(5))
	require.NoError(t, err)
	require.Equal(t, ta.tx, tx)

	ta.err = errors.New("")
	_, _, err = c.Update(nil, nil, nil)
	require.Error(t, err)
	_, err = c.DepositUnsigned(acc, id, big.NewInt(1))
	require.Error(t, err)
}

func TestDecodeRecord(t *testing.T) {
	owner := util.Uint160{1, 2, 3, 4, 5}

	raw, err := stackitem.Serialize(recordItem(owner))
	require.NoError(t, err)
	require.Len(t, raw, vaultconst.RecordSize)

	r, err := DecodeRecord(raw)
	require.NoError(t, err)
	require.Equal(t, owner, r.Owner)

	_, err = DecodeRecord([]byte{0xff})
	require.Error(t, err)

	raw, err = stackitem.Serialize(stackitem.NewStruct([]stackitem.Item{stackitem.Make([]byte{1, 2})}))
	require.NoError(t, err)
	_, err = DecodeRecord(raw)
	require.Error(t, err)
}

func TestEventsFromApplicationLog(t *testing.T) {
	vault := util.Uint160{1}
	acc := util.Uint160{2}

	log := &result.ApplicationLog{
		Executions: []state.Execution{{
			VMState: vmstate.Halt,
			Events: []state.NotificationEvent{
				{Name: "Transfer", Item: stackitem.NewArray(nil)},
				{Name: "Deposit", Item: stackitem.NewArray([]stackitem.Item{
					stackitem.Null{}, stackitem.Make(vault.BytesBE()), stackitem.Make(3),
				})},
				{Name: "Withdraw", Item: stackitem.NewArray([]stackitem.Item{
					stackitem.Make(vault.BytesBE()), stackitem.Make(acc.BytesBE()), stackitem.Make(1),
				})},
				{Name: "Initialize", Item: stackitem.NewArray([]stackitem.Item{
					stackitem.Make(vault.BytesBE()), stackitem.Make(acc.BytesBE()),
				})},
			},
		}},
	}

	deposits, err := DepositEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Equal(t, []*DepositEvent{{Vault: vault, Amount: big.NewInt(3)}}, deposits)

	withdrawals, err := WithdrawEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Equal(t, []*WithdrawEvent{{Vault: vault, To: acc, Amount: big.NewInt(1)}}, withdrawals)

	inits, err := InitializeEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Equal(t, []*InitializeEvent{{Vault: vault, Owner: acc}}, inits)

	_, err = DepositEventsFromApplicationLog(nil)
	require.Error(t, err)

	log.Executions[0].Events[1].Item = stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})
	_, err = DepositEventsFromApplicationLog(log)
	require.Error(t, err)
}
