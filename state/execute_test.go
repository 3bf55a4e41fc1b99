// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/tx"
)

func TestExecuteCommitted(t *testing.T) {
	s := newTestState(t)
	a, b := addr("a"), addr("b")
	assert.Nil(t, s.AddBalance(a, uint256.NewInt(1000)))
	_, err := s.Commit(KeepEmptyAccounts)
	assert.Nil(t, err)

	transfer := ExecutiveFunc(func() (*ExecOutput, error) {
		if err := s.SubBalance(a, uint256.NewInt(300)); err != nil {
			return nil, err
		}
		if err := s.AddBalance(b, uint256.NewInt(300)); err != nil {
			return nil, err
		}
		return &ExecOutput{Status: true, GasUsed: 21000}, nil
	})

	receipt, err := s.ExecuteTransaction(
		&EnvInfo{Number: 10, GasUsed: 1000},
		brc.ForkConfig{EmptyRemoval: 0, StatusReceipt: 0},
		transfer,
		PermanenceCommitted,
	)
	assert.Nil(t, err)
	assert.True(t, receipt.PostState.IsZero())
	assert.Equal(t, tx.ReceiptStatusSuccessful, receipt.Status)
	assert.Equal(t, uint64(22000), receipt.CumulativeGasUsed)

	// committed for real
	assert.Equal(t, M(uint256.NewInt(700), nil), M(s.GetBalance(a)))
	assert.Equal(t, M(uint256.NewInt(300), nil), M(s.GetBalance(b)))
	assert.NotEqual(t, brc.EmptyTrieRoot, s.RootHash())
}

func TestExecutePreForkReceipt(t *testing.T) {
	s := newTestState(t)
	a := addr("a")

	run := ExecutiveFunc(func() (*ExecOutput, error) {
		if err := s.AddBalance(a, uint256.NewInt(5)); err != nil {
			return nil, err
		}
		return &ExecOutput{Status: true, GasUsed: 100}, nil
	})

	// before the status-receipt fork, receipts carry the post-state root
	receipt, err := s.ExecuteTransaction(
		&EnvInfo{Number: 10},
		brc.ForkConfig{EmptyRemoval: 0, StatusReceipt: math.MaxUint32},
		run,
		PermanenceCommitted,
	)
	assert.Nil(t, err)
	assert.False(t, receipt.PostState.IsZero())
	assert.Equal(t, s.RootHash(), receipt.PostState)
}

func TestExecuteError(t *testing.T) {
	s := newTestState(t)
	a := addr("a")
	assert.Nil(t, s.AddBalance(a, uint256.NewInt(100)))

	fail := ExecutiveFunc(func() (*ExecOutput, error) {
		if err := s.AddBalance(a, uint256.NewInt(999)); err != nil {
			return nil, err
		}
		return nil, errors.New("vm internal fault")
	})

	_, err := s.ExecuteTransaction(&EnvInfo{Number: 1}, brc.NoFork, fail, PermanenceCommitted)
	assert.Error(t, err)

	// rolled back to the savepoint, the view stays usable
	assert.Equal(t, M(uint256.NewInt(100), nil), M(s.GetBalance(a)))
}

func TestExecuteReverted(t *testing.T) {
	s := newTestState(t)
	a := addr("a")
	assert.Nil(t, s.AddBalance(a, uint256.NewInt(100)))
	root, err := s.Commit(KeepEmptyAccounts)
	assert.Nil(t, err)

	run := ExecutiveFunc(func() (*ExecOutput, error) {
		if err := s.AddBalance(a, uint256.NewInt(999)); err != nil {
			return nil, err
		}
		return &ExecOutput{Status: false, GasUsed: 10}, nil
	})

	receipt, err := s.ExecuteTransaction(&EnvInfo{Number: 1}, brc.ForkConfig{EmptyRemoval: 0, StatusReceipt: 0}, run, PermanenceReverted)
	assert.Nil(t, err)
	assert.Equal(t, tx.ReceiptStatusFailed, receipt.Status)

	// uncommitted changes are gone, the trie is untouched
	assert.Equal(t, M(uint256.NewInt(100), nil), M(s.GetBalance(a)))
	assert.Equal(t, root, s.RootHash())
}

func TestExecuteUncommitted(t *testing.T) {
	s := newTestState(t)
	a := addr("a")
	assert.Nil(t, s.AddBalance(a, uint256.NewInt(100)))
	root, err := s.Commit(KeepEmptyAccounts)
	assert.Nil(t, err)

	run := ExecutiveFunc(func() (*ExecOutput, error) {
		if err := s.AddBalance(a, uint256.NewInt(11)); err != nil {
			return nil, err
		}
		return &ExecOutput{Status: true, GasUsed: 10}, nil
	})

	_, err = s.ExecuteTransaction(&EnvInfo{Number: 1}, brc.ForkConfig{EmptyRemoval: 0, StatusReceipt: 0}, run, PermanenceUncommitted)
	assert.Nil(t, err)

	// the cache keeps the change, the trie does not yet
	assert.Equal(t, M(uint256.NewInt(111), nil), M(s.GetBalance(a)))
	assert.Equal(t, root, s.RootHash())
}

func TestExecuteEmptyRemovalGate(t *testing.T) {
	run := func(t *testing.T, number uint32, fork uint32) bool {
		s := newTestState(t)
		ghost := addr("ghost")

		touch := ExecutiveFunc(func() (*ExecOutput, error) {
			if err := s.AddBalance(ghost, new(uint256.Int)); err != nil {
				return nil, err
			}
			return &ExecOutput{Status: true}, nil
		})
		_, err := s.ExecuteTransaction(
			&EnvInfo{Number: number},
			brc.ForkConfig{EmptyRemoval: fork, StatusReceipt: 0},
			touch,
			PermanenceCommitted,
		)
		assert.Nil(t, err)
		inUse, err := s.AddressInUse(ghost)
		assert.Nil(t, err)
		return inUse
	}

	// before the fork empty accounts survive, after it they collapse
	assert.True(t, run(t, 5, 10))
	assert.False(t, run(t, 10, 10))
}
