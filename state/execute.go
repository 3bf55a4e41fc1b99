// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/tx"
)

// Permanence is the policy applied to the state view after a transaction has
// executed.
type Permanence int

const (
	// PermanenceCommitted commits the cache into the trie.
	PermanenceCommitted Permanence = iota
	// PermanenceUncommitted leaves the cache as-is; the caller commits later.
	PermanenceUncommitted
	// PermanenceReverted drops every uncommitted change.
	PermanenceReverted
)

// EnvInfo describes the block environment a transaction executes in.
type EnvInfo struct {
	// Number is the block number, which gates fork-dependent behavior.
	Number uint32
	// GasUsed is the gas consumed by the block before this transaction.
	GasUsed uint64
}

// ExecOutput is what the execution engine reports back for one transaction.
type ExecOutput struct {
	// Status is true when the VM halted normally, false on exceptional halt.
	Status bool
	// GasUsed is the gas consumed by this transaction.
	GasUsed uint64
	// Logs are the logs emitted during execution.
	Logs []*tx.Log
}

// Executive runs one transaction against a state view. Implementations live
// in the execution engine; the state package only defines the boundary.
type Executive interface {
	Execute() (*ExecOutput, error)
}

// ExecutiveFunc adapts a plain function to the Executive interface.
type ExecutiveFunc func() (*ExecOutput, error)

// Execute implements Executive.
func (f ExecutiveFunc) Execute() (*ExecOutput, error) { return f() }

// ExecuteTransaction drives exec against this state view under a savepoint.
//
// On an execution error the view is rolled back to the savepoint and the
// error is returned; the view stays usable. On success the permanence policy
// is applied and a receipt is built: before the status-receipt fork it
// carries the post-transaction state root, afterwards the status code.
func (s *State) ExecuteTransaction(env *EnvInfo, forks brc.ForkConfig, exec Executive, permanence Permanence) (*tx.Receipt, error) {
	savepoint := s.Savepoint()

	out, err := exec.Execute()
	if err != nil {
		s.RollbackTo(savepoint)
		return nil, err
	}

	switch permanence {
	case PermanenceReverted:
		// drop everything uncommitted, accounts reload from the trie; the
		// whole change log goes too, since it refers to dropped entries
		s.changeLog = nil
		s.cache = make(map[brc.Address]*Account)
		s.cleanEntries = nil
	case PermanenceCommitted:
		behaviour := KeepEmptyAccounts
		if env.Number >= forks.EmptyRemoval {
			behaviour = RemoveEmptyAccounts
		}
		if _, err := s.Commit(behaviour); err != nil {
			return nil, err
		}
	case PermanenceUncommitted:
	}

	cumulativeGas := env.GasUsed + out.GasUsed
	if env.Number >= forks.StatusReceipt {
		return tx.NewStatusReceipt(out.Status, cumulativeGas, out.Logs), nil
	}
	return tx.NewPostStateReceipt(s.RootHash(), cumulativeGas, out.Logs), nil
}
