// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/brcdchain/brcd/brc"
)

// Log is the log emitted by contract execution.
type Log struct {
	// address of the contract that generated the log
	Address brc.Address
	// list of topics provided by the contract
	Topics []brc.Bytes32
	// supplied by the contract, usually ABI-encoded
	Data []byte
}
