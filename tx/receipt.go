// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/brcdchain/brcd/brc"
)

const (
	// ReceiptStatusFailed is the status code of a transaction if execution failed.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status code of a transaction if execution succeeded.
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt represents the results of a transaction.
//
// Depending on the fork in effect at execution time it carries either the
// intermediate post-transaction state root, or a boolean status code.
type Receipt struct {
	// intermediate state root; zero when the receipt is in status mode
	PostState brc.Bytes32
	// execution status; meaningful only when PostState is zero
	Status uint64
	// gas used by the block up to and including this tx
	CumulativeGasUsed uint64
	// logs produced
	Logs []*Log
}

// NewPostStateReceipt creates a pre-fork receipt carrying the state root.
func NewPostStateReceipt(root brc.Bytes32, cumulativeGasUsed uint64, logs []*Log) *Receipt {
	return &Receipt{PostState: root, CumulativeGasUsed: cumulativeGasUsed, Logs: logs}
}

// NewStatusReceipt creates a post-fork receipt carrying a status code.
func NewStatusReceipt(ok bool, cumulativeGasUsed uint64, logs []*Log) *Receipt {
	status := ReceiptStatusFailed
	if ok {
		status = ReceiptStatusSuccessful
	}
	return &Receipt{Status: status, CumulativeGasUsed: cumulativeGasUsed, Logs: logs}
}

// statusEncoding returns the wire form of the first receipt field, which is
// the post state root when present and the status code otherwise.
func (r *Receipt) statusEncoding() []byte {
	if !r.PostState.IsZero() {
		return r.PostState.Bytes()
	}
	if r.Status == ReceiptStatusFailed {
		return nil
	}
	return []byte{0x01}
}

// EncodeRLP implements rlp.Encoder.
func (r *Receipt) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []interface{}{
		r.statusEncoding(),
		r.CumulativeGasUsed,
		r.Logs,
	})
}

// DecodeRLP implements rlp.Decoder.
func (r *Receipt) DecodeRLP(s *rlp.Stream) error {
	var raw struct {
		PostStateOrStatus []byte
		CumulativeGasUsed uint64
		Logs              []*Log
	}
	if err := s.Decode(&raw); err != nil {
		return err
	}
	switch len(raw.PostStateOrStatus) {
	case 32:
		r.PostState = brc.BytesToBytes32(raw.PostStateOrStatus)
		r.Status = 0
	case 1:
		if raw.PostStateOrStatus[0] != 0x01 {
			return fmt.Errorf("invalid receipt status %x", raw.PostStateOrStatus)
		}
		r.PostState = brc.Bytes32{}
		r.Status = ReceiptStatusSuccessful
	case 0:
		r.PostState = brc.Bytes32{}
		r.Status = ReceiptStatusFailed
	default:
		return fmt.Errorf("invalid receipt status or post state %x", raw.PostStateOrStatus)
	}
	r.CumulativeGasUsed = raw.CumulativeGasUsed
	r.Logs = raw.Logs
	return nil
}
