// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"

	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/tx"
)

func TestReceiptEncoding(t *testing.T) {
	logs := []*tx.Log{{
		Address: brc.BytesToAddress([]byte("contract")),
		Topics:  []brc.Bytes32{brc.Keccak256([]byte("topic"))},
		Data:    []byte("data"),
	}}

	// post-state receipt
	root := brc.Keccak256([]byte("root"))
	r := tx.NewPostStateReceipt(root, 21000, logs)

	data, err := rlp.EncodeToBytes(r)
	assert.Nil(t, err)

	var decoded tx.Receipt
	assert.Nil(t, rlp.DecodeBytes(data, &decoded))
	assert.Equal(t, root, decoded.PostState)
	assert.Equal(t, uint64(21000), decoded.CumulativeGasUsed)
	assert.Len(t, decoded.Logs, 1)
	assert.Equal(t, logs[0].Data, decoded.Logs[0].Data)

	// status receipts
	for _, ok := range []bool{true, false} {
		r := tx.NewStatusReceipt(ok, 5000, nil)
		data, err := rlp.EncodeToBytes(r)
		assert.Nil(t, err)

		var decoded tx.Receipt
		assert.Nil(t, rlp.DecodeBytes(data, &decoded))
		assert.True(t, decoded.PostState.IsZero())
		if ok {
			assert.Equal(t, tx.ReceiptStatusSuccessful, decoded.Status)
		} else {
			assert.Equal(t, tx.ReceiptStatusFailed, decoded.Status)
		}
	}
}
