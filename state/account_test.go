// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/brcdchain/brcd/brc"
)

func M(a ...interface{}) []interface{} {
	return a
}

func TestAccountEmpty(t *testing.T) {
	a := newAccount(new(uint256.Int), new(uint256.Int))
	assert.True(t, a.IsEmpty(), "freshly constructed account should be empty")

	a = newAccount(uint256.NewInt(1), new(uint256.Int))
	assert.False(t, a.IsEmpty())

	a = newAccount(new(uint256.Int), uint256.NewInt(10))
	assert.False(t, a.IsEmpty())

	a = newAccount(new(uint256.Int), new(uint256.Int))
	a.addBRC(uint256.NewInt(1))
	assert.False(t, a.IsEmpty())

	a = newAccount(new(uint256.Int), new(uint256.Int))
	a.setCode([]byte{0x60})
	assert.False(t, a.IsEmpty())
}

func TestAccountArithmetic(t *testing.T) {
	a := newAccount(new(uint256.Int), new(uint256.Int))

	a.addBalance(uint256.NewInt(100))
	assert.Equal(t, uint256.NewInt(100), a.Balance())
	assert.True(t, a.IsDirty())

	// subtraction is addition of the two's complement
	a.addBalance(new(uint256.Int).Neg(uint256.NewInt(40)))
	assert.Equal(t, uint256.NewInt(60), a.Balance())

	a.incNonce()
	assert.Equal(t, uint256.NewInt(1), a.Nonce())
}

func TestAccountVoteLedger(t *testing.T) {
	a := newAccount(new(uint256.Int), new(uint256.Int))
	r1 := brc.BytesToAddress([]byte("r1"))
	r2 := brc.BytesToAddress([]byte("r2"))

	a.addVote(r1, uint256.NewInt(30))
	a.addVote(r2, uint256.NewInt(12))
	assert.Equal(t, uint256.NewInt(30), a.voteFor(r1))
	assert.Equal(t, uint256.NewInt(42), a.voteAll())

	// entries that drop back to zero are pruned
	a.addVote(r1, new(uint256.Int).Neg(uint256.NewInt(30)))
	assert.Equal(t, new(uint256.Int), a.voteFor(r1))
	assert.Len(t, a.voteLedger, 1)
}

func TestAccountCodec(t *testing.T) {
	a := newAccount(uint256.NewInt(7), uint256.NewInt(1000))
	a.addBRC(uint256.NewInt(55))
	a.addFBRC(uint256.NewInt(5))
	a.addFBalance(uint256.NewInt(6))
	a.addBallot(uint256.NewInt(20))
	a.addPoll(uint256.NewInt(3))
	a.addVote(brc.BytesToAddress([]byte("receiver1")), uint256.NewInt(11))
	a.addVote(brc.BytesToAddress([]byte("receiver2")), uint256.NewInt(9))

	data, err := encodeAccount(a)
	assert.Nil(t, err)

	decoded, err := decodeAccount(data)
	assert.Nil(t, err)

	assert.Equal(t, a.Nonce(), decoded.Nonce())
	assert.Equal(t, a.Balance(), decoded.Balance())
	assert.Equal(t, a.BRC(), decoded.BRC())
	assert.Equal(t, a.FBRC(), decoded.FBRC())
	assert.Equal(t, a.FBalance(), decoded.FBalance())
	assert.Equal(t, a.Ballot(), decoded.Ballot())
	assert.Equal(t, a.Poll(), decoded.Poll())
	assert.Equal(t, a.CodeHash(), decoded.CodeHash())
	assert.Equal(t, brc.EmptyTrieRoot, decoded.StorageRoot())
	assert.Equal(t, a.voteAll(), decoded.voteAll())
	assert.Equal(t, a.voteFor(brc.BytesToAddress([]byte("receiver1"))), decoded.voteFor(brc.BytesToAddress([]byte("receiver1"))))
	assert.True(t, decoded.alive)
	assert.False(t, decoded.dirty)

	// the encoding is canonical regardless of ledger iteration order
	data2, err := encodeAccount(a)
	assert.Nil(t, err)
	assert.Equal(t, data, data2)
}

func TestStorageValueCodec(t *testing.T) {
	value := brc.BytesToBytes32([]byte("val"))
	data, err := encodeStorageValue(value)
	assert.Nil(t, err)

	decoded, err := decodeStorageValue(data)
	assert.Nil(t, err)
	assert.Equal(t, value, decoded)

	// zero encodes to nothing
	data, err = encodeStorageValue(brc.Bytes32{})
	assert.Nil(t, err)
	assert.Nil(t, data)

	decoded, err = decodeStorageValue(nil)
	assert.Nil(t, err)
	assert.Equal(t, brc.Bytes32{}, decoded)
}
