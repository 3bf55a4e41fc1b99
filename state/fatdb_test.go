// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/lvldb"
	"github.com/brcdchain/brcd/overlaydb"
)

func TestFatDBDisabled(t *testing.T) {
	kvs, _ := lvldb.NewMem()
	db := overlaydb.New(kvs, 0)
	s, err := New(db, brc.Bytes32{}, &Config{StartNonce: new(uint256.Int)})
	assert.Nil(t, err)

	_, err = s.AllAddresses()
	assert.Equal(t, ErrInterfaceNotSupported, errors.Cause(err))

	_, _, err = s.Addresses(brc.Bytes32{}, 10)
	assert.Equal(t, ErrInterfaceNotSupported, errors.Cause(err))

	_, err = s.StorageAll(addr("a"))
	assert.Equal(t, ErrInterfaceNotSupported, errors.Cause(err))
}

func TestAllAddresses(t *testing.T) {
	s := newTestState(t)

	for i := 0; i < 5; i++ {
		assert.Nil(t, s.AddBalance(addr(fmt.Sprintf("addr-%d", i)), uint256.NewInt(uint64(i+1))))
	}
	_, err := s.Commit(KeepEmptyAccounts)
	assert.Nil(t, err)

	// one more, uncommitted
	assert.Nil(t, s.AddBalance(addr("extra"), uint256.NewInt(99)))

	all, err := s.AllAddresses()
	assert.Nil(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, uint256.NewInt(3), all[addr("addr-2")])
	assert.Equal(t, uint256.NewInt(99), all[addr("extra")])
}

func TestAddressesPaging(t *testing.T) {
	s := newTestState(t)

	n := 8
	for i := 0; i < n; i++ {
		assert.Nil(t, s.AddBalance(addr(fmt.Sprintf("addr-%d", i)), uint256.NewInt(1)))
	}
	_, err := s.Commit(KeepEmptyAccounts)
	assert.Nil(t, err)

	// page through the whole address set
	seen := make(map[brc.Bytes32]brc.Address)
	next := brc.Bytes32{}
	for {
		page, nextKey, err := s.Addresses(next, 3)
		assert.Nil(t, err)
		assert.True(t, len(page) <= 3)
		for h, a := range page {
			seen[h] = a
		}
		if nextKey.IsZero() {
			break
		}
		next = nextKey
	}
	assert.Len(t, seen, n)
	for i := 0; i < n; i++ {
		a := addr(fmt.Sprintf("addr-%d", i))
		assert.Equal(t, a, seen[a.Hash()])
	}
}

func TestAddressesMergesDirtyCache(t *testing.T) {
	s := newTestState(t)

	assert.Nil(t, s.AddBalance(addr("committed"), uint256.NewInt(1)))
	_, err := s.Commit(KeepEmptyAccounts)
	assert.Nil(t, err)

	assert.Nil(t, s.AddBalance(addr("pending"), uint256.NewInt(1)))
	assert.Nil(t, s.AddBalance(addr("doomed"), uint256.NewInt(1)))
	assert.Nil(t, s.Kill(addr("doomed")))

	page, _, err := s.Addresses(brc.Bytes32{}, 10)
	assert.Nil(t, err)

	assert.Equal(t, addr("committed"), page[addr("committed").Hash()])
	assert.Equal(t, addr("pending"), page[addr("pending").Hash()])
	_, ok := page[addr("doomed").Hash()]
	assert.False(t, ok)
}

func TestStorageAll(t *testing.T) {
	s := newTestState(t)
	c := addr("contract")

	assert.Nil(t, s.CreateContract(c))
	k1 := brc.BytesToBytes32([]byte("k1"))
	k2 := brc.BytesToBytes32([]byte("k2"))
	assert.Nil(t, s.SetStorage(c, k1, brc.BytesToBytes32([]byte("v1"))))
	_, err := s.Commit(KeepEmptyAccounts)
	assert.Nil(t, err)

	// k2 pending in the overlay, k1 persisted
	assert.Nil(t, s.SetStorage(c, k2, brc.BytesToBytes32([]byte("v2"))))

	all, err := s.StorageAll(c)
	assert.Nil(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, [2]brc.Bytes32{k1, brc.BytesToBytes32([]byte("v1"))}, all[brc.Keccak256(k1[:])])
	assert.Equal(t, [2]brc.Bytes32{k2, brc.BytesToBytes32([]byte("v2"))}, all[brc.Keccak256(k2[:])])

	// overlay deletion shadows the persisted slot
	assert.Nil(t, s.SetStorage(c, k1, brc.Bytes32{}))
	all, err = s.StorageAll(c)
	assert.Nil(t, err)
	assert.Len(t, all, 1)
}
