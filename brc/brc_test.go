// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package brc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brcdchain/brcd/brc"
)

func TestAddress(t *testing.T) {
	addr := brc.BytesToAddress([]byte("account1"))
	parsed, err := brc.ParseAddress(addr.String())
	assert.Nil(t, err)
	assert.Equal(t, addr, parsed)

	_, err = brc.ParseAddress("0x123")
	assert.Error(t, err)

	assert.True(t, brc.Address{}.IsZero())
	assert.False(t, addr.IsZero())
}

func TestBytes32(t *testing.T) {
	b := brc.BytesToBytes32([]byte("bytes32"))
	parsed, err := brc.ParseBytes32(b.String())
	assert.Nil(t, err)
	assert.Equal(t, b, parsed)

	assert.True(t, brc.Bytes32{}.IsZero())
}

func TestKeccak256(t *testing.T) {
	// well-known keccak256 of empty input
	assert.Equal(t,
		brc.MustParseBytes32("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		brc.Keccak256(nil))
	assert.Equal(t, brc.EmptyCodeHash, brc.Keccak256())

	// split input hashes the same as the whole
	assert.Equal(t, brc.Keccak256([]byte("hello"), []byte("world")), brc.Keccak256([]byte("helloworld")))
}
