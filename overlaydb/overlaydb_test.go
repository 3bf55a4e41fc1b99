// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package overlaydb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brcdchain/brcd/lvldb"
	"github.com/brcdchain/brcd/overlaydb"
)

func TestOverlayDB(t *testing.T) {
	kvs, _ := lvldb.NewMem()
	defer kvs.Close()

	db := overlaydb.New(kvs, 0)

	key := []byte("key")
	value := []byte("value")

	_, err := db.Get(key)
	assert.True(t, db.IsNotFound(err))

	// buffered write is visible through the overlay but not in the store
	assert.Nil(t, db.Put(key, value))
	got, err := db.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, value, got)
	assert.Equal(t, 1, db.Len())

	has, err := kvs.Has(key)
	assert.Nil(t, err)
	assert.False(t, has)

	// commit flushes to the store and resets the buffer
	assert.Nil(t, db.Commit())
	assert.Equal(t, 0, db.Len())

	got, err = kvs.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, value, got)

	// buffered deletion shadows the store
	assert.Nil(t, db.Delete(key))
	_, err = db.Get(key)
	assert.True(t, db.IsNotFound(err))

	assert.Nil(t, db.Commit())
	has, err = kvs.Has(key)
	assert.Nil(t, err)
	assert.False(t, has)
}

func TestOverlayDBHas(t *testing.T) {
	kvs, _ := lvldb.NewMem()
	defer kvs.Close()

	db := overlaydb.New(kvs, 0)

	has, err := db.Has([]byte("nope"))
	assert.Nil(t, err)
	assert.False(t, has)

	assert.Nil(t, db.Put([]byte("yep"), []byte("v")))
	has, err = db.Has([]byte("yep"))
	assert.Nil(t, err)
	assert.True(t, has)
}
