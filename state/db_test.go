// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/lvldb"
)

func TestOpenDB(t *testing.T) {
	base := t.TempDir()
	genesis := brc.Keccak256([]byte("genesis"))

	db, err := OpenDB(base, genesis, false, lvldb.Options{})
	assert.Nil(t, err)

	// the db lives under <base>/<hex(genesis[0:4])>/<version>/state
	matches, _ := filepath.Glob(filepath.Join(base, "*", "1", "state"))
	assert.Len(t, matches, 1)

	// a second open of the same path conflicts with the held lock
	_, err = OpenDB(base, genesis, false, lvldb.Options{})
	assert.Equal(t, ErrDatabaseAlreadyOpen, errors.Cause(err))

	assert.Nil(t, db.Close())

	// reopens fine after close
	db, err = OpenDB(base, genesis, false, lvldb.Options{})
	assert.Nil(t, err)
	assert.Nil(t, db.Close())
}

func TestOpenDBKillExisting(t *testing.T) {
	base := t.TempDir()
	genesis := brc.Keccak256([]byte("genesis"))

	// seed the legacy state dir that the kill option wipes
	stale := filepath.Join(base, "state")
	assert.Nil(t, os.MkdirAll(stale, 0700))
	assert.Nil(t, os.WriteFile(filepath.Join(stale, "junk"), []byte("x"), 0600))

	db, err := OpenDB(base, genesis, true, lvldb.Options{})
	assert.Nil(t, err)
	defer db.Close()

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}
