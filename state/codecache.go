// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/cache"
	"github.com/brcdchain/brcd/overlaydb"
)

// Code bytes and sizes are cached process-wide. Both caches are keyed by code
// hash, so entries stay valid across roots and never need invalidation on
// SetRoot.
var (
	codeCache, _     = cache.NewLRU(512)
	codeSizeCache, _ = cache.NewLRU(4096)
)

func cacheCode(codeHash brc.Bytes32, code []byte) {
	codeCache.Add(codeHash, code)
	codeSizeCache.Add(codeHash, len(code))
}

func loadCode(db *overlaydb.OverlayDB, codeHash brc.Bytes32) ([]byte, error) {
	code, err := codeCache.GetOrLoad(codeHash, func(interface{}) (interface{}, error) {
		code, err := db.Get(codeHash[:])
		if err != nil {
			return nil, err
		}
		codeSizeCache.Add(codeHash, len(code))
		return code, nil
	})
	if err != nil {
		return nil, err
	}
	return code.([]byte), nil
}

func loadCodeSize(db *overlaydb.OverlayDB, codeHash brc.Bytes32) (int, error) {
	size, err := codeSizeCache.GetOrLoad(codeHash, func(interface{}) (interface{}, error) {
		code, err := loadCode(db, codeHash)
		if err != nil {
			return nil, err
		}
		return len(code), nil
	})
	if err != nil {
		return 0, err
	}
	return size.(int), nil
}
