// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"github.com/brcdchain/brcd/brc"
)

// securePreimagePrefix prefixes keccak preimage records in the database.
var securePreimagePrefix = []byte("secure-key-")

// SecureTrie wraps a trie with key hashing. In a secure trie, all access
// operations hash the key using keccak256. This prevents calling code from
// creating long chains of nodes that increase the access time.
//
// SecureTrie is not safe for concurrent use.
type SecureTrie struct {
	trie        Trie
	db          DatabaseReader
	secKeyCache map[string][]byte
}

// NewSecure creates a secure trie with an existing root node from db.
//
// If root is the zero hash or the hash of an empty trie, the trie is initially
// empty. NewSecure panics if db is nil, whatever the root, and returns
// MissingNodeError if the root node cannot be found.
func NewSecure(root brc.Bytes32, db DatabaseReader) (*SecureTrie, error) {
	if db == nil {
		panic("trie.NewSecure called without a database")
	}
	trie, err := New(root, db)
	if err != nil {
		return nil, err
	}
	return &SecureTrie{trie: *trie, db: db}, nil
}

// Get returns the value for key stored in the trie.
// The value bytes must not be modified by the caller.
func (t *SecureTrie) Get(key []byte) []byte {
	res, err := t.TryGet(key)
	if err != nil {
		panic("unhandled trie error: " + err.Error())
	}
	return res
}

// TryGet returns the value for key stored in the trie.
// The value bytes must not be modified by the caller.
// If a node was not found in the database, a MissingNodeError is returned.
func (t *SecureTrie) TryGet(key []byte) ([]byte, error) {
	return t.trie.TryGet(t.hashKey(key))
}

// Update associates key with value in the trie. Subsequent calls to
// Get will return value. If value has length zero, any existing value
// is deleted from the trie and calls to Get will return nil.
func (t *SecureTrie) Update(key, value []byte) {
	if err := t.TryUpdate(key, value); err != nil {
		panic("unhandled trie error: " + err.Error())
	}
}

// TryUpdate associates key with value in the trie. Subsequent calls to
// Get will return value. If value has length zero, any existing value
// is deleted from the trie and calls to Get will return nil.
//
// If a node was not found in the database, a MissingNodeError is returned.
func (t *SecureTrie) TryUpdate(key, value []byte) error {
	hk := t.hashKey(key)
	if err := t.trie.TryUpdate(hk, value); err != nil {
		return err
	}
	t.getSecKeyCache()[string(hk)] = append([]byte(nil), key...)
	return nil
}

// Delete removes any existing value for key from the trie.
func (t *SecureTrie) Delete(key []byte) {
	if err := t.TryDelete(key); err != nil {
		panic("unhandled trie error: " + err.Error())
	}
}

// TryDelete removes any existing value for key from the trie.
// If a node was not found in the database, a MissingNodeError is returned.
func (t *SecureTrie) TryDelete(key []byte) error {
	hk := t.hashKey(key)
	delete(t.getSecKeyCache(), string(hk))
	return t.trie.TryDelete(hk)
}

// GetKey returns the preimage of a hashed key that was
// previously used to store a value.
func (t *SecureTrie) GetKey(hashedKey []byte) []byte {
	if key, ok := t.getSecKeyCache()[string(hashedKey)]; ok {
		return key
	}
	key, err := t.db.Get(append(securePreimagePrefix, hashedKey...))
	if err != nil {
		return nil
	}
	return key
}

// Hash returns the root hash of the trie. It does not write to the
// database and can be used even if the trie doesn't have one.
func (t *SecureTrie) Hash() brc.Bytes32 {
	return t.trie.Hash()
}

// Commit writes all nodes and the secure hash preimages to the trie's database.
//
// Committing flushes nodes from memory. Subsequent Get calls will load nodes
// from the database.
func (t *SecureTrie) Commit(db DatabaseWriter) (root brc.Bytes32, err error) {
	// Write all the pre-images to the actual disk database
	if len(t.getSecKeyCache()) > 0 {
		for hk, key := range t.secKeyCache {
			if err := db.Put(append(securePreimagePrefix, []byte(hk)...), key); err != nil {
				return brc.Bytes32{}, err
			}
		}
		t.secKeyCache = make(map[string][]byte)
	}
	return t.trie.Commit(db)
}

// NewIterator creates a key-value iterator over the trie, starting at the
// first entry whose HASHED key is not less than start.
// Iterator keys are the hashed keys; use GetKey to recover preimages.
func (t *SecureTrie) NewIterator(start []byte) *Iterator {
	return t.trie.NewIterator(start)
}

// hashKey returns the hash of key.
func (t *SecureTrie) hashKey(key []byte) []byte {
	h := brc.Keccak256(key)
	return h[:]
}

// getSecKeyCache returns the current secure key cache, creating it if absent.
func (t *SecureTrie) getSecKeyCache() map[string][]byte {
	if t.secKeyCache == nil {
		t.secKeyCache = make(map[string][]byte)
	}
	return t.secKeyCache
}
