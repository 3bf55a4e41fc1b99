// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/trie"
)

// CommitBehaviour selects what happens to empty accounts at commit time.
type CommitBehaviour int

const (
	// KeepEmptyAccounts keeps touched empty accounts in the trie.
	KeepEmptyAccounts CommitBehaviour = iota
	// RemoveEmptyAccounts garbage-collects touched empty accounts.
	RemoveEmptyAccounts
)

// removeEmptyAccounts marks every dirty empty account dead, so the flush
// below removes it from the trie.
func (s *State) removeEmptyAccounts() {
	for _, a := range s.cache {
		if a.dirty && a.IsEmpty() {
			a.kill()
		}
	}
}

// Commit flushes every dirty cache entry into the accounts trie, writes the
// trie nodes into the node database and returns the new root. The change log,
// the cache and the clean-entry list are reset.
//
// The resulting root is a pure function of the set of dirty (address, value)
// pairs; flush order does not matter.
func (s *State) Commit(behaviour CommitBehaviour) (brc.Bytes32, error) {
	if behaviour == RemoveEmptyAccounts {
		s.removeEmptyAccounts()
	}

	for addr, a := range s.cache {
		if !a.dirty {
			continue
		}
		if !a.alive {
			if err := s.trie.TryDelete(addr[:]); err != nil {
				return brc.Bytes32{}, &Error{err}
			}
			continue
		}

		// flush pending storage writes into the account's sub-trie
		if len(a.storageOverlay) > 0 {
			base := a.storageRoot
			if base.IsZero() {
				base = brc.EmptyTrieRoot
			}
			st, err := trie.NewSecure(base, s.db)
			if err != nil {
				return brc.Bytes32{}, &Error{err}
			}
			for k, v := range a.storageOverlay {
				data, err := encodeStorageValue(v)
				if err != nil {
					return brc.Bytes32{}, &Error{err}
				}
				if len(data) == 0 {
					err = st.TryDelete(k[:])
				} else {
					err = st.TryUpdate(k[:], data)
				}
				if err != nil {
					return brc.Bytes32{}, &Error{err}
				}
			}
			root, err := st.Commit(s.db)
			if err != nil {
				return brc.Bytes32{}, &Error{err}
			}
			a.storageRoot = root
			a.storageOverlay = nil
		}

		if a.hasNewCode {
			if err := s.db.Put(a.codeHash[:], a.code); err != nil {
				return brc.Bytes32{}, &Error{err}
			}
			cacheCode(a.codeHash, a.code)
			a.hasNewCode = false
		}

		data, err := encodeAccount(a)
		if err != nil {
			return brc.Bytes32{}, &Error{err}
		}
		if err := s.trie.TryUpdate(addr[:], data); err != nil {
			return brc.Bytes32{}, &Error{err}
		}
	}

	root, err := s.trie.Commit(s.db)
	if err != nil {
		return brc.Bytes32{}, &Error{err}
	}

	s.changeLog = nil
	s.cache = make(map[brc.Address]*Account)
	s.cleanEntries = nil
	return root, nil
}
