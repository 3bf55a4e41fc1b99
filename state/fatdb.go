// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"

	"github.com/holiman/uint256"

	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/trie"
)

// Whole-database enumeration. These interfaces walk the accounts trie, which
// is only possible when the fat-db switch is on; otherwise they fail with
// ErrInterfaceNotSupported.

// AllAddresses returns the balances of every account, merging the committed
// trie with live cache entries.
func (s *State) AllAddresses() (map[brc.Address]*uint256.Int, error) {
	if !s.conf.FatDB {
		return nil, errors.WithMessage(ErrInterfaceNotSupported, "state.AllAddresses()")
	}

	ret := make(map[brc.Address]*uint256.Int)

	it := s.trie.NewIterator(nil)
	for it.Next() {
		preimage := s.trie.GetKey(it.Key)
		if len(preimage) != brc.AddressLength {
			continue
		}
		addr := brc.BytesToAddress(preimage)
		if _, ok := s.cache[addr]; ok {
			continue
		}
		a, err := decodeAccount(it.Value)
		if err != nil {
			return nil, &Error{err}
		}
		ret[addr] = a.Balance()
	}
	if it.Err != nil {
		return nil, &Error{it.Err}
	}

	for addr, a := range s.cache {
		if a.alive {
			ret[addr] = a.Balance()
		}
	}
	return ret, nil
}

// Addresses returns up to maxResults accounts whose hashed address is not
// less than beginHash, keyed by hashed address, merging trie iteration with
// dirty cache entries. The second return value is the hash to resume the next
// page from; it is zero when the enumeration is complete.
func (s *State) Addresses(beginHash brc.Bytes32, maxResults int) (map[brc.Bytes32]brc.Address, brc.Bytes32, error) {
	if !s.conf.FatDB {
		return nil, brc.Bytes32{}, errors.WithMessage(ErrInterfaceNotSupported, "state.Addresses()")
	}

	addresses := make(map[brc.Bytes32]brc.Address)
	var nextKey brc.Bytes32

	it := s.trie.NewIterator(beginHash[:])
	for it.Next() {
		hashed := brc.BytesToBytes32(it.Key)

		preimage := s.trie.GetKey(it.Key)
		if len(preimage) != brc.AddressLength {
			continue
		}
		addr := brc.BytesToAddress(preimage)

		// skip if deleted in cache
		if a, ok := s.cache[addr]; ok && a.dirty && !a.alive {
			continue
		}

		// break when maxResults fetched
		if len(addresses) == maxResults {
			nextKey = hashed
			break
		}
		addresses[hashed] = addr
	}
	if it.Err != nil {
		return nil, brc.Bytes32{}, &Error{it.Err}
	}

	// merge dirty cache entries with hash >= beginHash (both new and old
	// touched accounts, they cannot be distinguished here)
	for addr, a := range s.cache {
		if a.dirty && a.alive {
			hashed := addr.Hash()
			if bytes.Compare(hashed[:], beginHash[:]) >= 0 {
				addresses[hashed] = addr
			}
		}
	}

	// if new accounts were created in cache, fewer results must be returned
	if len(addresses) > maxResults {
		hashes := make([]brc.Bytes32, 0, len(addresses))
		for h := range addresses {
			hashes = append(hashes, h)
		}
		sort.Slice(hashes, func(i, j int) bool {
			return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
		})
		nextKey = hashes[maxResults]
		for _, h := range hashes[maxResults:] {
			delete(addresses, h)
		}
	}

	return addresses, nextKey, nil
}

// StorageAll returns the whole merged storage of addr: the persisted sub-trie
// shadowed by the pending overlay, keyed by hashed storage key.
func (s *State) StorageAll(addr brc.Address) (map[brc.Bytes32][2]brc.Bytes32, error) {
	if !s.conf.FatDB {
		return nil, errors.WithMessage(ErrInterfaceNotSupported, "state.StorageAll()")
	}

	a, err := s.account(addr)
	if err != nil || a == nil {
		return nil, err
	}

	ret := make(map[brc.Bytes32][2]brc.Bytes32)

	if !a.storageRoot.IsZero() && a.storageRoot != brc.EmptyTrieRoot {
		st, err := trie.NewSecure(a.storageRoot, s.db)
		if err != nil {
			return nil, &Error{err}
		}
		it := st.NewIterator(nil)
		for it.Next() {
			hashedKey := brc.BytesToBytes32(it.Key)
			key := brc.BytesToBytes32(st.GetKey(it.Key))
			value, err := decodeStorageValue(it.Value)
			if err != nil {
				return nil, &Error{err}
			}
			ret[hashedKey] = [2]brc.Bytes32{key, value}
		}
		if it.Err != nil {
			return nil, &Error{it.Err}
		}
	}

	// merge cached storage over the top
	for key, value := range a.storageOverlay {
		hashedKey := brc.Keccak256(key[:])
		if value.IsZero() {
			delete(ret, hashedKey)
		} else {
			ret[hashedKey] = [2]brc.Bytes32{key, value}
		}
	}
	return ret, nil
}
