// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package brc

// Constants of the chain.
const (
	// DatabaseVersion version of the on-disk state schema. It is part of the
	// state database path, so incompatible layouts never collide.
	DatabaseVersion uint32 = 1

	// BallotPriceUint amount of BRC one ballot costs.
	BallotPriceUint uint64 = 1000
)

var (
	// EmptyCodeHash keccak256 hash of the empty byte string. Accounts without
	// code carry this hash.
	EmptyCodeHash = Keccak256(nil)

	// EmptyTrieRoot root hash of an empty merkle patricia trie.
	EmptyTrieRoot = MustParseBytes32("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
)
