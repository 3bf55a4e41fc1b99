// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the world state of the chain: the account database
// that backs transaction execution.
//
// It layers a mutable account cache over the authenticated accounts trie:
//
//	            o
//	            |
//	      [ State view ]
//	            |
//	     [ change log ] -> savepoint / rollback
//	            |
//	    [ account cache ] -> random eviction of clean entries
//	            |
//	     [ secure trie ]
//	            |
//	     [ overlay db ] -> flushed in one batch
//	            |
//	      [ kv store ]
//
// Executors mutate accounts through the view; every mutator except Kill
// records a reverse operation into the change log, so any sub-sequence of
// those mutations can be unwound. At commit, dirty cache entries are folded into the trie and the
// root hash fingerprints the whole state.
package state
