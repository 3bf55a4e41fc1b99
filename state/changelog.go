// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/holiman/uint256"

	"github.com/brcdchain/brcd/brc"
)

// changeKind tags a change log entry with the mutation it reverses.
type changeKind byte

const (
	balanceChange changeKind = iota
	brcChange
	fbrcChange
	fbalanceChange
	ballotChange
	pollChange
	nonceChange
	storageChange
	storageRootChange
	createChange
	codeChange
	touchChange
	voteChange
	sysVoteChange
)

// changeEntry records what is needed to undo one mutation. The change log
// stores addresses by value, never account pointers; the cache owns the
// entities and addresses are the stable indices into it.
type changeEntry struct {
	kind    changeKind
	address brc.Address

	amount  uint256.Int // balance-like delta, or the old nonce
	key     brc.Bytes32 // storage key
	prev    brc.Bytes32 // old storage value, or old storage root
	oldCode []byte      // code before the change
	peer    brc.Address // vote receiver, or system vote member
	flag    bool        // sysVote: member was added; code: hasNewCode before the change
}

// Savepoint returns the current size of the change log, to be passed to
// RollbackTo later.
func (s *State) Savepoint() int {
	return len(s.changeLog)
}

// RollbackTo unwinds the change log back to the given savepoint, applying the
// reverse of every recorded mutation. After it returns, every account field
// observable through the read interface equals its value at the time of the
// matching Savepoint call.
func (s *State) RollbackTo(savepoint int) {
	for len(s.changeLog) > savepoint {
		c := &s.changeLog[len(s.changeLog)-1]

		if c.kind == createChange {
			// the account never existed
			delete(s.cache, c.address)
		} else {
			// The account entity API is used directly here; going through
			// the State mutators would append more change log entries.
			a := s.cache[c.address]
			switch c.kind {
			case balanceChange:
				a.addBalance(new(uint256.Int).Neg(&c.amount))
			case brcChange:
				a.addBRC(new(uint256.Int).Neg(&c.amount))
			case fbrcChange:
				a.addFBRC(new(uint256.Int).Neg(&c.amount))
			case fbalanceChange:
				a.addFBalance(new(uint256.Int).Neg(&c.amount))
			case ballotChange:
				a.addBallot(new(uint256.Int).Neg(&c.amount))
			case pollChange:
				a.addPoll(new(uint256.Int).Neg(&c.amount))
			case nonceChange:
				a.setNonce(&c.amount)
			case storageChange:
				a.setStorage(c.key, c.prev)
			case storageRootChange:
				a.setStorageRoot(c.prev)
			case codeChange:
				a.revertCode(c.oldCode, c.flag)
			case touchChange:
				a.untouch()
				s.cleanEntries = append(s.cleanEntries, c.address)
			case voteChange:
				a.addVote(c.peer, new(uint256.Int).Neg(&c.amount))
			case sysVoteChange:
				a.manageSysVote(c.peer, !c.flag)
			}
		}
		s.changeLog = s.changeLog[:len(s.changeLog)-1]
	}
}

func (s *State) logChange(c changeEntry) {
	s.changeLog = append(s.changeLog, c)
}
