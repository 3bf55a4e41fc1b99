// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/brcdchain/brcd/brc"
)

func newVoteState(t *testing.T) (*State, brc.Address, brc.Address) {
	s := newTestState(t)
	v, r := addr("voter"), addr("receiver")
	assert.Nil(t, s.AddBalance(v, uint256.NewInt(1)))
	assert.Nil(t, s.AddBallot(v, uint256.NewInt(100)))
	assert.Nil(t, s.AddBalance(r, uint256.NewInt(1)))
	return s, v, r
}

func TestVoteRoundTrip(t *testing.T) {
	s, v, r := newVoteState(t)

	assert.Nil(t, s.AddVote(v, r, uint256.NewInt(40)))
	assert.Equal(t, M(uint256.NewInt(60), nil), M(s.GetBallot(v)))
	assert.Equal(t, M(uint256.NewInt(40), nil), M(s.GetPoll(r)))
	assert.Equal(t, M(uint256.NewInt(40), nil), M(s.GetVoteFor(v, r)))
	assert.Equal(t, M(uint256.NewInt(40), nil), M(s.GetVoteAll(v)))

	assert.Nil(t, s.SubVote(v, r, uint256.NewInt(40)))
	assert.Equal(t, M(uint256.NewInt(100), nil), M(s.GetBallot(v)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetPoll(r)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetVoteFor(v, r)))
}

func TestVoteErrors(t *testing.T) {
	s, v, r := newVoteState(t)

	err := s.AddVote(v, r, uint256.NewInt(101))
	assert.Equal(t, ErrNotEnoughBallot, errors.Cause(err))

	err = s.AddVote(v, addr("nobody"), uint256.NewInt(1))
	assert.Equal(t, ErrInvalidAddress, errors.Cause(err))

	err = s.SubVote(v, r, uint256.NewInt(1))
	assert.Equal(t, ErrNotEnoughVoteLog, errors.Cause(err))

	// failed mutators leave no trace
	assert.Equal(t, M(uint256.NewInt(100), nil), M(s.GetBallot(v)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetPoll(r)))
}

func TestSubVotePollClamp(t *testing.T) {
	s, v, r := newVoteState(t)

	assert.Nil(t, s.AddVote(v, r, uint256.NewInt(40)))

	// receiver's poll reduced out-of-band
	assert.Nil(t, s.SubPoll(r, uint256.NewInt(30)))

	// withdrawal is bounded by the ledger; the poll decrement clamps to what
	// the receiver still has
	assert.Nil(t, s.SubVote(v, r, uint256.NewInt(40)))
	assert.Equal(t, M(uint256.NewInt(100), nil), M(s.GetBallot(v)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetPoll(r)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetVoteFor(v, r)))
}

func TestVoteRollback(t *testing.T) {
	s, v, r := newVoteState(t)

	sp := s.Savepoint()
	assert.Nil(t, s.AddVote(v, r, uint256.NewInt(25)))
	s.RollbackTo(sp)

	assert.Equal(t, M(uint256.NewInt(100), nil), M(s.GetBallot(v)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetPoll(r)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetVoteFor(v, r)))
}

func TestPoll(t *testing.T) {
	s, _, r := newVoteState(t)

	err := s.AddPoll(addr("nobody"), uint256.NewInt(1))
	assert.Equal(t, ErrInvalidAddress, errors.Cause(err))

	assert.Nil(t, s.AddPoll(r, uint256.NewInt(10)))
	assert.Equal(t, M(uint256.NewInt(10), nil), M(s.GetPoll(r)))

	err = s.SubPoll(r, uint256.NewInt(11))
	assert.Equal(t, ErrNotEnoughPoll, errors.Cause(err))

	assert.Nil(t, s.SubPoll(r, uint256.NewInt(10)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetPoll(r)))
}

func TestSysVoteData(t *testing.T) {
	s, v, _ := newVoteState(t)
	sys := addr("sys")

	// member must exist
	err := s.AddSysVoteData(sys, addr("nobody"))
	assert.Equal(t, ErrInvalidAddress, errors.Cause(err))

	// the system account auto-creates on add
	assert.Nil(t, s.AddSysVoteData(sys, v))
	inUse, err := s.AddressInUse(sys)
	assert.Nil(t, err)
	assert.True(t, inUse)
	assert.True(t, s.cache[sys].sysVotes[v])

	assert.Nil(t, s.SubSysVoteData(sys, v))
	assert.False(t, s.cache[sys].sysVotes[v])

	// but must exist on sub
	err = s.SubSysVoteData(addr("nosys"), v)
	assert.Equal(t, ErrInvalidSystemAddress, errors.Cause(err))
}

func TestSysVoteRollback(t *testing.T) {
	s, v, _ := newVoteState(t)
	sys := addr("sys")

	assert.Nil(t, s.AddSysVoteData(sys, v))

	sp := s.Savepoint()
	assert.Nil(t, s.SubSysVoteData(sys, v))
	s.RollbackTo(sp)
	assert.True(t, s.cache[sys].sysVotes[v])
}

func TestTransferBallotBuySell(t *testing.T) {
	s := newTestState(t)
	from, to := addr("from"), addr("to")
	price := uint256.NewInt(2 * brc.BallotPriceUint)

	assert.Nil(t, s.AddBalance(from, uint256.NewInt(1)))
	assert.Nil(t, s.AddBRC(from, price))
	assert.Nil(t, s.AddBalance(to, uint256.NewInt(1)))

	// buy: 2 ballots cost 2*BallotPrice BRC, paid to `to`
	assert.Nil(t, s.TransferBallotBuy(from, to, uint256.NewInt(2)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetBRC(from)))
	assert.Equal(t, M(price, nil), M(s.GetBRC(to)))
	assert.Equal(t, M(uint256.NewInt(2), nil), M(s.GetBallot(from)))

	// sell reverses
	assert.Nil(t, s.TransferBallotSell(from, to, uint256.NewInt(2)))
	assert.Equal(t, M(price, nil), M(s.GetBRC(from)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetBRC(to)))
	assert.Equal(t, M(new(uint256.Int), nil), M(s.GetBallot(from)))

	// insufficient BRC fails before any mutation
	err := s.TransferBallotBuy(to, from, uint256.NewInt(1000))
	assert.Equal(t, ErrNotEnoughCash, errors.Cause(err))
	assert.Equal(t, M(price, nil), M(s.GetBRC(from)))
}
