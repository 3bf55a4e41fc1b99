// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/trie"
)

// Account is the mutable in-cache representation of a world-state account.
//
// Entity methods never touch the change log; the State mutators record
// reversals before calling in here. All arithmetic wraps at the 256-bit
// boundary, so subtraction is expressed as addition of the two's complement
// and preconditions are checked by the callers before the wrap can happen.
type Account struct {
	nonce    uint256.Int
	balance  uint256.Int
	brcBal   uint256.Int
	fbrc     uint256.Int
	fbalance uint256.Int
	ballot   uint256.Int
	poll     uint256.Int

	storageRoot brc.Bytes32 // root of the storage sub-trie as currently persisted
	codeHash    brc.Bytes32
	code        []byte // resolved code bytes; nil until queried
	hasNewCode  bool   // code set since load and not yet persisted

	// uncommitted storage writes shadowing the sub-trie; zero value means deleted
	storageOverlay map[brc.Bytes32]brc.Bytes32

	voteLedger map[brc.Address]uint256.Int // votes delegated to others
	sysVotes   map[brc.Address]bool        // member set of a system vote account

	dirty bool
	alive bool
}

func newAccount(nonce, balance *uint256.Int) *Account {
	a := &Account{codeHash: brc.EmptyCodeHash, alive: true}
	a.nonce.Set(nonce)
	a.balance.Set(balance)
	return a
}

func newAccountWithBRC(nonce, brcAmount *uint256.Int) *Account {
	a := newAccount(nonce, new(uint256.Int))
	a.brcBal.Set(brcAmount)
	return a
}

// IsEmpty returns whether the account holds nothing: no nonce, no asset
// balances, no code and no vote records.
func (a *Account) IsEmpty() bool {
	return a.nonce.IsZero() &&
		a.balance.IsZero() &&
		a.brcBal.IsZero() &&
		a.fbrc.IsZero() &&
		a.fbalance.IsZero() &&
		a.ballot.IsZero() &&
		a.poll.IsZero() &&
		a.codeHash == brc.EmptyCodeHash &&
		len(a.voteLedger) == 0
}

// IsAlive returns whether the account has not been killed.
func (a *Account) IsAlive() bool { return a.alive }

// IsDirty returns whether the account carries uncommitted mutations.
func (a *Account) IsDirty() bool { return a.dirty }

func (a *Account) touch()   { a.dirty = true }
func (a *Account) untouch() { a.dirty = false }

// kill marks the account dead. A dead dirty account is removed from the trie
// at commit.
func (a *Account) kill() {
	a.alive = false
	a.touch()
}

func (a *Account) Nonce() *uint256.Int    { return new(uint256.Int).Set(&a.nonce) }
func (a *Account) Balance() *uint256.Int  { return new(uint256.Int).Set(&a.balance) }
func (a *Account) BRC() *uint256.Int      { return new(uint256.Int).Set(&a.brcBal) }
func (a *Account) FBRC() *uint256.Int     { return new(uint256.Int).Set(&a.fbrc) }
func (a *Account) FBalance() *uint256.Int { return new(uint256.Int).Set(&a.fbalance) }
func (a *Account) Ballot() *uint256.Int   { return new(uint256.Int).Set(&a.ballot) }
func (a *Account) Poll() *uint256.Int     { return new(uint256.Int).Set(&a.poll) }

// CodeHash returns the hash of the account code.
func (a *Account) CodeHash() brc.Bytes32 { return a.codeHash }

// StorageRoot returns the root of the persisted storage sub-trie. Pending
// overlay writes are not reflected here until commit.
func (a *Account) StorageRoot() brc.Bytes32 { return a.storageRoot }

func (a *Account) setNonce(n *uint256.Int) {
	a.nonce.Set(n)
	a.touch()
}

func (a *Account) incNonce() {
	a.nonce.AddUint64(&a.nonce, 1)
	a.touch()
}

func (a *Account) addBalance(v *uint256.Int) {
	a.balance.Add(&a.balance, v)
	a.touch()
}

func (a *Account) addBRC(v *uint256.Int) {
	a.brcBal.Add(&a.brcBal, v)
	a.touch()
}

func (a *Account) addFBRC(v *uint256.Int) {
	a.fbrc.Add(&a.fbrc, v)
	a.touch()
}

func (a *Account) addFBalance(v *uint256.Int) {
	a.fbalance.Add(&a.fbalance, v)
	a.touch()
}

func (a *Account) addBallot(v *uint256.Int) {
	a.ballot.Add(&a.ballot, v)
	a.touch()
}

func (a *Account) addPoll(v *uint256.Int) {
	a.poll.Add(&a.poll, v)
	a.touch()
}

// voteFor returns the votes this account has delegated to receiver.
func (a *Account) voteFor(receiver brc.Address) *uint256.Int {
	v := a.voteLedger[receiver]
	return new(uint256.Int).Set(&v)
}

// voteAll returns the sum of all delegated votes.
func (a *Account) voteAll() *uint256.Int {
	sum := new(uint256.Int)
	for _, v := range a.voteLedger {
		sum.Add(sum, &v)
	}
	return sum
}

// addVote accumulates delta into the ledger entry for receiver. Entries that
// reach zero are pruned so the ledger reflects only live delegations.
func (a *Account) addVote(receiver brc.Address, delta *uint256.Int) {
	if a.voteLedger == nil {
		a.voteLedger = make(map[brc.Address]uint256.Int)
	}
	v := a.voteLedger[receiver]
	v.Add(&v, delta)
	if v.IsZero() {
		delete(a.voteLedger, receiver)
	} else {
		a.voteLedger[receiver] = v
	}
	a.touch()
}

func (a *Account) manageSysVote(member brc.Address, add bool) {
	if a.sysVotes == nil {
		a.sysVotes = make(map[brc.Address]bool)
	}
	if add {
		a.sysVotes[member] = true
	} else {
		delete(a.sysVotes, member)
	}
	a.touch()
}

func (a *Account) setStorage(key, value brc.Bytes32) {
	if a.storageOverlay == nil {
		a.storageOverlay = make(map[brc.Bytes32]brc.Bytes32)
	}
	a.storageOverlay[key] = value
	a.touch()
}

// storageValue reads key through the overlay, falling back to the persisted
// storage sub-trie.
func (a *Account) storageValue(db trie.DatabaseReader, key brc.Bytes32) (brc.Bytes32, error) {
	if v, ok := a.storageOverlay[key]; ok {
		return v, nil
	}
	return a.originalStorageValue(db, key)
}

// originalStorageValue reads key from the persisted storage sub-trie,
// bypassing any overlay writes.
func (a *Account) originalStorageValue(db trie.DatabaseReader, key brc.Bytes32) (brc.Bytes32, error) {
	if a.storageRoot.IsZero() || a.storageRoot == brc.EmptyTrieRoot {
		return brc.Bytes32{}, nil
	}
	st, err := trie.NewSecure(a.storageRoot, db)
	if err != nil {
		return brc.Bytes32{}, err
	}
	raw, err := st.TryGet(key[:])
	if err != nil {
		return brc.Bytes32{}, err
	}
	return decodeStorageValue(raw)
}

// setStorageRoot resets the persisted root and drops the overlay.
func (a *Account) setStorageRoot(root brc.Bytes32) {
	a.storageRoot = root
	a.storageOverlay = nil
	a.touch()
}

// clearStorage wipes the whole storage of the account.
func (a *Account) clearStorage() {
	a.setStorageRoot(brc.EmptyTrieRoot)
}

// hasCode returns whether the account carries non-empty code.
func (a *Account) hasCode() bool {
	return a.codeHash != brc.EmptyCodeHash && !a.codeHash.IsZero()
}

// noteCode remembers lazily resolved code bytes.
func (a *Account) noteCode(code []byte) {
	a.code = code
}

func (a *Account) setCode(code []byte) {
	a.code = code
	a.hasNewCode = true
	a.codeHash = brc.Keccak256(code)
	a.touch()
}

// revertCode restores the code fields recorded before a setCode.
func (a *Account) revertCode(code []byte, wasNew bool) {
	a.code = code
	a.hasNewCode = wasNew
	a.codeHash = brc.Keccak256(code)
	a.touch()
}

//// serialization

// accountRecord is the on-trie encoding of an account, a 10-field RLP list.
// The vote ledger nests as a byte string holding its own RLP list.
type accountRecord struct {
	Nonce       *uint256.Int
	Balance     *uint256.Int
	StorageRoot brc.Bytes32
	CodeHash    brc.Bytes32
	Ballot      *uint256.Int
	Poll        *uint256.Int
	VoteLedger  []byte
	BRC         *uint256.Int
	FBRC        *uint256.Int
	FBalance    *uint256.Int
}

// voteEntry is one (address, amount) pair of the vote ledger.
type voteEntry struct {
	Address brc.Address
	Amount  *uint256.Int
}

func encodeVoteLedger(ledger map[brc.Address]uint256.Int) ([]byte, error) {
	entries := make([]voteEntry, 0, len(ledger))
	for addr, v := range ledger {
		v := v
		entries = append(entries, voteEntry{addr, &v})
	}
	// the ledger is a map; fix the order so the encoding is canonical
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Address[:], entries[j].Address[:]) < 0
	})

	items := make([]interface{}, 0, len(entries)+1)
	items = append(items, uint64(len(entries)))
	for i := range entries {
		items = append(items, &entries[i])
	}
	return rlp.EncodeToBytes(items)
}

func decodeVoteLedger(data []byte) (map[brc.Address]uint256.Int, error) {
	s := rlp.NewStream(bytes.NewReader(data), 0)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	count, err := s.Uint64()
	if err != nil {
		return nil, err
	}
	ledger := make(map[brc.Address]uint256.Int, count)
	for i := uint64(0); i < count; i++ {
		var e voteEntry
		if err := s.Decode(&e); err != nil {
			return nil, err
		}
		ledger[e.Address] = *e.Amount
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	return ledger, nil
}

// encodeAccount serializes the account record for the accounts trie.
func encodeAccount(a *Account) ([]byte, error) {
	vote, err := encodeVoteLedger(a.voteLedger)
	if err != nil {
		return nil, err
	}
	storageRoot := a.storageRoot
	if storageRoot.IsZero() {
		storageRoot = brc.EmptyTrieRoot
	}
	return rlp.EncodeToBytes(&accountRecord{
		Nonce:       &a.nonce,
		Balance:     &a.balance,
		StorageRoot: storageRoot,
		CodeHash:    a.codeHash,
		Ballot:      &a.ballot,
		Poll:        &a.poll,
		VoteLedger:  vote,
		BRC:         &a.brcBal,
		FBRC:        &a.fbrc,
		FBalance:    &a.fbalance,
	})
}

// decodeAccount deserializes an account record loaded from the accounts trie.
// The returned account is alive and clean.
func decodeAccount(data []byte) (*Account, error) {
	var rec accountRecord
	if err := rlp.DecodeBytes(data, &rec); err != nil {
		return nil, err
	}
	ledger, err := decodeVoteLedger(rec.VoteLedger)
	if err != nil {
		return nil, err
	}
	a := &Account{
		storageRoot: rec.StorageRoot,
		codeHash:    rec.CodeHash,
		alive:       true,
	}
	a.nonce.Set(rec.Nonce)
	a.balance.Set(rec.Balance)
	a.ballot.Set(rec.Ballot)
	a.poll.Set(rec.Poll)
	a.brcBal.Set(rec.BRC)
	a.fbrc.Set(rec.FBRC)
	a.fbalance.Set(rec.FBalance)
	if len(ledger) > 0 {
		a.voteLedger = ledger
	}
	return a, nil
}

// encodeStorageValue encodes a storage value the way the storage sub-trie
// stores it: the RLP string of the big-endian value with leading zeroes
// stripped. Zero values are not stored at all.
func encodeStorageValue(value brc.Bytes32) ([]byte, error) {
	v := new(uint256.Int).SetBytes(value[:])
	if v.IsZero() {
		return nil, nil
	}
	return rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
}

func decodeStorageValue(raw []byte) (brc.Bytes32, error) {
	if len(raw) == 0 {
		return brc.Bytes32{}, nil
	}
	_, content, _, err := rlp.Split(raw)
	if err != nil {
		return brc.Bytes32{}, err
	}
	return brc.BytesToBytes32(content), nil
}
