// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/holiman/uint256"

	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/overlaydb"
	"github.com/brcdchain/brcd/trie"
)

// defaultCleanCacheLimit bounds the list of clean cache entries before
// random eviction kicks in.
const defaultCleanCacheLimit = 1000

// Config carries construction-time knobs of a State. The zero value is
// usable; the start nonce stays unset until noted.
type Config struct {
	// StartNonce is the nonce assigned to freshly created accounts.
	// When nil, operations that need it fail with ErrInvalidAccountStartNonce
	// until NoteAccountStartNonce is called.
	StartNonce *uint256.Int
	// CleanCacheLimit overrides the clean-entry threshold. <=0 means default.
	CleanCacheLimit int
	// EvictionSeed seeds the eviction PRNG, making eviction deterministic
	// under test. The PRNG is never an OS entropy source.
	EvictionSeed int64
	// FatDB enables the whole-database enumeration interfaces.
	FatDB bool
}

// State is the single-writer view of the world state that executors run
// against. It composes the account cache, the authenticated accounts trie and
// the change log, and supports savepoint/rollback/commit.
//
// State is not safe for concurrent use.
type State struct {
	db   *overlaydb.OverlayDB
	trie *trie.SecureTrie

	cache        map[brc.Address]*Account
	nonExisting  map[brc.Address]struct{} // negative cache of absent addresses
	cleanEntries []brc.Address            // loaded-and-unmodified addresses, eviction candidates
	changeLog    []changeEntry

	startNonce *uint256.Int
	conf       Config
	rnd        *rand.Rand
}

// New creates a state view anchored at root.
func New(db *overlaydb.OverlayDB, root brc.Bytes32, conf *Config) (*State, error) {
	c := Config{}
	if conf != nil {
		c = *conf
	}
	if c.CleanCacheLimit <= 0 {
		c.CleanCacheLimit = defaultCleanCacheLimit
	}

	tr, err := trie.NewSecure(root, db)
	if err != nil {
		return nil, &Error{err}
	}

	var startNonce *uint256.Int
	if c.StartNonce != nil {
		startNonce = new(uint256.Int).Set(c.StartNonce)
	}

	return &State{
		db:          db,
		trie:        tr,
		cache:       make(map[brc.Address]*Account),
		nonExisting: make(map[brc.Address]struct{}),
		startNonce:  startNonce,
		conf:        c,
		rnd:         rand.New(rand.NewSource(c.EvictionSeed)),
	}, nil
}

// Checkout checkouts to another state on the same database.
func (s *State) Checkout(root brc.Bytes32) (*State, error) {
	return New(s.db, root, &s.conf)
}

// DB returns the node database backing this state.
func (s *State) DB() *overlaydb.OverlayDB {
	return s.db
}

// NoteAccountStartNonce records the domain-wide start nonce. Noting a second,
// different value fails with ErrInvalidAccountStartNonce.
func (s *State) NoteAccountStartNonce(nonce *uint256.Int) error {
	if s.startNonce == nil {
		s.startNonce = new(uint256.Int).Set(nonce)
		return nil
	}
	if !s.startNonce.Eq(nonce) {
		return errors.WithMessage(ErrInvalidAccountStartNonce, "state.NoteAccountStartNonce()")
	}
	return nil
}

func (s *State) requireStartNonce(iface string) (*uint256.Int, error) {
	if s.startNonce == nil {
		return nil, errors.WithMessage(ErrInvalidAccountStartNonce, iface)
	}
	return s.startNonce, nil
}

// account returns the cached entity for addr, loading it from the trie on
// first access. It returns nil (and no error) when the account does not
// exist.
func (s *State) account(addr brc.Address) (*Account, error) {
	if a, ok := s.cache[addr]; ok {
		return a, nil
	}
	if _, ok := s.nonExisting[addr]; ok {
		return nil, nil
	}

	data, err := s.trie.TryGet(addr[:])
	if err != nil {
		return nil, &Error{err}
	}
	if len(data) == 0 {
		s.nonExisting[addr] = struct{}{}
		metricAccountCounter().AddWithLabel(1, map[string]string{"type": "miss"})
		return nil, nil
	}

	s.clearCacheIfTooLarge()

	a, err := decodeAccount(data)
	if err != nil {
		return nil, &Error{err}
	}
	s.cache[addr] = a
	s.cleanEntries = append(s.cleanEntries, addr)
	metricAccountCounter().AddWithLabel(1, map[string]string{"type": "load"})
	return a, nil
}

// createAccount materializes a fresh alive+dirty entity in the cache and
// records the creation so rollback can erase it again.
func (s *State) createAccount(addr brc.Address, a *Account) *Account {
	a.touch()
	s.cache[addr] = a
	delete(s.nonExisting, addr)
	s.logChange(changeEntry{kind: createChange, address: addr})
	return a
}

// clearCacheIfTooLarge evicts random clean entries while the clean list
// exceeds the configured limit. Dirty entries are never evicted, so the cache
// cannot lose uncommitted data.
func (s *State) clearCacheIfTooLarge() {
	for len(s.cleanEntries) > s.conf.CleanCacheLimit {
		i := s.rnd.Intn(len(s.cleanEntries))
		addr := s.cleanEntries[i]
		s.cleanEntries[i] = s.cleanEntries[len(s.cleanEntries)-1]
		s.cleanEntries = s.cleanEntries[:len(s.cleanEntries)-1]

		if a, ok := s.cache[addr]; ok && !a.dirty {
			delete(s.cache, addr)
			metricAccountCounter().AddWithLabel(1, map[string]string{"type": "evict"})
		}
	}
}

// noteTouch records the first touch of a clean empty account, so the
// dirty-marking side effect of a zero-amount mutation can be reverted.
func (s *State) noteTouch(addr brc.Address, a *Account) {
	if !a.dirty && a.IsEmpty() {
		s.logChange(changeEntry{kind: touchChange, address: addr})
	}
}

//// reads

// AddressInUse returns whether an account exists at addr.
func (s *State) AddressInUse(addr brc.Address) (bool, error) {
	a, err := s.account(addr)
	if err != nil {
		return false, err
	}
	return a != nil, nil
}

// AccountNonemptyAndExisting returns whether an account exists at addr and is
// not empty.
func (s *State) AccountNonemptyAndExisting(addr brc.Address) (bool, error) {
	a, err := s.account(addr)
	if err != nil {
		return false, err
	}
	if a == nil {
		return false, nil
	}
	return !a.IsEmpty(), nil
}

// AddressHasCode returns whether the account at addr carries code.
func (s *State) AddressHasCode(addr brc.Address) (bool, error) {
	a, err := s.account(addr)
	if err != nil {
		return false, err
	}
	if a == nil {
		return false, nil
	}
	return a.hasCode(), nil
}

// GetBalance returns the primary asset balance of addr, zero when absent.
func (s *State) GetBalance(addr brc.Address) (*uint256.Int, error) {
	a, err := s.account(addr)
	if err != nil || a == nil {
		return new(uint256.Int), err
	}
	return a.Balance(), nil
}

// GetBRC returns the BRC balance of addr, zero when absent.
func (s *State) GetBRC(addr brc.Address) (*uint256.Int, error) {
	a, err := s.account(addr)
	if err != nil || a == nil {
		return new(uint256.Int), err
	}
	return a.BRC(), nil
}

// GetFBRC returns the frozen BRC balance of addr, zero when absent.
func (s *State) GetFBRC(addr brc.Address) (*uint256.Int, error) {
	a, err := s.account(addr)
	if err != nil || a == nil {
		return new(uint256.Int), err
	}
	return a.FBRC(), nil
}

// GetFBalance returns the frozen primary balance of addr, zero when absent.
func (s *State) GetFBalance(addr brc.Address) (*uint256.Int, error) {
	a, err := s.account(addr)
	if err != nil || a == nil {
		return new(uint256.Int), err
	}
	return a.FBalance(), nil
}

// GetBallot returns the spendable voting power of addr, zero when absent.
func (s *State) GetBallot(addr brc.Address) (*uint256.Int, error) {
	a, err := s.account(addr)
	if err != nil || a == nil {
		return new(uint256.Int), err
	}
	return a.Ballot(), nil
}

// GetPoll returns the votes received by addr, zero when absent.
func (s *State) GetPoll(addr brc.Address) (*uint256.Int, error) {
	a, err := s.account(addr)
	if err != nil || a == nil {
		return new(uint256.Int), err
	}
	return a.Poll(), nil
}

// GetVoteAll returns the total amount of ballot addr has spent voting.
func (s *State) GetVoteAll(addr brc.Address) (*uint256.Int, error) {
	a, err := s.account(addr)
	if err != nil || a == nil {
		return new(uint256.Int), err
	}
	return a.voteAll(), nil
}

// GetVoteFor returns the votes voter has delegated to receiver.
func (s *State) GetVoteFor(voter, receiver brc.Address) (*uint256.Int, error) {
	a, err := s.account(voter)
	if err != nil || a == nil {
		return new(uint256.Int), err
	}
	return a.voteFor(receiver), nil
}

// GetVotes returns a copy of the whole vote ledger of addr.
func (s *State) GetVotes(addr brc.Address) (map[brc.Address]*uint256.Int, error) {
	a, err := s.account(addr)
	if err != nil || a == nil {
		return nil, err
	}
	votes := make(map[brc.Address]*uint256.Int, len(a.voteLedger))
	for receiver, v := range a.voteLedger {
		v := v
		votes[receiver] = &v
	}
	return votes, nil
}

// GetNonce returns the nonce of addr. Absent accounts report the account
// start nonce when noted, zero otherwise.
func (s *State) GetNonce(addr brc.Address) (*uint256.Int, error) {
	a, err := s.account(addr)
	if err != nil {
		return new(uint256.Int), err
	}
	if a == nil {
		if s.startNonce != nil {
			return new(uint256.Int).Set(s.startNonce), nil
		}
		return new(uint256.Int), nil
	}
	return a.Nonce(), nil
}

// GetStorage returns the storage value of (addr, key), zero when absent.
func (s *State) GetStorage(addr brc.Address, key brc.Bytes32) (brc.Bytes32, error) {
	a, err := s.account(addr)
	if err != nil || a == nil {
		return brc.Bytes32{}, err
	}
	v, err := a.storageValue(s.db, key)
	if err != nil {
		return brc.Bytes32{}, &Error{err}
	}
	return v, nil
}

// GetOriginalStorage returns the storage value of (addr, key) as persisted,
// bypassing uncommitted overlay writes.
func (s *State) GetOriginalStorage(addr brc.Address, key brc.Bytes32) (brc.Bytes32, error) {
	a, err := s.account(addr)
	if err != nil || a == nil {
		return brc.Bytes32{}, err
	}
	v, err := a.originalStorageValue(s.db, key)
	if err != nil {
		return brc.Bytes32{}, &Error{err}
	}
	return v, nil
}

// GetStorageRoot returns the persisted storage root of addr. Overlay writes
// are not reflected until commit.
func (s *State) GetStorageRoot(addr brc.Address) (brc.Bytes32, error) {
	data, err := s.trie.TryGet(addr[:])
	if err != nil {
		return brc.Bytes32{}, &Error{err}
	}
	if len(data) == 0 {
		return brc.EmptyTrieRoot, nil
	}
	a, err := decodeAccount(data)
	if err != nil {
		return brc.Bytes32{}, &Error{err}
	}
	return a.storageRoot, nil
}

// GetCodeHash returns the code hash of addr, EmptyCodeHash when absent.
func (s *State) GetCodeHash(addr brc.Address) (brc.Bytes32, error) {
	a, err := s.account(addr)
	if err != nil {
		return brc.Bytes32{}, err
	}
	if a == nil {
		return brc.EmptyCodeHash, nil
	}
	return a.codeHash, nil
}

// GetCode returns the code of addr, resolving it from the code store on first
// access.
func (s *State) GetCode(addr brc.Address) ([]byte, error) {
	a, err := s.account(addr)
	if err != nil {
		return nil, err
	}
	if a == nil || !a.hasCode() {
		return nil, nil
	}
	if a.code != nil {
		return a.code, nil
	}
	code, err := loadCode(s.db, a.codeHash)
	if err != nil {
		return nil, &Error{err}
	}
	a.noteCode(code)
	return code, nil
}

// GetCodeSize returns the size of the code of addr. For accounts whose code
// is already persisted the size is served from a content-addressed cache
// without loading the code bytes into the account.
func (s *State) GetCodeSize(addr brc.Address) (int, error) {
	a, err := s.account(addr)
	if err != nil {
		return 0, err
	}
	if a == nil || !a.hasCode() {
		return 0, nil
	}
	if a.hasNewCode {
		return len(a.code), nil
	}
	size, err := loadCodeSize(s.db, a.codeHash)
	if err != nil {
		return 0, &Error{err}
	}
	return size, nil
}

//// mutators

// CreateAccount creates an account at addr with the start nonce. Existing
// accounts are left untouched.
func (s *State) CreateAccount(addr brc.Address) error {
	inUse, err := s.AddressInUse(addr)
	if err != nil {
		return err
	}
	if inUse {
		return nil
	}
	nonce, err := s.requireStartNonce("state.CreateAccount()")
	if err != nil {
		return err
	}
	s.createAccount(addr, newAccount(nonce, new(uint256.Int)))
	return nil
}

// CreateContract creates the account an address is being deployed to.
func (s *State) CreateContract(addr brc.Address) error {
	return s.CreateAccount(addr)
}

// IncNonce increments the nonce of addr, creating the account with
// startNonce+1 when absent.
func (s *State) IncNonce(addr brc.Address) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a != nil {
		s.logChange(changeEntry{kind: nonceChange, address: addr, amount: a.nonce})
		a.incNonce()
		return nil
	}
	// possible if a transaction has gas price 0
	start, err := s.requireStartNonce("state.IncNonce()")
	if err != nil {
		return err
	}
	nonce := new(uint256.Int).AddUint64(start, 1)
	s.createAccount(addr, newAccount(nonce, new(uint256.Int)))
	return nil
}

// SetNonce sets the nonce of addr, creating the account when absent.
func (s *State) SetNonce(addr brc.Address, nonce *uint256.Int) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a != nil {
		s.logChange(changeEntry{kind: nonceChange, address: addr, amount: a.nonce})
		a.setNonce(nonce)
		return nil
	}
	// possible when a contract is being created
	s.createAccount(addr, newAccount(nonce, new(uint256.Int)))
	return nil
}

// AddBalance adds amount to the primary balance of addr, creating the account
// when absent.
func (s *State) AddBalance(addr brc.Address, amount *uint256.Int) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a != nil {
		// Log empty account being touched; empty touched accounts are
		// cleared after the transaction, so this event must be revertable
		// too. Only the first touch is logged.
		s.noteTouch(addr, a)
		// Adding zero still marks the account dirty.
		a.addBalance(amount)
	} else {
		nonce, err := s.requireStartNonce("state.AddBalance()")
		if err != nil {
			return err
		}
		s.createAccount(addr, newAccount(nonce, amount))
	}

	if !amount.IsZero() {
		s.logChange(changeEntry{kind: balanceChange, address: addr, amount: *amount})
	}
	return nil
}

// SubBalance subtracts amount from the primary balance of addr. It fails with
// ErrNotEnoughCash before any mutation when the balance is insufficient.
func (s *State) SubBalance(addr brc.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil || a.balance.Lt(amount) {
		return errors.WithMessage(ErrNotEnoughCash, "state.SubBalance()")
	}
	return s.AddBalance(addr, new(uint256.Int).Neg(amount))
}

// SetBalance sets the primary balance of addr, routed through AddBalance so
// the change log sees a single delta.
func (s *State) SetBalance(addr brc.Address, value *uint256.Int) error {
	current, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	return s.AddBalance(addr, new(uint256.Int).Sub(value, current))
}

// AddBRC adds amount to the BRC balance of addr, creating the account when
// absent.
func (s *State) AddBRC(addr brc.Address, amount *uint256.Int) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a != nil {
		s.noteTouch(addr, a)
		a.addBRC(amount)
	} else {
		nonce, err := s.requireStartNonce("state.AddBRC()")
		if err != nil {
			return err
		}
		s.createAccount(addr, newAccountWithBRC(nonce, amount))
	}

	if !amount.IsZero() {
		s.logChange(changeEntry{kind: brcChange, address: addr, amount: *amount})
	}
	return nil
}

// SubBRC subtracts amount from the BRC balance of addr, failing with
// ErrNotEnoughCash before any mutation when insufficient.
func (s *State) SubBRC(addr brc.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil || a.brcBal.Lt(amount) {
		return errors.WithMessage(ErrNotEnoughCash, "state.SubBRC()")
	}
	return s.AddBRC(addr, new(uint256.Int).Neg(amount))
}

// SetBRC sets the BRC balance of addr.
func (s *State) SetBRC(addr brc.Address, value *uint256.Int) error {
	current, err := s.GetBRC(addr)
	if err != nil {
		return err
	}
	return s.AddBRC(addr, new(uint256.Int).Sub(value, current))
}

// AddFBRC adds amount to the frozen BRC pool of addr. Absent accounts are
// left untouched and nothing is recorded.
func (s *State) AddFBRC(addr brc.Address, amount *uint256.Int) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return nil
	}
	s.noteTouch(addr, a)
	a.addFBRC(amount)

	if !amount.IsZero() {
		s.logChange(changeEntry{kind: fbrcChange, address: addr, amount: *amount})
	}
	return nil
}

// SubFBRC subtracts amount from the frozen BRC pool of addr.
func (s *State) SubFBRC(addr brc.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil || a.fbrc.Lt(amount) {
		return errors.WithMessage(ErrNotEnoughCash, "state.SubFBRC()")
	}
	return s.AddFBRC(addr, new(uint256.Int).Neg(amount))
}

// AddFBalance adds amount to the frozen primary pool of addr. Absent accounts
// are left untouched and nothing is recorded.
func (s *State) AddFBalance(addr brc.Address, amount *uint256.Int) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return nil
	}
	s.noteTouch(addr, a)
	a.addFBalance(amount)

	if !amount.IsZero() {
		s.logChange(changeEntry{kind: fbalanceChange, address: addr, amount: *amount})
	}
	return nil
}

// SubFBalance subtracts amount from the frozen primary pool of addr.
func (s *State) SubFBalance(addr brc.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil || a.fbalance.Lt(amount) {
		return errors.WithMessage(ErrNotEnoughCash, "state.SubFBalance()")
	}
	return s.AddFBalance(addr, new(uint256.Int).Neg(amount))
}

// AddBallot adds amount to the spendable voting power of addr. The account
// must exist.
func (s *State) AddBallot(addr brc.Address, amount *uint256.Int) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.AddBallot()")
	}
	s.noteTouch(addr, a)
	a.addBallot(amount)

	if !amount.IsZero() {
		s.logChange(changeEntry{kind: ballotChange, address: addr, amount: *amount})
	}
	return nil
}

// SubBallot subtracts amount from the spendable voting power of addr.
func (s *State) SubBallot(addr brc.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil || a.ballot.Lt(amount) {
		return errors.WithMessage(ErrNotEnoughBallot, "state.SubBallot()")
	}
	return s.AddBallot(addr, new(uint256.Int).Neg(amount))
}

// AddPoll adds amount to the received votes of addr. The account must exist.
func (s *State) AddPoll(addr brc.Address, amount *uint256.Int) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.AddPoll()")
	}
	s.noteTouch(addr, a)
	a.addPoll(amount)

	if !amount.IsZero() {
		s.logChange(changeEntry{kind: pollChange, address: addr, amount: *amount})
	}
	return nil
}

// SubPoll subtracts amount from the received votes of addr.
func (s *State) SubPoll(addr brc.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil || a.poll.Lt(amount) {
		return errors.WithMessage(ErrNotEnoughPoll, "state.SubPoll()")
	}
	return s.AddPoll(addr, new(uint256.Int).Neg(amount))
}

// SetStorage sets the storage value of (addr, key). The account must exist.
func (s *State) SetStorage(addr brc.Address, key, value brc.Bytes32) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.SetStorage()")
	}
	old, err := a.storageValue(s.db, key)
	if err != nil {
		return &Error{err}
	}
	s.logChange(changeEntry{kind: storageChange, address: addr, key: key, prev: old})
	a.setStorage(key, value)
	return nil
}

// ClearStorage wipes the whole storage of addr.
func (s *State) ClearStorage(addr brc.Address) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.ClearStorage()")
	}
	old := a.storageRoot
	if old.IsZero() || old == brc.EmptyTrieRoot {
		return nil
	}
	s.logChange(changeEntry{kind: storageRootChange, address: addr, prev: old})
	a.clearStorage()
	return nil
}

// SetCode sets the code of addr. The account must exist.
func (s *State) SetCode(addr brc.Address, code []byte) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.SetCode()")
	}
	old, err := s.GetCode(addr)
	if err != nil {
		return err
	}
	s.logChange(changeEntry{kind: codeChange, address: addr, oldCode: old, flag: a.hasNewCode})
	a.setCode(code)
	cacheCode(a.codeHash, code)
	return nil
}

// Kill marks the account at addr dead. Dead dirty accounts are removed from
// the trie at commit. If the account is not in the db, there is nothing to
// kill. Kill records no change log entry, so RollbackTo does not revive the
// account.
func (s *State) Kill(addr brc.Address) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a != nil {
		a.kill()
	}
	return nil
}

//// voting

// AddVote moves amount of voting power from voter's ballot to receiver's
// poll, recording the delegation in voter's ledger. Both accounts must exist.
func (s *State) AddVote(voter, receiver brc.Address, amount *uint256.Int) error {
	va, err := s.account(voter)
	if err != nil {
		return err
	}
	ra, err := s.account(receiver)
	if err != nil {
		return err
	}
	if va == nil || ra == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.AddVote()")
	}
	if va.ballot.Lt(amount) {
		return errors.WithMessage(ErrNotEnoughBallot, "state.AddVote()")
	}

	neg := new(uint256.Int).Neg(amount)
	va.addBallot(neg)
	ra.addPoll(amount)
	va.addVote(receiver, amount)

	if !amount.IsZero() {
		s.logChange(changeEntry{kind: voteChange, address: voter, peer: receiver, amount: *amount})
		s.logChange(changeEntry{kind: ballotChange, address: voter, amount: *neg})
		s.logChange(changeEntry{kind: pollChange, address: receiver, amount: *amount})
	}
	return nil
}

// SubVote withdraws amount of delegated votes from receiver. The withdrawal
// is bounded by voter's ledger entry; the poll decrement is clamped to
// receiver's current poll, which may have been reduced out-of-band.
func (s *State) SubVote(voter, receiver brc.Address, amount *uint256.Int) error {
	va, err := s.account(voter)
	if err != nil {
		return err
	}
	ra, err := s.account(receiver)
	if err != nil {
		return err
	}
	if va == nil || ra == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.SubVote()")
	}
	if va.voteFor(receiver).Lt(amount) {
		return errors.WithMessage(ErrNotEnoughVoteLog, "state.SubVote()")
	}

	neg := new(uint256.Int).Neg(amount)
	va.addVote(receiver, neg)
	va.addBallot(amount)

	clamped := new(uint256.Int).Set(amount)
	if ra.poll.Lt(clamped) {
		clamped.Set(&ra.poll)
	}
	negClamped := new(uint256.Int).Neg(clamped)
	ra.addPoll(negClamped)

	if !amount.IsZero() {
		s.logChange(changeEntry{kind: voteChange, address: voter, peer: receiver, amount: *neg})
		s.logChange(changeEntry{kind: ballotChange, address: voter, amount: *amount})
		s.logChange(changeEntry{kind: pollChange, address: receiver, amount: *negClamped})
	}
	return nil
}

// AddSysVoteData adds member to the vote set of the system account sysAddr,
// creating sysAddr when absent. The member account must exist.
func (s *State) AddSysVoteData(sysAddr, member brc.Address) error {
	sa, err := s.account(sysAddr)
	if err != nil {
		return err
	}
	ma, err := s.account(member)
	if err != nil {
		return err
	}
	if ma == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.AddSysVoteData()")
	}
	if sa == nil {
		nonce, err := s.requireStartNonce("state.AddSysVoteData()")
		if err != nil {
			return err
		}
		sa = s.createAccount(sysAddr, newAccount(nonce, new(uint256.Int)))
	}
	sa.manageSysVote(member, true)
	s.logChange(changeEntry{kind: sysVoteChange, address: sysAddr, peer: member, flag: true})
	return nil
}

// SubSysVoteData removes member from the vote set of the system account
// sysAddr. Both accounts must exist.
func (s *State) SubSysVoteData(sysAddr, member brc.Address) error {
	sa, err := s.account(sysAddr)
	if err != nil {
		return err
	}
	if sa == nil {
		return errors.WithMessage(ErrInvalidSystemAddress, "state.SubSysVoteData()")
	}
	ma, err := s.account(member)
	if err != nil {
		return err
	}
	if ma == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.SubSysVoteData()")
	}
	sa.manageSysVote(member, false)
	s.logChange(changeEntry{kind: sysVoteChange, address: sysAddr, peer: member, flag: false})
	return nil
}

// TransferBallotBuy converts BRC of from into ballot, paying to.
// All preconditions are checked before any mutation.
func (s *State) TransferBallotBuy(from, to brc.Address, amount *uint256.Int) error {
	price := new(uint256.Int).Mul(amount, uint256.NewInt(brc.BallotPriceUint))

	fa, err := s.account(from)
	if err != nil {
		return err
	}
	if fa == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.TransferBallotBuy()")
	}
	if fa.brcBal.Lt(price) {
		return errors.WithMessage(ErrNotEnoughCash, "state.TransferBallotBuy()")
	}
	ta, err := s.account(to)
	if err != nil {
		return err
	}
	if ta == nil {
		if _, err := s.requireStartNonce("state.TransferBallotBuy()"); err != nil {
			return err
		}
	}

	if err := s.SubBRC(from, price); err != nil {
		return err
	}
	if err := s.AddBRC(to, price); err != nil {
		return err
	}
	return s.AddBallot(from, amount)
}

// TransferBallotSell converts ballot of from back into BRC, funded by to.
// All preconditions are checked before any mutation.
func (s *State) TransferBallotSell(from, to brc.Address, amount *uint256.Int) error {
	price := new(uint256.Int).Mul(amount, uint256.NewInt(brc.BallotPriceUint))

	fa, err := s.account(from)
	if err != nil {
		return err
	}
	ta, err := s.account(to)
	if err != nil {
		return err
	}
	if fa == nil || ta == nil {
		return errors.WithMessage(ErrInvalidAddress, "state.TransferBallotSell()")
	}
	if fa.ballot.Lt(amount) {
		return errors.WithMessage(ErrNotEnoughBallot, "state.TransferBallotSell()")
	}
	if ta.brcBal.Lt(price) {
		return errors.WithMessage(ErrNotEnoughCash, "state.TransferBallotSell()")
	}

	if err := s.SubBallot(from, amount); err != nil {
		return err
	}
	if err := s.AddBRC(from, price); err != nil {
		return err
	}
	return s.SubBRC(to, price)
}

//// root management

// RootHash returns the hash fingerprinting the committed world state.
func (s *State) RootHash() brc.Bytes32 {
	return s.trie.Hash()
}

// SetRoot discards all caches and re-anchors the trie at root, for historical
// queries and chain reorgs.
func (s *State) SetRoot(root brc.Bytes32) error {
	tr, err := trie.NewSecure(root, s.db)
	if err != nil {
		return &Error{err}
	}
	s.trie = tr
	s.cache = make(map[brc.Address]*Account)
	s.nonExisting = make(map[brc.Address]struct{})
	s.cleanEntries = nil
	s.changeLog = nil
	return nil
}
