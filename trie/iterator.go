// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"bytes"
	"errors"
)

// Iterator is a key-value trie iterator that traverses the trie in key order.
type Iterator struct {
	nodeIt *nodeIterator

	Key   []byte // Current data key on which the iterator is positioned on
	Value []byte // Current data value on which the iterator is positioned on
	Err   error
}

// NewIterator creates a new key-value iterator over the trie, starting at the
// first data entry whose key is not less than start. Keys here are the raw
// trie keys (for a secure trie, the hashed form).
func (t *Trie) NewIterator(start []byte) *Iterator {
	return &Iterator{
		nodeIt: newNodeIterator(t, start),
	}
}

// Next moves the iterator forward one key-value entry.
func (it *Iterator) Next() bool {
	for it.nodeIt.next(true) {
		if it.nodeIt.leaf() {
			it.Key = it.nodeIt.leafKey()
			it.Value = it.nodeIt.leafBlob()
			return true
		}
	}
	it.Key = nil
	it.Value = nil
	it.Err = it.nodeIt.error()
	return false
}

// errIteratorEnd is stored in nodeIterator.err when iteration is done.
var errIteratorEnd = errors.New("end of iteration")

// seekError is stored in nodeIterator.err if the initial seek has failed.
type seekError struct {
	key []byte
	err error
}

func (e seekError) Error() string {
	return "seek error: " + e.err.Error()
}

// nodeIteratorState represents the iteration state at one particular node of
// the trie, which can be resumed at a later invocation.
type nodeIteratorState struct {
	node    node // Trie node being iterated
	index   int  // Child to be processed next
	pathlen int  // Length of the path to this node
}

type nodeIterator struct {
	trie  *Trie                // Trie being iterated
	stack []*nodeIteratorState // Hierarchy of trie nodes persisting the iteration state
	path  []byte               // Path to the current node
	err   error                // Failure set in case of an internal error in the iterator
}

func newNodeIterator(trie *Trie, start []byte) *nodeIterator {
	it := &nodeIterator{trie: trie}
	if len(start) > 0 {
		it.err = it.seek(start)
	}
	return it
}

func (it *nodeIterator) error() error {
	if it.err == errIteratorEnd {
		return nil
	}
	if seek, ok := it.err.(seekError); ok {
		return seek.err
	}
	return it.err
}

// next moves the iterator to the next node, returning whether there are any
// further nodes. In case of an internal error this method returns false and
// sets the Error field to the encountered failure. If descend is false,
// skips iterating over any subnodes of the current node.
func (it *nodeIterator) next(descend bool) bool {
	if it.err == errIteratorEnd {
		return false
	}
	if seek, ok := it.err.(seekError); ok {
		if it.err = seek.err; it.err != nil {
			return false
		}
	} else if it.err != nil {
		return false
	}
	// Otherwise step forward with the iterator and report any errors.
	state, parentIndex, path, err := it.peek(descend)
	it.err = err
	if it.err != nil {
		return false
	}
	it.push(state, parentIndex, path)
	return true
}

// leaf returns true iff the current node is a leaf (value) node.
func (it *nodeIterator) leaf() bool {
	return hasTerm(it.path)
}

// leafKey returns the key of the leaf, in key-bytes form.
func (it *nodeIterator) leafKey() []byte {
	if len(it.stack) > 0 {
		if _, ok := it.stack[len(it.stack)-1].node.(valueNode); ok {
			return hexToKeybytes(it.path)
		}
	}
	panic("not at leaf")
}

// leafBlob returns the content of the leaf.
func (it *nodeIterator) leafBlob() []byte {
	if len(it.stack) > 0 {
		if node, ok := it.stack[len(it.stack)-1].node.(valueNode); ok {
			return node
		}
	}
	panic("not at leaf")
}

// seek forwards the iterator until it is positioned just before the first
// entry whose path is not less than the hex encoding of key.
func (it *nodeIterator) seek(key []byte) error {
	// The path we're looking for is the hex encoded key without terminator.
	hexKey := keybytesToHex(key)
	hexKey = hexKey[:len(hexKey)-1]
	// Move forward until we're just before the closest match to key.
	for {
		state, parentIndex, path, err := it.peek(bytes.HasPrefix(hexKey, it.path))
		if err == errIteratorEnd {
			return errIteratorEnd
		} else if err != nil {
			return seekError{key, err}
		} else if bytes.Compare(path, hexKey) >= 0 {
			return nil
		}
		it.push(state, parentIndex, path)
	}
}

// peek creates the next state of the iterator.
func (it *nodeIterator) peek(descend bool) (*nodeIteratorState, *int, []byte, error) {
	if len(it.stack) == 0 {
		// Initialize the iterator if we've just started.
		if it.trie.root == nil {
			return nil, nil, nil, errIteratorEnd
		}
		state := &nodeIteratorState{node: it.trie.root, index: -1}
		if err := state.resolve(it.trie, nil); err != nil {
			return nil, nil, nil, err
		}
		return state, nil, nil, nil
	}
	if !descend {
		// If we're skipping children, pop the current node first
		it.pop()
	}
	// Continue iteration to the next child
	for len(it.stack) > 0 {
		parent := it.stack[len(it.stack)-1]
		state, path, ok := it.nextChild(parent)
		if ok {
			if err := state.resolve(it.trie, path); err != nil {
				return parent, &parent.index, path, err
			}
			return state, &parent.index, path, nil
		}
		// No more child nodes, move back up.
		it.pop()
	}
	return nil, nil, nil, errIteratorEnd
}

func (st *nodeIteratorState) resolve(tr *Trie, path []byte) error {
	if hash, ok := st.node.(hashNode); ok {
		resolved, err := tr.resolveHash(hash, path)
		if err != nil {
			return err
		}
		st.node = resolved
	}
	return nil
}

func (it *nodeIterator) nextChild(parent *nodeIteratorState) (*nodeIteratorState, []byte, bool) {
	switch node := parent.node.(type) {
	case *fullNode:
		// Full node, move to the first non-nil child.
		for i := parent.index + 1; i < len(node.Children); i++ {
			child := node.Children[i]
			if child != nil {
				state := &nodeIteratorState{
					node:    child,
					index:   -1,
					pathlen: len(it.path),
				}
				path := append(it.path, byte(i))
				parent.index = i - 1
				return state, path, true
			}
		}
	case *shortNode:
		// Short node, return the pointer singleton child
		if parent.index < 0 {
			state := &nodeIteratorState{
				node:    node.Val,
				index:   -1,
				pathlen: len(it.path),
			}
			path := append(it.path, node.Key...)
			return state, path, true
		}
	}
	return parent, it.path, false
}

func (it *nodeIterator) push(state *nodeIteratorState, parentIndex *int, path []byte) {
	it.path = path
	it.stack = append(it.stack, state)
	if parentIndex != nil {
		*parentIndex++
	}
}

func (it *nodeIterator) pop() {
	parent := it.stack[len(it.stack)-1]
	it.path = it.path[:parent.pathlen]
	it.stack = it.stack[:len(it.stack)-1]
}
