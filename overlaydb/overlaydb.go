// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package overlaydb provides a write-buffered layer over the physical kv store.
// Puts are recorded in memory until Commit flushes them in one atomic batch.
// Reads fall through the buffer into a bounded node cache and finally the
// underlying store.
package overlaydb

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/qianbin/directcache"

	"github.com/brcdchain/brcd/kv"
)

var errNotFound = errors.New("not found")

// OverlayDB buffers writes on top of a kv store.
//
// It is safe for concurrent readers. A committing writer takes exclusive
// ownership of the flush path.
type OverlayDB struct {
	src   kv.GetPutter
	cache *directcache.Cache

	lock sync.RWMutex
	mem  map[string][]byte // pending writes, nil value marks deletion
}

// New creates an overlay over src, with a read cache of cacheSize bytes.
func New(src kv.GetPutter, cacheSize int) *OverlayDB {
	const minCacheSize = 1024 * 1024
	if cacheSize < minCacheSize {
		cacheSize = minCacheSize
	}
	return &OverlayDB{
		src:   src,
		cache: directcache.New(cacheSize),
		mem:   make(map[string][]byte),
	}
}

// IsNotFound checks if the error returned by Get indicates a missing key.
func (o *OverlayDB) IsNotFound(err error) bool {
	return errors.Cause(err) == errNotFound || o.src.IsNotFound(errors.Cause(err))
}

// Get queries the value for the given key, checking the write buffer first.
func (o *OverlayDB) Get(key []byte) ([]byte, error) {
	o.lock.RLock()
	v, buffered := o.mem[string(key)]
	o.lock.RUnlock()

	if buffered {
		if v == nil {
			return nil, errNotFound
		}
		return append([]byte(nil), v...), nil
	}

	if v, ok := o.cache.Get(key); ok {
		return v, nil
	}

	v, err := o.src.Get(key)
	if err != nil {
		return nil, err
	}
	o.cache.Set(key, v)
	return v, nil
}

// Has returns whether the key exists.
func (o *OverlayDB) Has(key []byte) (bool, error) {
	_, err := o.Get(key)
	if err != nil {
		if o.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Put records the write into the memory buffer.
func (o *OverlayDB) Put(key, value []byte) error {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.mem[string(key)] = append([]byte(nil), value...)
	o.cache.Del(key)
	return nil
}

// Delete records the deletion into the memory buffer.
func (o *OverlayDB) Delete(key []byte) error {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.mem[string(key)] = nil
	o.cache.Del(key)
	return nil
}

// Len returns the number of buffered writes.
func (o *OverlayDB) Len() int {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return len(o.mem)
}

// Commit flushes all buffered writes into the underlying store in one batch,
// then resets the buffer.
func (o *OverlayDB) Commit() error {
	o.lock.Lock()
	defer o.lock.Unlock()

	batch := o.src.NewBatch()
	for k, v := range o.mem {
		if v == nil {
			if err := batch.Delete([]byte(k)); err != nil {
				return errors.Wrap(err, "overlaydb commit")
			}
			continue
		}
		if err := batch.Put([]byte(k), v); err != nil {
			return errors.Wrap(err, "overlaydb commit")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "overlaydb commit")
	}
	o.mem = make(map[string][]byte)
	return nil
}
