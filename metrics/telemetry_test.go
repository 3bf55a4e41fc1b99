// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopByDefault(t *testing.T) {
	// meters resolve to the noop service until prometheus is initialized
	c := Counter("test_count")
	assert.NotPanics(t, func() { c.Add(1) })

	cv := CounterVec("test_count_vec", []string{"type"})
	assert.NotPanics(t, func() { cv.AddWithLabel(1, map[string]string{"type": "x"}) })

	g := Gauge("test_gauge")
	assert.NotPanics(t, func() { g.Set(42) })
}

func TestLazyLoad(t *testing.T) {
	calls := 0
	load := LazyLoad(func() int {
		calls++
		return 7
	})
	assert.Equal(t, 7, load())
	assert.Equal(t, 7, load())
	assert.Equal(t, 1, calls)
}
