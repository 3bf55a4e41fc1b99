// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/brcdchain/brcd/metrics"

var metricAccountCounter = metrics.LazyLoadCounterVec("account_state_count", []string{"type"})
