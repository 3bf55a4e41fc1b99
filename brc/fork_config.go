// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package brc

import (
	"fmt"
	"math"
	"strings"
)

// ForkConfig config for a fork.
// Block numbers gate behavior switches of the state engine: EmptyRemoval
// turns on removal of empty accounts at commit, StatusReceipt switches
// transaction receipts from post-state roots to status codes.
type ForkConfig struct {
	EmptyRemoval  uint32
	StatusReceipt uint32
}

func (fc ForkConfig) String() string {
	var strs []string
	push := func(name string, blockNum uint32) {
		if blockNum != math.MaxUint32 {
			strs = append(strs, fmt.Sprintf("%v: #%v", name, blockNum))
		}
	}

	push("EMPTYRM", fc.EmptyRemoval)
	push("STATUSRC", fc.StatusReceipt)

	return strings.Join(strs, ", ")
}

// NoFork a special config without any forks.
var NoFork = ForkConfig{
	EmptyRemoval:  math.MaxUint32,
	StatusReceipt: math.MaxUint32,
}

// forkConfigs for well-known networks, keyed by genesis ID.
var forkConfigs = map[Bytes32]ForkConfig{
	// mainnet
	MustParseBytes32("0x00000000c5f5c611cfd07a9f2e3d4851a7e8fbd9a3a92ccbf88c168aa2e12f9b"): {
		EmptyRemoval:  0,
		StatusReceipt: 0,
	},
}

// GetForkConfig get fork config for given genesis ID.
func GetForkConfig(genesisID Bytes32) ForkConfig {
	if fc, ok := forkConfigs[genesisID]; ok {
		return fc
	}
	return NoFork
}
