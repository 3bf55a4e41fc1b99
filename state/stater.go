// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/brcdchain/brcd/brc"
	"github.com/brcdchain/brcd/overlaydb"
)

// Stater is the state creator.
type Stater struct {
	db   *overlaydb.OverlayDB
	conf Config
}

// NewStater create a new stater.
func NewStater(db *overlaydb.OverlayDB, conf *Config) *Stater {
	c := Config{}
	if conf != nil {
		c = *conf
	}
	return &Stater{db, c}
}

// NewState create a new state object anchored at root.
func (s *Stater) NewState(root brc.Bytes32) (*State, error) {
	return New(s.db, root, &s.conf)
}
