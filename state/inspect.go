// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/brcdchain/brcd/brc"
)

type accountSummary struct {
	Address  string        `json:"address"`
	Balance  string        `json:"balance"`
	Ballot   string        `json:"ballot"`
	Poll     string        `json:"poll"`
	Nonce    string        `json:"nonce"`
	BRC      string        `json:"brc"`
	FBRC     string        `json:"fbrc"`
	FBalance string        `json:"fbalance"`
	Votes    []voteSummary `json:"votes"`
}

type voteSummary struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// AccountJSON returns a JSON summary of the account at addr, for diagnostics
// and RPC inspection. Absent accounts yield an empty string.
func (s *State) AccountJSON(addr brc.Address) (string, error) {
	a, err := s.account(addr)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "", nil
	}

	summary := accountSummary{
		Address:  addr.String(),
		Balance:  a.Balance().String(),
		Ballot:   a.Ballot().String(),
		Poll:     a.Poll().String(),
		Nonce:    a.Nonce().String(),
		BRC:      a.BRC().String(),
		FBRC:     a.FBRC().String(),
		FBalance: a.FBalance().String(),
		Votes:    []voteSummary{},
	}
	for receiver, v := range a.voteLedger {
		summary.Votes = append(summary.Votes, voteSummary{receiver.String(), v.String()})
	}
	sort.Slice(summary.Votes, func(i, j int) bool {
		return bytes.Compare([]byte(summary.Votes[i].Address), []byte(summary.Votes[j].Address)) < 0
	})

	data, err := json.MarshalIndent(&summary, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
