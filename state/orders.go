// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"

	"github.com/holiman/uint256"

	"github.com/brcdchain/brcd/brc"
)

// PendingOrderKind is the kind of an exchange pending order.
type PendingOrderKind byte

const (
	BuyBRCOrder PendingOrderKind = iota
	SellBRCOrder
	BuyFuelOrder
	SellFuelOrder
)

func (k PendingOrderKind) String() string {
	switch k {
	case BuyBRCOrder:
		return "buy-brc"
	case SellBRCOrder:
		return "sell-brc"
	case BuyFuelOrder:
		return "buy-fuel"
	case SellFuelOrder:
		return "sell-fuel"
	}
	return "unknown"
}

// PlacePendingOrder freezes the assets backing an order on the originator:
// the paying pool decreases and its frozen counterpart increases by the same
// amount. Counterparties are untouched until the order book (external to this
// engine) matches the order.
func (s *State) PlacePendingOrder(kind PendingOrderKind, addr brc.Address, value, price *uint256.Int) error {
	total := new(uint256.Int).Mul(value, price)

	switch kind {
	case BuyBRCOrder:
		if err := s.SubBalance(addr, total); err != nil {
			return err
		}
		return s.AddFBalance(addr, total)
	case SellBRCOrder:
		if err := s.SubBRC(addr, value); err != nil {
			return err
		}
		return s.AddFBRC(addr, value)
	case BuyFuelOrder:
		if err := s.SubBRC(addr, total); err != nil {
			return err
		}
		return s.AddFBRC(addr, total)
	case SellFuelOrder:
		if err := s.SubBalance(addr, value); err != nil {
			return err
		}
		return s.AddFBalance(addr, value)
	}
	return errors.WithMessage(ErrInterfaceNotSupported, "state.PlacePendingOrder()")
}

// CancelPendingOrder reverses the freeze of PlacePendingOrder for the same
// order kind and amounts: the frozen pool decreases and the paying pool is
// credited back.
func (s *State) CancelPendingOrder(kind PendingOrderKind, addr brc.Address, value, price *uint256.Int) error {
	total := new(uint256.Int).Mul(value, price)

	switch kind {
	case BuyBRCOrder:
		if err := s.SubFBalance(addr, total); err != nil {
			return err
		}
		return s.AddBalance(addr, total)
	case SellBRCOrder:
		if err := s.SubFBRC(addr, value); err != nil {
			return err
		}
		return s.AddBRC(addr, value)
	case BuyFuelOrder:
		if err := s.SubFBRC(addr, total); err != nil {
			return err
		}
		return s.AddBRC(addr, total)
	case SellFuelOrder:
		if err := s.SubFBalance(addr, value); err != nil {
			return err
		}
		return s.AddBalance(addr, value)
	}
	return errors.WithMessage(ErrInterfaceNotSupported, "state.CancelPendingOrder()")
}
