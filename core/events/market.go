package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"pullmarket/core/types"
)

const (
	// TypeVendorRegistered is emitted whenever the owner registers or
	// overwrites a vendor payout address.
	TypeVendorRegistered = "market.vendor_registered"
	// TypePurchase is emitted after a purchase has been split and credited.
	TypePurchase = "market.purchase"
	// TypeWithdrawal is emitted once a holder drains an accumulated balance.
	TypeWithdrawal = "market.withdrawal"
	// TypeOwnershipTransferred is emitted when the market owner changes.
	TypeOwnershipTransferred = "market.ownership_transferred"
	// TypeWhitelistUpdated is emitted when an asset is added to or removed
	// from the purchase whitelist.
	TypeWhitelistUpdated = "market.whitelist_updated"
	// TypeFeeUpdated is emitted when the fee basis points or recipient change.
	TypeFeeUpdated = "market.fee_updated"
)

// VendorRegistered captures a vendor id being bound to a payout address.
type VendorRegistered struct {
	VendorID uint64
	Address  [20]byte
}

func (VendorRegistered) EventType() string { return TypeVendorRegistered }

func (e VendorRegistered) Event() *types.Event {
	return &types.Event{
		Type: TypeVendorRegistered,
		Attributes: map[string]string{
			"vendorId": strconv.FormatUint(e.VendorID, 10),
			"address":  withHexPrefix(e.Address[:]),
		},
	}
}

// Purchase records a settled purchase. Asset carries the zero address for
// native-denominated purchases.
type Purchase struct {
	Buyer     [20]byte
	VendorID  uint64
	OrderID   uint64
	NetAmount *big.Int
	Asset     [20]byte
}

func (Purchase) EventType() string { return TypePurchase }

func (e Purchase) Event() *types.Event {
	return &types.Event{
		Type: TypePurchase,
		Attributes: map[string]string{
			"buyer":     withHexPrefix(e.Buyer[:]),
			"vendorId":  strconv.FormatUint(e.VendorID, 10),
			"orderId":   strconv.FormatUint(e.OrderID, 10),
			"netAmount": formatAmount(e.NetAmount),
			"asset":     withHexPrefix(e.Asset[:]),
		},
	}
}

// Withdrawal records a holder draining a native or token balance.
type Withdrawal struct {
	Holder [20]byte
	Asset  [20]byte
	Amount *big.Int
}

func (Withdrawal) EventType() string { return TypeWithdrawal }

func (e Withdrawal) Event() *types.Event {
	return &types.Event{
		Type: TypeWithdrawal,
		Attributes: map[string]string{
			"holder": withHexPrefix(e.Holder[:]),
			"asset":  withHexPrefix(e.Asset[:]),
			"amount": formatAmount(e.Amount),
		},
	}
}

// OwnershipTransferred records a change of the administrative owner.
type OwnershipTransferred struct {
	PreviousOwner [20]byte
	NewOwner      [20]byte
}

func (OwnershipTransferred) EventType() string { return TypeOwnershipTransferred }

func (e OwnershipTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeOwnershipTransferred,
		Attributes: map[string]string{
			"previousOwner": withHexPrefix(e.PreviousOwner[:]),
			"newOwner":      withHexPrefix(e.NewOwner[:]),
		},
	}
}

// WhitelistUpdated records an asset entering or leaving the whitelist.
type WhitelistUpdated struct {
	Asset       [20]byte
	Whitelisted bool
}

func (WhitelistUpdated) EventType() string { return TypeWhitelistUpdated }

func (e WhitelistUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeWhitelistUpdated,
		Attributes: map[string]string{
			"asset":       withHexPrefix(e.Asset[:]),
			"whitelisted": strconv.FormatBool(e.Whitelisted),
		},
	}
}

// FeeUpdated records the fee policy after an owner mutation.
type FeeUpdated struct {
	BasisPoints uint32
	Recipient   [20]byte
}

func (FeeUpdated) EventType() string { return TypeFeeUpdated }

func (e FeeUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeFeeUpdated,
		Attributes: map[string]string{
			"basisPoints": strconv.FormatUint(uint64(e.BasisPoints), 10),
			"recipient":   withHexPrefix(e.Recipient[:]),
		},
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func withHexPrefix(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	return "0x" + hex.EncodeToString(raw)
}
