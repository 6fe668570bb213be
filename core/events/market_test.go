package events

import (
	"math/big"
	"testing"
)

func TestPurchaseEventAttributes(t *testing.T) {
	buyer := [20]byte{0x55}
	asset := [20]byte{0xAA}
	net, _ := new(big.Int).SetString("990000000000000000", 10)

	evt := Purchase{Buyer: buyer, VendorID: 7, OrderID: 3, NetAmount: net, Asset: asset}.Event()
	if evt.Type != TypePurchase {
		t.Fatalf("unexpected type %q", evt.Type)
	}
	if got := evt.Attributes["vendorId"]; got != "7" {
		t.Fatalf("unexpected vendorId %q", got)
	}
	if got := evt.Attributes["orderId"]; got != "3" {
		t.Fatalf("unexpected orderId %q", got)
	}
	if got := evt.Attributes["netAmount"]; got != "990000000000000000" {
		t.Fatalf("unexpected netAmount %q", got)
	}
	if got := evt.Attributes["buyer"]; got != "0x5500000000000000000000000000000000000000" {
		t.Fatalf("unexpected buyer %q", got)
	}
}

func TestPurchaseEventNativeSentinel(t *testing.T) {
	evt := Purchase{NetAmount: big.NewInt(1)}.Event()
	if got := evt.Attributes["asset"]; got != "0x0000000000000000000000000000000000000000" {
		t.Fatalf("native purchases must carry the zero asset, got %q", got)
	}
}

func TestPurchaseEventNilAmount(t *testing.T) {
	evt := Purchase{}.Event()
	if got := evt.Attributes["netAmount"]; got != "0" {
		t.Fatalf("nil amounts must format as zero, got %q", got)
	}
}

func TestVendorRegisteredEvent(t *testing.T) {
	addr := [20]byte{0x22}
	evt := VendorRegistered{VendorID: 9, Address: addr}.Event()
	if evt.Type != TypeVendorRegistered {
		t.Fatalf("unexpected type %q", evt.Type)
	}
	if got := evt.Attributes["vendorId"]; got != "9" {
		t.Fatalf("unexpected vendorId %q", got)
	}
	if got := evt.Attributes["address"]; got != "0x2200000000000000000000000000000000000000" {
		t.Fatalf("unexpected address %q", got)
	}
}
