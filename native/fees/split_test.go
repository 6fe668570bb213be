package fees

import (
	"math/big"
	"testing"
)

func TestSplitConservesValue(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		bps    uint32
		fee    string
		net    string
	}{
		{name: "one percent of six-decimal units", amount: "10000000", bps: 100, fee: "100000", net: "9900000"},
		{name: "one percent of eighteen-decimal units", amount: "1000000000000000000", bps: 100, fee: "10000000000000000", net: "990000000000000000"},
		{name: "zero rate", amount: "12345", bps: 0, fee: "0", net: "12345"},
		{name: "full rate", amount: "12345", bps: 10000, fee: "12345", net: "0"},
		{name: "floor on odd amount", amount: "9999", bps: 1, fee: "0", net: "9999"},
		{name: "floor drops remainder", amount: "10001", bps: 150, fee: "150", net: "9851"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, ok := new(big.Int).SetString(tc.amount, 10)
			if !ok {
				t.Fatalf("invalid amount fixture %q", tc.amount)
			}
			fee, net := Split(amount, tc.bps)
			if fee.String() != tc.fee {
				t.Fatalf("expected fee %s, got %s", tc.fee, fee)
			}
			if net.String() != tc.net {
				t.Fatalf("expected net %s, got %s", tc.net, net)
			}
			sum := new(big.Int).Add(fee, net)
			if sum.Cmp(amount) != 0 {
				t.Fatalf("fee %s + net %s != amount %s", fee, net, amount)
			}
		})
	}
}

func TestSplitDefensiveInputs(t *testing.T) {
	fee, net := Split(nil, 500)
	if fee.Sign() != 0 || net.Sign() != 0 {
		t.Fatalf("expected zero split for nil amount, got fee=%s net=%s", fee, net)
	}
	fee, net = Split(big.NewInt(-5), 500)
	if fee.Sign() != 0 || net.Sign() != 0 {
		t.Fatalf("expected zero split for negative amount, got fee=%s net=%s", fee, net)
	}
	original := big.NewInt(777)
	Split(original, 333)
	if original.Int64() != 777 {
		t.Fatalf("Split mutated its input: %s", original)
	}
}

func TestValidBasisPoints(t *testing.T) {
	if !ValidBasisPoints(0) || !ValidBasisPoints(10000) {
		t.Fatalf("expected boundary rates to be valid")
	}
	if ValidBasisPoints(10001) {
		t.Fatalf("expected rate above 10000 to be rejected")
	}
}
