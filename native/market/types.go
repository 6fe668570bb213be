package market

import "math/big"

// NativeAsset is the sentinel asset identifier carried by purchase and
// withdrawal records denominated in the native currency.
var NativeAsset = [20]byte{}

// FeePolicy captures the basis-point rate applied to every purchase and the
// address credited with the resulting fee share.
type FeePolicy struct {
	BasisPoints uint32
	Recipient   [20]byte
}

func isZeroAddress(addr [20]byte) bool {
	return addr == ([20]byte{})
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
