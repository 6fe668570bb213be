package fees

import "math/big"

// MaxBasisPoints is the denominator of the fee schedule: 10,000 bps == 100%.
const MaxBasisPoints uint32 = 10_000

// ValidBasisPoints reports whether the supplied rate is within [0, 10000].
func ValidBasisPoints(bps uint32) bool {
	return bps <= MaxBasisPoints
}

// Split divides a gross amount into the fee owed at the supplied basis-point
// rate and the remaining net. The fee is floored by integer division so
// fee + net always equals the gross amount exactly. Split never transfers
// value; callers are responsible for crediting both halves.
func Split(amount *big.Int, bps uint32) (fee, net *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	gross := new(big.Int).Set(amount)
	if bps == 0 {
		return big.NewInt(0), gross
	}
	fee = new(big.Int).Mul(gross, new(big.Int).SetUint64(uint64(bps)))
	fee.Div(fee, big.NewInt(int64(MaxBasisPoints)))
	net = new(big.Int).Sub(gross, fee)
	return fee, net
}
