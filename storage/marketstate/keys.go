package marketstate

import (
	"encoding/hex"
	"strconv"
)

var (
	ownerKey            = []byte("market/owner")
	feePolicyKey        = []byte("market/fees")
	whitelistPrefix     = []byte("market/whitelist/")
	vendorPrefix        = []byte("market/vendor/")
	nativeBalancePrefix = []byte("market/balance/native/")
	tokenBalancePrefix  = []byte("market/balance/token/")
)

func whitelistKey(asset [20]byte) []byte {
	return appendHex(whitelistPrefix, asset[:])
}

func vendorKey(id uint64) []byte {
	encoded := strconv.FormatUint(id, 10)
	buf := make([]byte, len(vendorPrefix)+len(encoded))
	copy(buf, vendorPrefix)
	copy(buf[len(vendorPrefix):], encoded)
	return buf
}

func nativeBalanceKey(holder [20]byte) []byte {
	return appendHex(nativeBalancePrefix, holder[:])
}

func tokenBalanceKey(asset, holder [20]byte) []byte {
	buf := appendHex(tokenBalancePrefix, asset[:])
	buf = append(buf, '/')
	encoded := make([]byte, hex.EncodedLen(len(holder)))
	hex.Encode(encoded, holder[:])
	return append(buf, encoded...)
}

func appendHex(prefix, raw []byte) []byte {
	encoded := make([]byte, hex.EncodedLen(len(raw)))
	hex.Encode(encoded, raw)
	buf := make([]byte, 0, len(prefix)+len(encoded))
	buf = append(buf, prefix...)
	return append(buf, encoded...)
}
