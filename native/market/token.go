package market

import "math/big"

// Token is the interface any accepted fungible asset must satisfy. Transfer
// moves funds out of the ledger's custody, TransferFrom pulls approved funds
// from a buyer into custody. Both may fail; a failure aborts the enclosing
// ledger operation with no balance change.
type Token interface {
	Transfer(to [20]byte, amount *big.Int) error
	TransferFrom(from, to [20]byte, amount *big.Int) error
	BalanceOf(holder [20]byte) *big.Int
}

// TokenResolver maps a whitelisted asset identifier to its Token client.
type TokenResolver interface {
	Token(asset [20]byte) (Token, error)
}

// NativeTransferrer pays native currency out of the ledger's custody during
// withdrawals. Inbound native value is attached to the purchase call itself,
// so no pull direction exists here.
type NativeTransferrer interface {
	Transfer(to [20]byte, amount *big.Int) error
}
