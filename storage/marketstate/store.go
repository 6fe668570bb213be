package marketstate

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"pullmarket/native/market"
	"pullmarket/storage"
)

// Store persists the market ledger in a key-value database. It implements the
// engine's State interface; one instance owns the balance tables exclusively
// and the engine serializes access to it.
type Store struct {
	db storage.Database
}

var _ market.State = (*Store)(nil)

// NewStore wraps a database in a market state backend.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

type storedFeePolicy struct {
	BasisPoints uint32
	Recipient   [20]byte
}

// Owner returns the stored owner, or the zero address when the ledger has not
// been initialized yet.
func (s *Store) Owner() ([20]byte, error) {
	raw, err := s.db.Get(ownerKey)
	if errors.Is(err, storage.ErrNotFound) {
		return [20]byte{}, nil
	}
	if err != nil {
		return [20]byte{}, err
	}
	return toAddress(raw)
}

func (s *Store) SetOwner(addr [20]byte) error {
	return s.db.Put(ownerKey, addr[:])
}

func (s *Store) FeePolicy() (market.FeePolicy, error) {
	raw, err := s.db.Get(feePolicyKey)
	if errors.Is(err, storage.ErrNotFound) {
		return market.FeePolicy{}, nil
	}
	if err != nil {
		return market.FeePolicy{}, err
	}
	var stored storedFeePolicy
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return market.FeePolicy{}, fmt.Errorf("marketstate: decode fee policy: %w", err)
	}
	return market.FeePolicy{BasisPoints: stored.BasisPoints, Recipient: stored.Recipient}, nil
}

func (s *Store) SetFeePolicy(policy market.FeePolicy) error {
	encoded, err := rlp.EncodeToBytes(storedFeePolicy{BasisPoints: policy.BasisPoints, Recipient: policy.Recipient})
	if err != nil {
		return fmt.Errorf("marketstate: encode fee policy: %w", err)
	}
	return s.db.Put(feePolicyKey, encoded)
}

func (s *Store) Whitelisted(asset [20]byte) (bool, error) {
	return s.db.Has(whitelistKey(asset))
}

func (s *Store) SetWhitelisted(asset [20]byte, whitelisted bool) error {
	if whitelisted {
		return s.db.Put(whitelistKey(asset), []byte{0x01})
	}
	return s.db.Delete(whitelistKey(asset))
}

func (s *Store) Vendor(id uint64) ([20]byte, bool, error) {
	raw, err := s.db.Get(vendorKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return [20]byte{}, false, nil
	}
	if err != nil {
		return [20]byte{}, false, err
	}
	addr, err := toAddress(raw)
	if err != nil {
		return [20]byte{}, false, err
	}
	return addr, true, nil
}

func (s *Store) PutVendor(id uint64, addr [20]byte) error {
	return s.db.Put(vendorKey(id), addr[:])
}

func (s *Store) NativeBalance(holder [20]byte) (*big.Int, error) {
	return s.balance(nativeBalanceKey(holder))
}

func (s *Store) SetNativeBalance(holder [20]byte, amount *big.Int) error {
	return s.setBalance(nativeBalanceKey(holder), amount)
}

func (s *Store) TokenBalance(asset, holder [20]byte) (*big.Int, error) {
	return s.balance(tokenBalanceKey(asset, holder))
}

func (s *Store) SetTokenBalance(asset, holder [20]byte, amount *big.Int) error {
	return s.setBalance(tokenBalanceKey(asset, holder), amount)
}

// balance returns a zero amount for holders that were never credited. A zero
// byte payload is a valid stored state: fully withdrawn entries stay present.
func (s *Store) balance(key []byte) (*big.Int, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(raw, amount); err != nil {
		return nil, fmt.Errorf("marketstate: decode balance: %w", err)
	}
	return amount, nil
}

func (s *Store) setBalance(key []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("marketstate: balance must be a non-negative amount")
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return fmt.Errorf("marketstate: encode balance: %w", err)
	}
	return s.db.Put(key, encoded)
}

func toAddress(raw []byte) ([20]byte, error) {
	var addr [20]byte
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("marketstate: malformed address record of %d bytes", len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}
