package market

import (
	"fmt"
	"math/big"
	"sync"

	"pullmarket/core/events"
	"pullmarket/native/fees"
)

// State is the narrow persistence surface required by the market engine. The
// zero owner address marks an uninitialized ledger; balance getters return a
// zero amount for holders that were never credited.
type State interface {
	Owner() ([20]byte, error)
	SetOwner(addr [20]byte) error
	FeePolicy() (FeePolicy, error)
	SetFeePolicy(policy FeePolicy) error
	Whitelisted(asset [20]byte) (bool, error)
	SetWhitelisted(asset [20]byte, whitelisted bool) error
	Vendor(id uint64) ([20]byte, bool, error)
	PutVendor(id uint64, addr [20]byte) error
	NativeBalance(holder [20]byte) (*big.Int, error)
	SetNativeBalance(holder [20]byte, amount *big.Int) error
	TokenBalance(asset, holder [20]byte) (*big.Int, error)
	SetTokenBalance(asset, holder [20]byte, amount *big.Int) error
}

// Engine orchestrates purchases and withdrawals over the ledger state. A
// single mutex serializes every mutating operation, standing in for the
// per-transaction serialization the original execution environment provided.
type Engine struct {
	mu      sync.Mutex
	state   State
	emitter events.Emitter
	tokens  TokenResolver
	native  NativeTransferrer
	custody [20]byte
}

// NewEngine creates a market engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine(state State) *Engine {
	return &Engine{
		state:   state,
		emitter: events.NoopEmitter{},
	}
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetTokenResolver configures the client used to reach whitelisted assets.
func (e *Engine) SetTokenResolver(resolver TokenResolver) { e.tokens = resolver }

// SetNativeTransferrer configures the payout path for native withdrawals.
func (e *Engine) SetNativeTransferrer(native NativeTransferrer) { e.native = native }

// SetCustody configures the address that holds pulled token funds on behalf
// of the ledger.
func (e *Engine) SetCustody(addr [20]byte) { e.custody = addr }

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

// Initialize seeds the owner and fee policy on first boot. It fails if the
// ledger already has an owner, so restarting a configured daemon never
// clobbers state mutated through administrative operations since.
func (e *Engine) Initialize(owner, feeRecipient [20]byte, feeBasisPoints uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if isZeroAddress(owner) || isZeroAddress(feeRecipient) {
		return errZeroAddress
	}
	if !fees.ValidBasisPoints(feeBasisPoints) {
		return errFeeOutOfRange
	}
	current, err := e.state.Owner()
	if err != nil {
		return err
	}
	if !isZeroAddress(current) {
		return fmt.Errorf("market: ledger already initialized")
	}
	if err := e.state.SetOwner(owner); err != nil {
		return err
	}
	return e.state.SetFeePolicy(FeePolicy{BasisPoints: feeBasisPoints, Recipient: feeRecipient})
}

func (e *Engine) requireOwner(caller [20]byte) error {
	owner, err := e.state.Owner()
	if err != nil {
		return err
	}
	if isZeroAddress(owner) {
		return errNotInitialized
	}
	if caller != owner {
		return ErrUnauthorized
	}
	return nil
}

// TransferOwnership replaces the administrative owner. Only the current owner
// may invoke it and the replacement must be a non-zero address.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if isZeroAddress(newOwner) {
		return errZeroAddress
	}
	if err := e.state.SetOwner(newOwner); err != nil {
		return err
	}
	e.emit(events.OwnershipTransferred{PreviousOwner: caller, NewOwner: newOwner})
	return nil
}

// AddToWhitelist approves an asset for token purchases. Re-adding an already
// whitelisted asset is a no-op.
func (e *Engine) AddToWhitelist(caller, asset [20]byte) error {
	return e.setWhitelisted(caller, asset, true)
}

// RemoveFromWhitelist revokes an asset. Removing an absent asset is a no-op.
func (e *Engine) RemoveFromWhitelist(caller, asset [20]byte) error {
	return e.setWhitelisted(caller, asset, false)
}

func (e *Engine) setWhitelisted(caller, asset [20]byte, whitelisted bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if isZeroAddress(asset) {
		return errZeroAddress
	}
	current, err := e.state.Whitelisted(asset)
	if err != nil {
		return err
	}
	if current == whitelisted {
		return nil
	}
	if err := e.state.SetWhitelisted(asset, whitelisted); err != nil {
		return err
	}
	e.emit(events.WhitelistUpdated{Asset: asset, Whitelisted: whitelisted})
	return nil
}

// RegisterVendor binds a vendor id to a payout address, overwriting any prior
// registration for the same id.
func (e *Engine) RegisterVendor(caller [20]byte, id uint64, addr [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.PutVendor(id, addr); err != nil {
		return err
	}
	e.emit(events.VendorRegistered{VendorID: id, Address: addr})
	return nil
}

// UpdateVendorAddress replaces the payout address for a vendor id. It behaves
// identically to RegisterVendor, including for ids never registered before.
func (e *Engine) UpdateVendorAddress(caller [20]byte, id uint64, addr [20]byte) error {
	return e.RegisterVendor(caller, id, addr)
}

// UpdateFeeBasisPoints sets the fee rate. Rates above 10,000 bps are rejected.
func (e *Engine) UpdateFeeBasisPoints(caller [20]byte, bps uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if !fees.ValidBasisPoints(bps) {
		return errFeeOutOfRange
	}
	policy, err := e.state.FeePolicy()
	if err != nil {
		return err
	}
	policy.BasisPoints = bps
	if err := e.state.SetFeePolicy(policy); err != nil {
		return err
	}
	e.emit(events.FeeUpdated{BasisPoints: policy.BasisPoints, Recipient: policy.Recipient})
	return nil
}

// UpdateFeeRecipient sets the address credited with fee shares.
func (e *Engine) UpdateFeeRecipient(caller, recipient [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if isZeroAddress(recipient) {
		return errZeroAddress
	}
	policy, err := e.state.FeePolicy()
	if err != nil {
		return err
	}
	policy.Recipient = recipient
	if err := e.state.SetFeePolicy(policy); err != nil {
		return err
	}
	e.emit(events.FeeUpdated{BasisPoints: policy.BasisPoints, Recipient: policy.Recipient})
	return nil
}

// PurchaseNative records a purchase paid in native currency. The value has
// already been attached to the call by the transport, so no inward transfer
// can fail here; validation and the fee split happen before any credit.
func (e *Engine) PurchaseNative(buyer [20]byte, vendorID, orderID uint64, value *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	amount := cloneBigInt(value)
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	vendorAddr, policy, err := e.resolvePurchase(vendorID)
	if err != nil {
		return err
	}
	fee, net := fees.Split(amount, policy.BasisPoints)
	if err := e.creditNative(vendorAddr, net, policy.Recipient, fee); err != nil {
		return err
	}
	e.emit(events.Purchase{Buyer: buyer, VendorID: vendorID, OrderID: orderID, NetAmount: net, Asset: NativeAsset})
	return nil
}

// PurchaseToken records a purchase paid in a whitelisted asset. The amount is
// pulled from the buyer into custody before any balance is credited; a failed
// pull aborts with no state change.
func (e *Engine) PurchaseToken(buyer [20]byte, vendorID, orderID uint64, value *big.Int, asset [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.tokens == nil {
		return errNilTokens
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	amount := cloneBigInt(value)
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	vendorAddr, policy, err := e.resolvePurchase(vendorID)
	if err != nil {
		return err
	}
	whitelisted, err := e.state.Whitelisted(asset)
	if err != nil {
		return err
	}
	if !whitelisted {
		return ErrAssetNotWhitelisted
	}
	token, err := e.tokens.Token(asset)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := token.TransferFrom(buyer, e.custody, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	fee, net := fees.Split(amount, policy.BasisPoints)
	if err := e.creditToken(asset, vendorAddr, net, policy.Recipient, fee); err != nil {
		return err
	}
	e.emit(events.Purchase{Buyer: buyer, VendorID: vendorID, OrderID: orderID, NetAmount: net, Asset: asset})
	return nil
}

func (e *Engine) resolvePurchase(vendorID uint64) ([20]byte, FeePolicy, error) {
	vendorAddr, ok, err := e.state.Vendor(vendorID)
	if err != nil {
		return [20]byte{}, FeePolicy{}, err
	}
	if !ok || isZeroAddress(vendorAddr) {
		return [20]byte{}, FeePolicy{}, ErrUnknownVendor
	}
	policy, err := e.state.FeePolicy()
	if err != nil {
		return [20]byte{}, FeePolicy{}, err
	}
	if isZeroAddress(policy.Recipient) {
		return [20]byte{}, FeePolicy{}, errNotInitialized
	}
	return vendorAddr, policy, nil
}

// creditNative adds the net and fee shares to the native table. The vendor and
// fee recipient may be the same holder, so the fee credit re-reads the balance
// after the net credit has landed. A failed second write restores the first.
func (e *Engine) creditNative(vendor [20]byte, net *big.Int, recipient [20]byte, fee *big.Int) error {
	prior, err := e.addNative(vendor, net)
	if err != nil {
		return err
	}
	if fee.Sign() == 0 {
		return nil
	}
	if _, err := e.addNative(recipient, fee); err != nil {
		if restoreErr := e.state.SetNativeBalance(vendor, prior); restoreErr != nil {
			return fmt.Errorf("market: credit failed (%v) and rollback failed: %w", err, restoreErr)
		}
		return err
	}
	return nil
}

func (e *Engine) creditToken(asset, vendor [20]byte, net *big.Int, recipient [20]byte, fee *big.Int) error {
	prior, err := e.addToken(asset, vendor, net)
	if err != nil {
		return err
	}
	if fee.Sign() == 0 {
		return nil
	}
	if _, err := e.addToken(asset, recipient, fee); err != nil {
		if restoreErr := e.state.SetTokenBalance(asset, vendor, prior); restoreErr != nil {
			return fmt.Errorf("market: credit failed (%v) and rollback failed: %w", err, restoreErr)
		}
		return err
	}
	return nil
}

func (e *Engine) addNative(holder [20]byte, amount *big.Int) (*big.Int, error) {
	balance, err := e.state.NativeBalance(holder)
	if err != nil {
		return nil, err
	}
	prior := cloneBigInt(balance)
	if err := e.state.SetNativeBalance(holder, new(big.Int).Add(prior, amount)); err != nil {
		return nil, err
	}
	return prior, nil
}

func (e *Engine) addToken(asset, holder [20]byte, amount *big.Int) (*big.Int, error) {
	balance, err := e.state.TokenBalance(asset, holder)
	if err != nil {
		return nil, err
	}
	prior := cloneBigInt(balance)
	if err := e.state.SetTokenBalance(asset, holder, new(big.Int).Add(prior, amount)); err != nil {
		return nil, err
	}
	return prior, nil
}

// Withdraw drains the caller's native balance. The balance is zeroed before
// the outward transfer is attempted so a reentrant call during the payout
// observes nothing left to withdraw; a failed payout restores the balance and
// fails the whole operation.
func (e *Engine) Withdraw(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.native == nil {
		return nil, errNilNative
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	balance, err := e.state.NativeBalance(caller)
	if err != nil {
		return nil, err
	}
	amount := cloneBigInt(balance)
	if amount.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := e.state.SetNativeBalance(caller, big.NewInt(0)); err != nil {
		return nil, err
	}
	if err := e.native.Transfer(caller, amount); err != nil {
		if restoreErr := e.state.SetNativeBalance(caller, amount); restoreErr != nil {
			return nil, fmt.Errorf("market: payout failed (%v) and rollback failed: %w", err, restoreErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	e.emit(events.Withdrawal{Holder: caller, Asset: NativeAsset, Amount: amount})
	return amount, nil
}

// WithdrawToken drains the caller's balance for a single asset with the same
// zero-then-transfer ordering as the native variant.
func (e *Engine) WithdrawToken(caller, asset [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.tokens == nil {
		return nil, errNilTokens
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	balance, err := e.state.TokenBalance(asset, caller)
	if err != nil {
		return nil, err
	}
	amount := cloneBigInt(balance)
	if amount.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	token, err := e.tokens.Token(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.state.SetTokenBalance(asset, caller, big.NewInt(0)); err != nil {
		return nil, err
	}
	if err := token.Transfer(caller, amount); err != nil {
		if restoreErr := e.state.SetTokenBalance(asset, caller, amount); restoreErr != nil {
			return nil, fmt.Errorf("market: payout failed (%v) and rollback failed: %w", err, restoreErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	e.emit(events.Withdrawal{Holder: caller, Asset: asset, Amount: amount})
	return amount, nil
}

// Owner returns the current administrative owner.
func (e *Engine) Owner() ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	return e.state.Owner()
}

// Fees returns the active fee policy.
func (e *Engine) Fees() (FeePolicy, error) {
	if e == nil || e.state == nil {
		return FeePolicy{}, errNilState
	}
	return e.state.FeePolicy()
}

// Vendor resolves a vendor id to its payout address. Unregistered ids resolve
// to the zero address.
func (e *Engine) Vendor(id uint64) ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	addr, ok, err := e.state.Vendor(id)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, nil
	}
	return addr, nil
}

// IsWhitelisted reports whether an asset may be used in token purchases.
func (e *Engine) IsWhitelisted(asset [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.Whitelisted(asset)
}

// Payments returns the holder's accumulated native balance.
func (e *Engine) Payments(holder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, err := e.state.NativeBalance(holder)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(balance), nil
}

// TokenBalance returns the holder's accumulated balance for a single asset.
func (e *Engine) TokenBalance(asset, holder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, err := e.state.TokenBalance(asset, holder)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(balance), nil
}
