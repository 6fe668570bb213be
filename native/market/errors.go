package market

import "errors"

var (
	// ErrUnauthorized is returned when a caller other than the current owner
	// invokes an administrative operation. The message matches the revert
	// reason expected by existing clients.
	ErrUnauthorized = errors.New("Ownable: caller is not the owner")
	// ErrInvalidAmount rejects zero-amount purchases. The message matches the
	// revert reason expected by existing clients.
	ErrInvalidAmount = errors.New("Amount must be greater than zero")
	// ErrUnknownVendor rejects purchases against an unregistered vendor id.
	ErrUnknownVendor = errors.New("market: unknown vendor")
	// ErrAssetNotWhitelisted rejects token purchases whose asset has not been
	// approved by the owner.
	ErrAssetNotWhitelisted = errors.New("market: asset not whitelisted")
	// ErrTransferFailed wraps a failed inward pull or outward payout. The
	// enclosing operation leaves all balances untouched.
	ErrTransferFailed = errors.New("market: transfer failed")
	// ErrNothingToWithdraw is returned when a holder attempts to drain a zero
	// balance.
	ErrNothingToWithdraw = errors.New("market: nothing to withdraw")

	errNilState       = errors.New("market engine: state not configured")
	errNilTokens      = errors.New("market engine: token resolver not configured")
	errNilNative      = errors.New("market engine: native transferrer not configured")
	errZeroAddress    = errors.New("market: address must not be the zero address")
	errFeeOutOfRange  = errors.New("market: fee basis points out of range")
	errNotInitialized = errors.New("market: ledger not initialized")
)
