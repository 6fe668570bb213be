package marketstate

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"pullmarket/native/market"
	"pullmarket/storage"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestStoreOwnerRoundTrip(t *testing.T) {
	store := NewStore(storage.NewMemDB())

	owner, err := store.Owner()
	require.NoError(t, err)
	require.Equal(t, [20]byte{}, owner, "uninitialized store must report the zero owner")

	want := testAddr(0x01)
	require.NoError(t, store.SetOwner(want))

	owner, err = store.Owner()
	require.NoError(t, err)
	require.Equal(t, want, owner)
}

func TestStoreFeePolicyRoundTrip(t *testing.T) {
	store := NewStore(storage.NewMemDB())

	policy, err := store.FeePolicy()
	require.NoError(t, err)
	require.Equal(t, market.FeePolicy{}, policy)

	want := market.FeePolicy{BasisPoints: 250, Recipient: testAddr(0x02)}
	require.NoError(t, store.SetFeePolicy(want))

	policy, err = store.FeePolicy()
	require.NoError(t, err)
	require.Equal(t, want, policy)
}

func TestStoreWhitelistMembership(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	asset := testAddr(0xA1)

	ok, err := store.Whitelisted(asset)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetWhitelisted(asset, true))
	ok, err = store.Whitelisted(asset)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.SetWhitelisted(asset, false))
	ok, err = store.Whitelisted(asset)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetWhitelisted(asset, false), "removing an absent asset is a no-op")
}

func TestStoreVendorLookup(t *testing.T) {
	store := NewStore(storage.NewMemDB())

	_, ok, err := store.Vendor(7)
	require.NoError(t, err)
	require.False(t, ok)

	addr := testAddr(0x22)
	require.NoError(t, store.PutVendor(7, addr))

	got, ok, err := store.Vendor(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, addr, got)

	replacement := testAddr(0x33)
	require.NoError(t, store.PutVendor(7, replacement))
	got, ok, err = store.Vendor(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, replacement, got)
}

func TestStoreBalancesKeyedPerAssetAndHolder(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	holder := testAddr(0x55)
	other := testAddr(0x66)
	asset := testAddr(0xA1)

	bal, err := store.NativeBalance(holder)
	require.NoError(t, err)
	require.Zero(t, bal.Sign())

	require.NoError(t, store.SetNativeBalance(holder, big.NewInt(5000)))
	bal, err = store.NativeBalance(holder)
	require.NoError(t, err)
	require.Equal(t, "5000", bal.String())

	bal, err = store.NativeBalance(other)
	require.NoError(t, err)
	require.Zero(t, bal.Sign(), "native balances must be keyed per holder")

	amount, ok := new(big.Int).SetString("990000000000000000", 10)
	require.True(t, ok)
	require.NoError(t, store.SetTokenBalance(asset, holder, amount))

	got, err := store.TokenBalance(asset, holder)
	require.NoError(t, err)
	require.Equal(t, amount.String(), got.String())

	got, err = store.TokenBalance(asset, other)
	require.NoError(t, err)
	require.Zero(t, got.Sign(), "token balances must be keyed per holder")

	got, err = store.TokenBalance(testAddr(0xA2), holder)
	require.NoError(t, err)
	require.Zero(t, got.Sign(), "token balances must be keyed per asset")

	require.NoError(t, store.SetTokenBalance(asset, holder, big.NewInt(0)))
	got, err = store.TokenBalance(asset, holder)
	require.NoError(t, err)
	require.Zero(t, got.Sign(), "a drained balance is stored as zero, not deleted")

	require.Error(t, store.SetNativeBalance(holder, nil))
	require.Error(t, store.SetNativeBalance(holder, big.NewInt(-1)))
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := storage.NewLevelDB(dir)
	require.NoError(t, err)

	store := NewStore(db1)
	owner := testAddr(0x01)
	holder := testAddr(0x55)
	require.NoError(t, store.SetOwner(owner))
	require.NoError(t, store.SetFeePolicy(market.FeePolicy{BasisPoints: 100, Recipient: owner}))
	require.NoError(t, store.SetNativeBalance(holder, big.NewInt(9900)))
	db1.Close()

	db2, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	restored := NewStore(db2)
	gotOwner, err := restored.Owner()
	require.NoError(t, err)
	require.Equal(t, owner, gotOwner)

	policy, err := restored.FeePolicy()
	require.NoError(t, err)
	require.Equal(t, uint32(100), policy.BasisPoints)

	bal, err := restored.NativeBalance(holder)
	require.NoError(t, err)
	require.Equal(t, "9900", bal.String())
}
