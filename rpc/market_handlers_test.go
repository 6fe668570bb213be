package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"pullmarket/native/market"
	"pullmarket/storage"
	"pullmarket/storage/marketstate"
)

const testToken = "secret-test-token"

const (
	ownerHex  = "0x1111111111111111111111111111111111111111"
	vendorHex = "0x2222222222222222222222222222222222222222"
	buyerHex  = "0x5555555555555555555555555555555555555555"
	assetHex  = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

type nopNative struct{}

func (nopNative) Transfer(_ [20]byte, _ *big.Int) error { return nil }

type nopResolver struct{}

func (nopResolver) Token(_ [20]byte) (market.Token, error) {
	return nil, fmt.Errorf("no token clients configured")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := marketstate.NewStore(storage.NewMemDB())
	engine := market.NewEngine(store)
	engine.SetNativeTransferrer(nopNative{})
	engine.SetTokenResolver(nopResolver{})
	var owner [20]byte
	for i := range owner {
		owner[i] = 0x11
	}
	if err := engine.Initialize(owner, owner, 100); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return NewServer(engine, testToken)
}

func call(t *testing.T, server *Server, token, method string, params interface{}) (*httptest.ResponseRecorder, RPCResponse) {
	t.Helper()
	var rawParams []json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		rawParams = []json.RawMessage{encoded}
	}
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: rawParams, ID: 1})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	server.handle(recorder, req)

	var resp RPCResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, recorder.Body.String())
	}
	return recorder, resp
}

func TestAdminMethodsRequireBearerToken(t *testing.T) {
	server := newTestServer(t)
	params := vendorParams{Caller: ownerHex, VendorID: 1, Address: vendorHex}

	recorder, resp := call(t, server, "", "market_registerVendor", params)
	if recorder.Code != http.StatusUnauthorized || resp.Error == nil {
		t.Fatalf("expected unauthorized without token, got %d %+v", recorder.Code, resp)
	}

	recorder, resp = call(t, server, "wrong-token", "market_registerVendor", params)
	if recorder.Code != http.StatusUnauthorized || resp.Error == nil {
		t.Fatalf("expected unauthorized with bad token, got %d %+v", recorder.Code, resp)
	}

	recorder, resp = call(t, server, testToken, "market_registerVendor", params)
	if recorder.Code != http.StatusOK || resp.Error != nil {
		t.Fatalf("expected success with valid token, got %d %+v", recorder.Code, resp)
	}
}

func TestOwnerGuardSurfacesContractMessage(t *testing.T) {
	server := newTestServer(t)
	params := vendorParams{Caller: buyerHex, VendorID: 1, Address: vendorHex}

	recorder, resp := call(t, server, testToken, "market_registerVendor", params)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
	if resp.Error == nil || resp.Error.Message != "Ownable: caller is not the owner" {
		t.Fatalf("expected contract revert message, got %+v", resp.Error)
	}
}

func TestPurchaseNativeOverRPC(t *testing.T) {
	server := newTestServer(t)

	if _, resp := call(t, server, testToken, "market_registerVendor", vendorParams{Caller: ownerHex, VendorID: 1, Address: vendorHex}); resp.Error != nil {
		t.Fatalf("register vendor: %+v", resp.Error)
	}

	_, resp := call(t, server, "", "market_purchaseNative", purchaseNativeParams{
		Buyer: buyerHex, VendorID: 1, OrderID: 5, Value: "1000000000000000000",
	})
	if resp.Error != nil {
		t.Fatalf("purchase: %+v", resp.Error)
	}

	_, resp = call(t, server, "", "market_getBalance", balanceQueryParams{Holder: vendorHex})
	if resp.Error != nil {
		t.Fatalf("balance query: %+v", resp.Error)
	}
	encoded, _ := json.Marshal(resp.Result)
	var result balanceResult
	if err := json.Unmarshal(encoded, &result); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if result.Balance != "990000000000000000" {
		t.Fatalf("expected vendor credited with net amount, got %s", result.Balance)
	}
}

func TestPurchaseNativeValidation(t *testing.T) {
	server := newTestServer(t)

	recorder, resp := call(t, server, "", "market_purchaseNative", purchaseNativeParams{
		Buyer: buyerHex, VendorID: 1, OrderID: 5, Value: "0",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero amount, got %d", recorder.Code)
	}
	if resp.Error == nil || resp.Error.Message != "Amount must be greater than zero" {
		t.Fatalf("expected contract revert message, got %+v", resp.Error)
	}

	recorder, resp = call(t, server, "", "market_purchaseNative", purchaseNativeParams{
		Buyer: buyerHex, VendorID: 42, OrderID: 5, Value: "100",
	})
	if recorder.Code != http.StatusNotFound || resp.Error == nil {
		t.Fatalf("expected 404 for unknown vendor, got %d %+v", recorder.Code, resp)
	}

	recorder, _ = call(t, server, "", "market_purchaseNative", purchaseNativeParams{
		Buyer: "not-an-address", VendorID: 1, OrderID: 5, Value: "100",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed buyer, got %d", recorder.Code)
	}
}

func TestPurchaseTokenRejectsUnlistedAsset(t *testing.T) {
	server := newTestServer(t)
	if _, resp := call(t, server, testToken, "market_registerVendor", vendorParams{Caller: ownerHex, VendorID: 1, Address: vendorHex}); resp.Error != nil {
		t.Fatalf("register vendor: %+v", resp.Error)
	}

	recorder, resp := call(t, server, "", "market_purchaseToken", purchaseTokenParams{
		Buyer: buyerHex, VendorID: 1, OrderID: 5, Amount: "100", Asset: assetHex,
	})
	if recorder.Code != http.StatusBadRequest || resp.Error == nil {
		t.Fatalf("expected rejection for unlisted asset, got %d %+v", recorder.Code, resp)
	}
}

func TestWithdrawOverRPC(t *testing.T) {
	server := newTestServer(t)
	if _, resp := call(t, server, testToken, "market_registerVendor", vendorParams{Caller: ownerHex, VendorID: 1, Address: vendorHex}); resp.Error != nil {
		t.Fatalf("register vendor: %+v", resp.Error)
	}
	if _, resp := call(t, server, "", "market_purchaseNative", purchaseNativeParams{Buyer: buyerHex, VendorID: 1, OrderID: 1, Value: "5000"}); resp.Error != nil {
		t.Fatalf("purchase: %+v", resp.Error)
	}

	_, resp := call(t, server, "", "market_withdraw", withdrawParams{Caller: vendorHex})
	if resp.Error != nil {
		t.Fatalf("withdraw: %+v", resp.Error)
	}
	encoded, _ := json.Marshal(resp.Result)
	var result withdrawResult
	if err := json.Unmarshal(encoded, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Amount != "4950" {
		t.Fatalf("expected payout of the net balance, got %s", result.Amount)
	}

	recorder, resp := call(t, server, "", "market_withdraw", withdrawParams{Caller: vendorHex})
	if recorder.Code != http.StatusConflict || resp.Error == nil {
		t.Fatalf("expected conflict on drained balance, got %d %+v", recorder.Code, resp)
	}
}

func TestQueryMethods(t *testing.T) {
	server := newTestServer(t)

	_, resp := call(t, server, "", "market_getOwner", nil)
	if resp.Error != nil {
		t.Fatalf("getOwner: %+v", resp.Error)
	}
	if owner, ok := resp.Result.(string); !ok || owner != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("unexpected owner result %+v", resp.Result)
	}

	_, resp = call(t, server, "", "market_getFeePolicy", nil)
	if resp.Error != nil {
		t.Fatalf("getFeePolicy: %+v", resp.Error)
	}
	encoded, _ := json.Marshal(resp.Result)
	var policy feePolicyResult
	if err := json.Unmarshal(encoded, &policy); err != nil {
		t.Fatalf("decode policy: %v", err)
	}
	if policy.BasisPoints != 100 {
		t.Fatalf("unexpected basis points %d", policy.BasisPoints)
	}

	_, resp = call(t, server, "", "market_isWhitelisted", assetQueryParams{Asset: assetHex})
	if resp.Error != nil {
		t.Fatalf("isWhitelisted: %+v", resp.Error)
	}
	if listed, ok := resp.Result.(bool); !ok || listed {
		t.Fatalf("expected false for unlisted asset, got %+v", resp.Result)
	}

	_, resp = call(t, server, "", "market_getVendor", vendorQueryParams{VendorID: 123})
	if resp.Error != nil {
		t.Fatalf("getVendor: %+v", resp.Error)
	}
	if addr, ok := resp.Result.(string); !ok || addr != "0x0000000000000000000000000000000000000000" {
		t.Fatalf("expected zero address for unset vendor, got %+v", resp.Result)
	}

	recorder, _ := call(t, server, "", "market_unknownMethod", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown method, got %d", recorder.Code)
	}
}
