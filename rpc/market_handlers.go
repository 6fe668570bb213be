package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"pullmarket/native/market"
	"pullmarket/observability/metrics"
)

const (
	denomNative = "native"
	denomToken  = "token"
)

type ownershipParams struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

type vendorParams struct {
	Caller   string `json:"caller"`
	VendorID uint64 `json:"vendorId"`
	Address  string `json:"address"`
}

type whitelistParams struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
}

type feeBasisPointsParams struct {
	Caller      string `json:"caller"`
	BasisPoints uint32 `json:"basisPoints"`
}

type feeRecipientParams struct {
	Caller    string `json:"caller"`
	Recipient string `json:"recipient"`
}

type purchaseNativeParams struct {
	Buyer    string `json:"buyer"`
	VendorID uint64 `json:"vendorId"`
	OrderID  uint64 `json:"orderId"`
	Value    string `json:"value"`
}

type purchaseTokenParams struct {
	Buyer    string `json:"buyer"`
	VendorID uint64 `json:"vendorId"`
	OrderID  uint64 `json:"orderId"`
	Amount   string `json:"amount"`
	Asset    string `json:"asset"`
}

type withdrawParams struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset,omitempty"`
}

type vendorQueryParams struct {
	VendorID uint64 `json:"vendorId"`
}

type assetQueryParams struct {
	Asset string `json:"asset"`
}

type balanceQueryParams struct {
	Holder string `json:"holder"`
	Asset  string `json:"asset,omitempty"`
}

type feePolicyResult struct {
	BasisPoints uint32 `json:"basisPoints"`
	Recipient   string `json:"recipient"`
}

type withdrawResult struct {
	Amount string `json:"amount"`
	Asset  string `json:"asset"`
}

type balanceResult struct {
	Holder  string `json:"holder"`
	Asset   string `json:"asset,omitempty"`
	Balance string `json:"balance"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(field, value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("%s is required", field)
	}
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("%s is not a valid hex address", field)
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%s is not a valid decimal amount", field)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%s must not be negative", field)
	}
	return amount, nil
}

func formatAddress(addr [20]byte) string {
	return common.Address(addr).Hex()
}

func writeMarketError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusInternalServerError
	code := codeMarketInternal
	switch {
	case errors.Is(err, market.ErrUnauthorized):
		status = http.StatusForbidden
		code = codeMarketForbidden
	case errors.Is(err, market.ErrInvalidAmount), errors.Is(err, market.ErrAssetNotWhitelisted):
		status = http.StatusBadRequest
		code = codeMarketInvalidParams
	case errors.Is(err, market.ErrUnknownVendor):
		status = http.StatusNotFound
		code = codeMarketNotFound
	case errors.Is(err, market.ErrTransferFailed), errors.Is(err, market.ErrNothingToWithdraw):
		status = http.StatusConflict
		code = codeMarketConflict
	}
	writeError(w, status, id, code, err.Error(), nil)
}

func purchaseFailureReason(err error) string {
	switch {
	case errors.Is(err, market.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, market.ErrUnknownVendor):
		return "unknown_vendor"
	case errors.Is(err, market.ErrAssetNotWhitelisted):
		return "not_whitelisted"
	case errors.Is(err, market.ErrTransferFailed):
		return "transfer_failed"
	default:
		return "internal"
	}
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, req *RPCRequest) {
	var params ownershipParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	newOwner, err := parseAddress("newOwner", params.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.TransferOwnership(caller, newOwner); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleRegisterVendor(w http.ResponseWriter, req *RPCRequest) {
	s.registerVendor(w, req, s.engine.RegisterVendor)
}

func (s *Server) handleUpdateVendorAddress(w http.ResponseWriter, req *RPCRequest) {
	s.registerVendor(w, req, s.engine.UpdateVendorAddress)
}

func (s *Server) registerVendor(w http.ResponseWriter, req *RPCRequest, op func([20]byte, uint64, [20]byte) error) {
	var params vendorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	payout, err := parseAddress("address", params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	if err := op(caller, params.VendorID, payout); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAddToWhitelist(w http.ResponseWriter, req *RPCRequest) {
	s.updateWhitelist(w, req, s.engine.AddToWhitelist)
}

func (s *Server) handleRemoveFromWhitelist(w http.ResponseWriter, req *RPCRequest) {
	s.updateWhitelist(w, req, s.engine.RemoveFromWhitelist)
}

func (s *Server) updateWhitelist(w http.ResponseWriter, req *RPCRequest, op func([20]byte, [20]byte) error) {
	var params whitelistParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	asset, err := parseAddress("asset", params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	if err := op(caller, asset); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleUpdateFeeBasisPoints(w http.ResponseWriter, req *RPCRequest) {
	var params feeBasisPointsParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.UpdateFeeBasisPoints(caller, params.BasisPoints); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleUpdateFeeRecipient(w http.ResponseWriter, req *RPCRequest) {
	var params feeRecipientParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	recipient, err := parseAddress("recipient", params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.UpdateFeeRecipient(caller, recipient); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handlePurchaseNative(w http.ResponseWriter, req *RPCRequest) {
	var params purchaseNativeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	buyer, err := parseAddress("buyer", params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	value, err := parseAmount("value", params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.PurchaseNative(buyer, params.VendorID, params.OrderID, value); err != nil {
		metrics.Market().RecordPurchaseFailure(purchaseFailureReason(err))
		writeMarketError(w, req.ID, err)
		return
	}
	metrics.Market().RecordPurchase(denomNative)
	writeResult(w, req.ID, true)
}

func (s *Server) handlePurchaseToken(w http.ResponseWriter, req *RPCRequest) {
	var params purchaseTokenParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	buyer, err := parseAddress("buyer", params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	asset, err := parseAddress("asset", params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.PurchaseToken(buyer, params.VendorID, params.OrderID, amount, asset); err != nil {
		metrics.Market().RecordPurchaseFailure(purchaseFailureReason(err))
		if errors.Is(err, market.ErrTransferFailed) {
			metrics.Market().RecordTransferFailure("pull")
		}
		writeMarketError(w, req.ID, err)
		return
	}
	metrics.Market().RecordPurchase(denomToken)
	writeResult(w, req.ID, true)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params withdrawParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.engine.Withdraw(caller)
	if err != nil {
		if errors.Is(err, market.ErrTransferFailed) {
			metrics.Market().RecordTransferFailure("payout")
		}
		writeMarketError(w, req.ID, err)
		return
	}
	metrics.Market().RecordWithdrawal(denomNative)
	writeResult(w, req.ID, withdrawResult{Amount: amount.String(), Asset: formatAddress(market.NativeAsset)})
}

func (s *Server) handleWithdrawToken(w http.ResponseWriter, req *RPCRequest) {
	var params withdrawParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	asset, err := parseAddress("asset", params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.engine.WithdrawToken(caller, asset)
	if err != nil {
		if errors.Is(err, market.ErrTransferFailed) {
			metrics.Market().RecordTransferFailure("payout")
		}
		writeMarketError(w, req.ID, err)
		return
	}
	metrics.Market().RecordWithdrawal(denomToken)
	writeResult(w, req.ID, withdrawResult{Amount: amount.String(), Asset: formatAddress(asset)})
}

func (s *Server) handleGetOwner(w http.ResponseWriter, req *RPCRequest) {
	owner, err := s.engine.Owner()
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatAddress(owner))
}

func (s *Server) handleGetFeePolicy(w http.ResponseWriter, req *RPCRequest) {
	policy, err := s.engine.Fees()
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, feePolicyResult{BasisPoints: policy.BasisPoints, Recipient: formatAddress(policy.Recipient)})
}

func (s *Server) handleGetVendor(w http.ResponseWriter, req *RPCRequest) {
	var params vendorQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	addr, err := s.engine.Vendor(params.VendorID)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatAddress(addr))
}

func (s *Server) handleIsWhitelisted(w http.ResponseWriter, req *RPCRequest) {
	var params assetQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	asset, err := parseAddress("asset", params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	whitelisted, err := s.engine.IsWhitelisted(asset)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, whitelisted)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params balanceQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	holder, err := parseAddress("holder", params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.engine.Payments(holder)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Holder: formatAddress(holder), Balance: balance.String()})
}

func (s *Server) handleGetTokenBalance(w http.ResponseWriter, req *RPCRequest) {
	var params balanceQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid params", err.Error())
		return
	}
	holder, err := parseAddress("holder", params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	asset, err := parseAddress("asset", params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.engine.TokenBalance(asset, holder)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Holder: formatAddress(holder), Asset: formatAddress(asset), Balance: balance.String()})
}
