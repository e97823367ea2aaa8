package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/wallet"
	"github.com/wonny/dlmm-orders/pkg/httputil"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// BridgeAdapter talks to an HTTP sidecar that wraps the on-chain DLMM SDK
type BridgeAdapter struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewBridgeAdapter creates a bridge adapter. Placement must not be replayed,
// so the client should have retry disabled.
func NewBridgeAdapter(httpClient *httputil.Client, log *logger.Logger, baseURL string) *BridgeAdapter {
	return &BridgeAdapter{
		httpClient: httpClient,
		logger:     log.WithComponent("pool.bridge"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// signedEnvelope carries a payload and the owner's signature over it.
// Signature is empty for watch-only wallets; the bridge then signs itself.
type signedEnvelope struct {
	Owner     string          `json:"owner"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature,omitempty"`
}

type placePayload struct {
	PoolAddress string              `json:"poolAddress"`
	Type        contracts.OrderType `json:"type"`
	Side        contracts.OrderSide `json:"side"`
	Price       decimal.Decimal     `json:"price"`
	BinIndex    int                 `json:"binIndex"`
	Size        decimal.Decimal     `json:"size"`
}

type closePayload struct {
	PoolAddress string `json:"poolAddress"`
	PositionID  string `json:"positionId"`
}

// ResolvePairAddress asks the bridge for the pair's pool
func (b *BridgeAdapter) ResolvePairAddress(ctx context.Context, pair string) (string, error) {
	var body struct {
		Address string `json:"address"`
	}
	reqURL := b.baseURL + "/pools?" + url.Values{"pair": {pair}}.Encode()
	if err := b.httpClient.GetJSON(ctx, reqURL, &body); err != nil {
		return "", mapBridgeError(err, contracts.ErrPoolNotFound)
	}
	if body.Address == "" {
		return "", fmt.Errorf("%w: no pools for %s", contracts.ErrPoolNotFound, pair)
	}
	return body.Address, nil
}

// PoolParameters fetches the pool's bin ladder
func (b *BridgeAdapter) PoolParameters(ctx context.Context, address string) (contracts.PoolParameters, error) {
	var params contracts.PoolParameters
	if err := b.httpClient.GetJSON(ctx, b.baseURL+"/pools/"+url.PathEscape(address), &params); err != nil {
		return contracts.PoolParameters{}, mapBridgeError(err, contracts.ErrPoolNotFound)
	}
	if params.BinStep <= 0 {
		return contracts.PoolParameters{}, fmt.Errorf("%w: pool %s returned binStep %d", contracts.ErrNetwork, address, params.BinStep)
	}
	if params.Address == "" {
		params.Address = address
	}
	return params, nil
}

// PlaceOrder submits a signed placement
func (b *BridgeAdapter) PlaceOrder(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	envelope, err := b.sign(ctx, req.Signer, placePayload{
		PoolAddress: req.PoolAddress,
		Type:        req.Type,
		Side:        req.Side,
		Price:       req.Price,
		BinIndex:    req.BinIndex,
		Size:        req.Size,
	})
	if err != nil {
		return nil, err
	}

	var result PlaceResult
	if err := b.httpClient.PostJSONInto(ctx, b.baseURL+"/orders", envelope, &result); err != nil {
		return nil, mapBridgeError(err, contracts.ErrPoolNotFound)
	}
	if result.TransactionID == "" {
		return nil, fmt.Errorf("%w: bridge returned no transaction id", contracts.ErrNetwork)
	}

	b.logger.WithFields(map[string]interface{}{
		"tx":       result.TransactionID,
		"position": result.PositionID,
		"pool":     req.PoolAddress,
	}).Info("Order submitted to bridge")

	return &result, nil
}

// ClosePosition submits a signed close
func (b *BridgeAdapter) ClosePosition(ctx context.Context, req CloseRequest) (*CloseResult, error) {
	envelope, err := b.sign(ctx, req.Signer, closePayload{
		PoolAddress: req.PoolAddress,
		PositionID:  req.PositionID,
	})
	if err != nil {
		return nil, err
	}

	var result CloseResult
	if err := b.httpClient.PostJSONInto(ctx, b.baseURL+"/positions/close", envelope, &result); err != nil {
		return nil, mapBridgeError(err, contracts.ErrPositionNotFound)
	}
	return &result, nil
}

// ListPositions lists the owner's positions in a pool
func (b *BridgeAdapter) ListPositions(ctx context.Context, req ListRequest) ([]Position, error) {
	if err := wallet.RequireConnected(req.Signer); err != nil {
		return nil, err
	}

	params := url.Values{
		"pool":  {req.PoolAddress},
		"owner": {req.Signer.PublicKey()},
	}
	var positions []Position
	if err := b.httpClient.GetJSON(ctx, b.baseURL+"/positions?"+params.Encode(), &positions); err != nil {
		return nil, mapBridgeError(err, contracts.ErrPoolNotFound)
	}
	if positions == nil {
		positions = []Position{}
	}
	return positions, nil
}

// sign wraps payload in an envelope signed by signer when it can sign
func (b *BridgeAdapter) sign(ctx context.Context, signer wallet.Signer, payload interface{}) (*signedEnvelope, error) {
	if err := wallet.RequireConnected(signer); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	envelope := &signedEnvelope{Owner: signer.PublicKey(), Payload: raw}

	sig, err := signer.Sign(ctx, raw)
	switch {
	case err == nil:
		envelope.Signature = base58.Encode(sig)
	case errors.Is(err, wallet.ErrReadOnly):
	default:
		return nil, fmt.Errorf("sign request: %w", err)
	}
	return envelope, nil
}

// mapBridgeError converts transport and status errors into the error taxonomy
func mapBridgeError(err error, notFound error) error {
	var statusErr *httputil.StatusError
	if !errors.As(err, &statusErr) {
		return fmt.Errorf("%w: %v", contracts.ErrNetwork, err)
	}

	switch statusErr.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", notFound, strings.TrimSpace(statusErr.Body))
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", contracts.ErrInvalidInput, strings.TrimSpace(statusErr.Body))
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", contracts.ErrNotConnected, strings.TrimSpace(statusErr.Body))
	default:
		return fmt.Errorf("%w: %v", contracts.ErrNetwork, statusErr)
	}
}
