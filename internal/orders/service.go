package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/dlmm-orders/internal/bins"
	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/events"
	"github.com/wonny/dlmm-orders/internal/pool"
	"github.com/wonny/dlmm-orders/internal/wallet"
	"github.com/wonny/dlmm-orders/pkg/logger"
	"github.com/wonny/dlmm-orders/pkg/metrics"
)

// Service places, cancels and re-runs orders against DLMM pools
// ⭐ SSOT: 주문 생성/취소 흐름은 여기서만
type Service struct {
	repo    Repository
	adapter pool.Adapter
	sink    events.Sink
	logger  *logger.Logger
	pairs   []contracts.TradingPair
	now     func() time.Time
}

// NewService creates an order service
func NewService(repo Repository, adapter pool.Adapter, sink events.Sink, log *logger.Logger) *Service {
	if sink == nil {
		sink = events.Nop{}
	}
	return &Service{
		repo:    repo,
		adapter: adapter,
		sink:    sink,
		logger:  log.WithComponent("orders"),
		pairs:   contracts.DefaultPairs,
		now:     time.Now,
	}
}

// WithPairs replaces the tradable pair list
func (s *Service) WithPairs(pairs []contracts.TradingPair) *Service {
	s.pairs = pairs
	return s
}

// Pairs returns the tradable pairs
func (s *Service) Pairs() []contracts.TradingPair {
	return s.pairs
}

// PlaceParams is a placement request
type PlaceParams struct {
	Type   contracts.OrderType `json:"type"`
	Pair   string              `json:"pair"`
	Side   contracts.OrderSide `json:"side"`
	Price  decimal.Decimal     `json:"price"` // limit price or stop-loss trigger
	Amount decimal.Decimal     `json:"amount"`
}

// OrderResult is returned by a successful placement
type OrderResult struct {
	Success       bool            `json:"success"`
	OrderID       string          `json:"orderId"`
	TransactionID string          `json:"transactionId"`
	Order         contracts.Order `json:"order"`
}

// validate rejects bad input before any side effect
func (s *Service) validate(p PlaceParams, signer wallet.Signer) error {
	if _, err := contracts.ParseOrderType(string(p.Type)); err != nil {
		return err
	}
	if _, err := contracts.ParseOrderSide(string(p.Side)); err != nil {
		return err
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", contracts.ErrInvalidInput)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", contracts.ErrInvalidInput)
	}
	if !s.knownPair(p.Pair) {
		return fmt.Errorf("%w: %s", contracts.ErrUnknownPair, p.Pair)
	}
	return wallet.RequireConnected(signer)
}

func (s *Service) knownPair(symbol string) bool {
	for _, p := range s.pairs {
		if p.Symbol == symbol {
			return true
		}
	}
	return false
}

// PlaceOrder opens a position and records a pending order.
// Nothing is stored unless the adapter call succeeds.
func (s *Service) PlaceOrder(ctx context.Context, p PlaceParams, signer wallet.Signer) (*OrderResult, error) {
	if err := s.validate(p, signer); err != nil {
		s.reject(p, err)
		return nil, err
	}

	address, err := s.adapter.ResolvePairAddress(ctx, p.Pair)
	if err != nil {
		s.reject(p, err)
		return nil, fmt.Errorf("resolve pool for %s: %w", p.Pair, err)
	}

	params, err := s.adapter.PoolParameters(ctx, address)
	if err != nil {
		s.reject(p, err)
		return nil, fmt.Errorf("pool parameters for %s: %w", address, err)
	}

	binIndex := bins.NewConverter(params).BinFromPrice(p.Price.InexactFloat64())

	placed, err := s.adapter.PlaceOrder(ctx, pool.PlaceRequest{
		PoolAddress: address,
		Type:        p.Type,
		Side:        p.Side,
		Price:       p.Price,
		BinIndex:    binIndex,
		Size:        p.Amount,
		Signer:      signer,
	})
	if err != nil {
		s.reject(p, err)
		return nil, fmt.Errorf("place %s order: %w", p.Type, err)
	}

	id := placed.PositionID
	if id == "" {
		id = placed.TransactionID
	}

	order := contracts.Order{
		ID:          id,
		Pair:        p.Pair,
		Type:        p.Type,
		Side:        p.Side,
		Price:       p.Price,
		Amount:      p.Amount,
		Status:      contracts.StatusPending,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
		BinIndex:    &binIndex,
		PairAddress: address,
	}
	if p.Type == contracts.OrderTypeStopLoss {
		trigger := p.Price
		order.TriggerPrice = &trigger
	}

	if err := s.repo.Save(ctx, order); err != nil {
		// 포지션은 이미 생성됨; 결과는 그대로 반환
		s.logger.WithField("order_id", id).WithError(err).Error("Order placed but not recorded")
	}

	metrics.OrdersPlaced.WithLabelValues(string(p.Type)).Inc()
	s.logger.WithFields(map[string]interface{}{
		"order_id": id,
		"pair":     p.Pair,
		"type":     p.Type,
		"side":     p.Side,
		"price":    p.Price.String(),
		"bin":      binIndex,
	}).Info("Order placed")

	price := p.Price
	s.sink.Publish(ctx, events.Event{
		Type:    events.OrderPlaced,
		OrderID: id,
		Pair:    p.Pair,
		Status:  string(order.Status),
		Price:   &price,
	})

	return &OrderResult{
		Success:       true,
		OrderID:       id,
		TransactionID: placed.TransactionID,
		Order:         order,
	}, nil
}

func (s *Service) reject(p PlaceParams, err error) {
	metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
	s.logger.WithFields(map[string]interface{}{
		"pair": p.Pair,
		"type": p.Type,
	}).WithError(err).Warn("Order rejected")
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, contracts.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, contracts.ErrUnknownPair):
		return "unknown_pair"
	case errors.Is(err, contracts.ErrNotConnected):
		return "not_connected"
	case errors.Is(err, contracts.ErrPoolNotFound):
		return "pool_not_found"
	case errors.Is(err, contracts.ErrNetwork):
		return "network"
	default:
		return "other"
	}
}

// Cancel closes a pending order's position and marks it canceled.
// If the close call fails the order stays pending.
func (s *Service) Cancel(ctx context.Context, id string, signer wallet.Signer) (contracts.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return contracts.Order{}, err
	}
	if !order.IsPending() {
		return order, fmt.Errorf("%w: %s is %s", contracts.ErrOrderNotPending, id, order.Status)
	}
	if err := wallet.RequireConnected(signer); err != nil {
		return order, err
	}

	if order.PairAddress != "" {
		_, err := s.adapter.ClosePosition(ctx, pool.CloseRequest{
			PoolAddress: order.PairAddress,
			PositionID:  order.ID,
			Signer:      signer,
		})
		if err != nil {
			return order, fmt.Errorf("close position %s: %w", id, err)
		}
	}

	if err := s.repo.Update(ctx, id, contracts.StatusPatch(contracts.StatusCanceled)); err != nil {
		return order, err
	}
	order.Status = contracts.StatusCanceled

	s.logger.WithField("order_id", id).Info("Order canceled")
	s.sink.Publish(ctx, events.Event{
		Type:    events.OrderCanceled,
		OrderID: id,
		Pair:    order.Pair,
		Status:  string(order.Status),
	})

	return order, nil
}

// Rerun places a new order with the parameters of an existing one
func (s *Service) Rerun(ctx context.Context, id string, signer wallet.Signer) (*OrderResult, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	price := order.Price
	if order.IsStopLoss() {
		price = order.Trigger()
	}

	return s.PlaceOrder(ctx, PlaceParams{
		Type:   order.Type,
		Pair:   order.Pair,
		Side:   order.Side,
		Price:  price,
		Amount: order.Amount,
	}, signer)
}

// List returns orders matching filter
func (s *Service) List(ctx context.Context, filter contracts.OrderFilter) ([]contracts.Order, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one order
func (s *Service) Get(ctx context.Context, id string) (contracts.Order, error) {
	return s.repo.Get(ctx, id)
}

// Remove deletes an order record without touching its position
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.repo.Remove(ctx, id); err != nil {
		return err
	}
	s.sink.Publish(ctx, events.Event{Type: events.OrderRemoved, OrderID: id})
	return nil
}

// BinPreview shows where a price lands on a pool's ladder
type BinPreview struct {
	Pair        string          `json:"pair"`
	PoolAddress string          `json:"poolAddress"`
	Price       decimal.Decimal `json:"price"`
	BinIndex    int             `json:"binIndex"`
	BinPrice    decimal.Decimal `json:"binPrice"`
	ActiveBin   int             `json:"activeBin"`
	BinStep     int             `json:"binStep"`
}

// PreviewBin computes the bin of price without placing anything
func (s *Service) PreviewBin(ctx context.Context, pair string, price decimal.Decimal) (*BinPreview, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", contracts.ErrInvalidInput)
	}
	if !s.knownPair(pair) {
		return nil, fmt.Errorf("%w: %s", contracts.ErrUnknownPair, pair)
	}

	address, err := s.adapter.ResolvePairAddress(ctx, pair)
	if err != nil {
		return nil, err
	}
	params, err := s.adapter.PoolParameters(ctx, address)
	if err != nil {
		return nil, err
	}

	converter := bins.NewConverter(params)
	bin := converter.BinFromPrice(price.InexactFloat64())

	return &BinPreview{
		Pair:        pair,
		PoolAddress: address,
		Price:       price,
		BinIndex:    bin,
		BinPrice:    decimal.NewFromFloat(converter.PriceFromBin(bin)),
		ActiveBin:   params.ActiveBin,
		BinStep:     params.BinStep,
	}, nil
}

// PoolOverview is the live state of one pair's pool
type PoolOverview struct {
	Pair      string `json:"pair"`
	Address   string `json:"address"`
	ActiveBin int    `json:"activeBin"`
	BinStep   int    `json:"binStep"`
	Error     string `json:"error,omitempty"`
}

// Pools returns an overview per tradable pair; failures are reported per pair
func (s *Service) Pools(ctx context.Context) []PoolOverview {
	overview := make([]PoolOverview, 0, len(s.pairs))

	for _, pair := range s.pairs {
		item := PoolOverview{Pair: pair.Symbol}

		address, err := s.adapter.ResolvePairAddress(ctx, pair.Symbol)
		if err != nil {
			item.Error = contracts.UserMessage(err)
			overview = append(overview, item)
			continue
		}
		item.Address = address

		params, err := s.adapter.PoolParameters(ctx, address)
		if err != nil {
			item.Error = contracts.UserMessage(err)
		} else {
			item.ActiveBin = params.ActiveBin
			item.BinStep = params.BinStep
		}
		overview = append(overview, item)
	}

	return overview
}

// Positions lists the signer's open positions in a pair's pool
func (s *Service) Positions(ctx context.Context, pair string, signer wallet.Signer) ([]pool.Position, error) {
	if err := wallet.RequireConnected(signer); err != nil {
		return nil, err
	}
	address, err := s.adapter.ResolvePairAddress(ctx, pair)
	if err != nil {
		return nil, err
	}
	return s.adapter.ListPositions(ctx, pool.ListRequest{PoolAddress: address, Signer: signer})
}

// PurgeTerminal removes executed, filled and canceled orders created before cutoff
func (s *Service) PurgeTerminal(ctx context.Context, cutoff time.Time) (int, error) {
	all, err := s.repo.List(ctx, contracts.OrderFilter{})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, o := range all {
		if !o.Status.IsTerminal() || !o.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.repo.Remove(ctx, o.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
