// Package application hosts the Engine orchestrator: validation,
// identifier assignment, book routing, and the read/write facade the
// interfaces layer calls into. The domain package underneath is CPU-bound
// and I/O-free; this package is where guardrails, logging, and metrics
// live.
package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/wyfcoding/financialtrading/internal/matchingengine/domain"
	"github.com/wyfcoding/financialtrading/pkg/idgen"
	"github.com/wyfcoding/financialtrading/pkg/logging"
	"github.com/wyfcoding/financialtrading/pkg/metrics"
)

// EngineConfig carries the validation guardrails from configuration. See
// pkg/config.EngineConfig for the TOML/env-bound counterpart this is
// constructed from.
type EngineConfig struct {
	SymbolLength    int
	MaxGlobalOrders int
	MaxPriceLevels  int
	MaxTagSize      int
	MinOrderPrice   float64
	MaxOrderPrice   float64
	MinOrderQty     float64
	MaxOrderQty     float64
	PriceBand       float64
	TradedSymbols   map[string]bool // nil/empty means "no whitelist"
}

// Engine is the single process-wide orchestrator: one registry, a lazily
// populated map of per-symbol books, and the two monotonic sequences
// (order identifiers, execution identifiers) it owns. Every exported
// method is safe to call from any goroutine; internally, mutation of a
// given book is still performed by whichever goroutine currently holds
// booksMu, which plays the role of the single "engine thread" the
// concurrency model describes.
type Engine struct {
	cfg EngineConfig
	m   *metrics.Metrics

	booksMu  sync.RWMutex
	books    map[string]*domain.OrderBook
	registry *domain.Registry

	orderIDs *idgen.Sequence
	execIDs  *idgen.Sequence
}

// NewEngine constructs an Engine with an empty registry and no books; books
// are created lazily on first encounter of a symbol.
func NewEngine(cfg EngineConfig, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:      cfg,
		m:        m,
		books:    make(map[string]*domain.OrderBook),
		registry: domain.NewRegistry(),
		orderIDs: idgen.NewSequence(),
		execIDs:  idgen.NewSequence(),
	}
}

// bookFor returns the book for symbol, creating it under the write lock if
// this is the first order ever seen for that symbol.
func (e *Engine) bookFor(symbol string) *domain.OrderBook {
	e.booksMu.RLock()
	b, ok := e.books[symbol]
	e.booksMu.RUnlock()
	if ok {
		return b
	}

	e.booksMu.Lock()
	defer e.booksMu.Unlock()
	if b, ok = e.books[symbol]; ok {
		return b
	}
	b = domain.NewOrderBook(symbol)
	e.books[symbol] = b
	return b
}

// peekBook returns the existing book for symbol without creating one.
func (e *Engine) peekBook(symbol string) (*domain.OrderBook, bool) {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	b, ok := e.books[symbol]
	return b, ok
}

// reportPriceLevelsOpen recomputes the occupied-price-level gauge across
// every book. It is only ever called from the engine goroutine that just
// finished mutating a book, so a snapshot read of each book under the
// shared books lock is sufficient.
func (e *Engine) reportPriceLevelsOpen() {
	if e.m == nil {
		return
	}
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	total := 0
	for _, b := range e.books {
		total += b.GetPriceLevelCount()
	}
	e.m.PriceLevelsOpen.Set(float64(total))
}

// Submit validates and routes a new order through its book, returning the
// resulting acknowledgement, fills, and BBO updates. A validation failure
// never mutates any state.
func (e *Engine) Submit(ctx context.Context, req SubmitOrderRequest) (*SubmitOrderResponse, error) {
	defer logging.LogDuration(ctx, "order submit finished", "symbol", req.Symbol, "side", req.Side)()

	order, verr := e.validateAndBuild(req)
	if verr != nil {
		if e.m != nil {
			e.m.OrdersRejected.Inc()
		}
		reject := domain.NewReject(req.Tag, verr)
		logging.Debug(ctx, "order rejected", "event", reject.EventType(), "tag", reject.Tag, "kind", verr.Kind, "reason", verr.Message)
		return nil, verr
	}

	ack := domain.NewAck(order.ID, order.Tag)
	logging.Debug(ctx, "order acknowledged", "event", ack.EventType(), "order_id", ack.OrderID, "tag", ack.Tag)

	book := e.bookFor(req.Symbol)
	result := book.Execute(order, e.registry, e.execIDs.Next)

	if e.m != nil {
		e.m.OrdersAccepted.Inc()
		e.m.TradesTotal.Add(float64(len(result.Trades)))
		e.m.OrdersActive.Set(float64(e.registry.Size()))
	}
	e.reportPriceLevelsOpen()

	logging.Info(ctx, "order processed",
		"order_id", order.ID, "symbol", req.Symbol, "status", order.Status.String(),
		"trades", len(result.Trades), "remaining_qty", order.RemainingQty)

	return &SubmitOrderResponse{
		OrderID:           order.ID,
		Status:            statusLabel(order, result),
		RemainingQuantity: FormatAmount(order.RemainingQty),
		Trades:            tradeViews(result.Trades),
		BBOUpdates:        bboViews(result.BBOEvents),
	}, nil
}

// Cancel resolves id via the registry, removes the resting entry from its
// book, and updates the registry. It is a NotFound error to cancel an
// order that is not currently ACTIVE: a terminal order has already been
// unregistered, so there is nothing left to resolve.
func (e *Engine) Cancel(ctx context.Context, req CancelOrderRequest) (*CancelOrderResponse, error) {
	id := req.OrderID
	if id == 0 {
		resolved, ok := e.registry.LookupByTag(req.Tag)
		if !ok {
			return nil, domain.ErrOrderNotFound(fmt.Sprintf("no live order for tag %q", req.Tag))
		}
		id = resolved
	}

	loc, ok := e.registry.Lookup(id)
	if !ok {
		return nil, domain.ErrOrderNotFound(fmt.Sprintf("no live order with id %d", id))
	}

	book, ok := e.peekBook(loc.Symbol)
	if !ok {
		return nil, domain.ErrOrderNotFound(fmt.Sprintf("no live order with id %d", id))
	}

	order, _, ok := book.Cancel(id)
	if !ok {
		return nil, domain.ErrOrderNotFound(fmt.Sprintf("no live order with id %d", id))
	}
	e.registry.Unregister(id, order.Tag)

	if e.m != nil {
		e.m.OrdersCancelled.Inc()
		e.m.OrdersActive.Set(float64(e.registry.Size()))
	}
	e.reportPriceLevelsOpen()
	cancelEvt := domain.NewCancelEvent(id, order.Tag)
	logging.Info(ctx, "order cancelled", "event", cancelEvt.EventType(), "order_id", cancelEvt.OrderID, "tag", cancelEvt.Tag, "symbol", loc.Symbol)

	return &CancelOrderResponse{OrderID: id, RemainingQuantity: FormatAmount(order.RemainingQty)}, nil
}

// GetSnapshot returns the top depth levels of symbol's book (depth 0 means
// all levels). An unknown symbol returns an empty snapshot rather than an
// error, matching a book that has simply never traded.
func (e *Engine) GetSnapshot(symbol string, depth int) *SnapshotView {
	book, ok := e.peekBook(symbol)
	if !ok {
		return &SnapshotView{Symbol: symbol}
	}
	snap := book.GetSnapshot(depth)
	return &SnapshotView{
		Symbol:    symbol,
		Seq:       snap.Seq,
		Bids:      levelViews(snap.Bids),
		Asks:      levelViews(snap.Asks),
		LastPrice: FormatAmount(snap.LastPrice),
	}
}

// GetOrder returns a projection of order id built from its resting entry in
// the book, so remainingQuantity reflects every fill so far. Only resting
// (ACTIVE) orders are found: an order that has been filled, cancelled or
// flushed is no longer kept anywhere and returns NotFound.
func (e *Engine) GetOrder(id uint64) (*OrderView, error) {
	loc, ok := e.registry.Lookup(id)
	if !ok {
		return nil, domain.ErrOrderNotFound(fmt.Sprintf("no live order with id %d", id))
	}
	book, ok := e.peekBook(loc.Symbol)
	if !ok {
		return nil, domain.ErrOrderNotFound(fmt.Sprintf("no live order with id %d", id))
	}
	o, ok := book.Peek(id)
	if !ok {
		return nil, domain.ErrOrderNotFound(fmt.Sprintf("no live order with id %d", id))
	}
	view := &OrderView{
		OrderID:          o.ID,
		Tag:              o.Tag,
		Symbol:           o.Symbol,
		Side:             o.Side.String(),
		Type:             orderTypeLabel(o.Type),
		OriginalQuantity: FormatAmount(o.OriginalQuantity),
		RemainingQty:     FormatAmount(o.RemainingQty),
		Status:           o.Status.String(),
	}
	if o.Type == domain.TypeLimit {
		view.Price = FormatAmount(o.Price)
	}
	return view, nil
}

func orderTypeLabel(t domain.OrderType) string {
	if t == domain.TypeMarket {
		return "MARKET"
	}
	return "LIMIT"
}

// Flush clears symbol's book entirely: every resting order is unregistered
// from the global registry and the book's levels are dropped. Other
// symbols' books and the global id sequences are untouched.
func (e *Engine) Flush(symbol string) {
	book, ok := e.peekBook(symbol)
	if !ok {
		return
	}
	for _, o := range book.LiveOrders() {
		e.registry.Unregister(o.ID, o.Tag)
	}
	book.Flush()
	if e.m != nil {
		e.m.OrdersActive.Set(float64(e.registry.Size()))
	}
	e.reportPriceLevelsOpen()
}

func statusLabel(o *domain.Order, result *domain.ExecutionResult) string {
	traded := len(result.Trades) > 0
	switch o.Status {
	case domain.StatusFilled:
		return "fully_filled"
	case domain.StatusCancelled:
		if traded {
			return "partially_filled"
		}
		return "cancelled_no_liquidity"
	default:
		if traded {
			return "partially_filled"
		}
		return "posted"
	}
}

func tradeViews(trades []*domain.TradeEvent) []TradeView {
	out := make([]TradeView, len(trades))
	for i, t := range trades {
		out[i] = TradeView{
			ExecID:      t.ExecID,
			Price:       FormatAmount(t.Price),
			Quantity:    FormatAmount(t.Quantity),
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
		}
	}
	return out
}

func bboViews(events []*domain.BBOEvent) []BBOView {
	out := make([]BBOView, len(events))
	for i, e := range events {
		out[i] = BBOView{
			Side:     e.Side.String(),
			Price:    FormatAmount(e.Price),
			Quantity: FormatAmount(e.Quantity),
			Empty:    e.Empty,
		}
	}
	return out
}

func levelViews(levels []domain.LevelView) []LevelView {
	out := make([]LevelView, len(levels))
	for i, lv := range levels {
		out[i] = LevelView{Price: FormatAmount(lv.Price), Quantity: FormatAmount(lv.Quantity)}
	}
	return out
}
