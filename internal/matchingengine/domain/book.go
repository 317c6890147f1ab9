package domain

import (
	"container/list"
	"math"
)

// orderLocation is what an OrderBook keeps, per resting order, to make
// cancellation O(log L) for finding the level plus O(1) for removal: the
// side and price locate the level via binary search, and handle is the
// stable *list.Element obtained when the order was placed.
type orderLocation struct {
	side   Side
	price  float64
	handle *list.Element
}

// ExecutionResult is everything Execute produces for one taker: the fills
// it generated, the taker's terminal state, and any BBO deltas the sweep
// caused.
type ExecutionResult struct {
	Trades            []*TradeEvent
	TakerStatus       Status
	TakerRemainingQty float64
	BBOEvents         []*BBOEvent
}

type bboState struct {
	price, qty float64
	empty, set bool
}

// OrderBook is the two-sided, price-ordered structure for one symbol. It
// has no internal lock of its own on the write path — the single
// engine goroutine is its only mutator — but the shadow snapshot it
// maintains is safe for concurrent readers.
type OrderBook struct {
	Symbol string

	bids *bookSide
	asks *bookSide

	lastPrice float64
	locations map[uint64]orderLocation

	shadow  *shadow
	lastBBO [2]bboState // index 0 = BUY top, index 1 = SELL top
}

// NewOrderBook constructs an empty book for symbol. Both sides' lastBBO
// entries are seeded as an already-published empty state, so the first
// command against a freshly created book does not spuriously emit a BBO
// event for whichever side stays empty.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		Symbol:    symbol,
		bids:      newBookSide(SideBuy),
		asks:      newBookSide(SideSell),
		locations: make(map[uint64]orderLocation),
		shadow:    newShadow(),
		lastBBO:   [2]bboState{{empty: true, set: true}, {empty: true, set: true}},
	}
}

func (b *OrderBook) sideFor(s Side) *bookSide {
	if s == SideBuy {
		return b.bids
	}
	return b.asks
}

// Execute runs the Taker/Maker algorithm for taker against the book: it
// sweeps the opposite side front-to-back, best level first, emitting one
// TradeEvent per fill, then either rests a partially-filled LIMIT taker on
// its own side, cancels a partially-filled MARKET taker, or marks a fully
// consumed taker FILLED. registry is updated for any maker fully consumed
// along the way, and nextExecID supplies the monotonic execution-id
// sequence the engine owns.
func (b *OrderBook) Execute(taker *Order, registry *Registry, nextExecID func() uint64) *ExecutionResult {
	result := &ExecutionResult{}

	makerSide, ownSide := b.asks, b.bids
	if taker.Side == SideSell {
		makerSide, ownSide = b.bids, b.asks
	}

	for !makerSide.empty() && IsPositive(taker.RemainingQty) {
		bestLevel := makerSide.best()

		if taker.Type == TypeLimit {
			if taker.Side == SideBuy && IsGreater(bestLevel.Price, taker.Price) {
				break
			}
			if taker.Side == SideSell && IsLess(bestLevel.Price, taker.Price) {
				break
			}
		}

		for el := bestLevel.front(); el != nil && IsPositive(taker.RemainingQty); {
			next := el.Next()
			maker := el.Value.(*Order)

			tradeQty := math.Min(taker.RemainingQty, maker.RemainingQty)

			var buyID, sellID uint64
			if taker.Side == SideBuy {
				buyID, sellID = taker.ID, maker.ID
			} else {
				buyID, sellID = maker.ID, taker.ID
			}
			result.Trades = append(result.Trades, newTrade(
				nextExecID(), b.Symbol, bestLevel.Price, tradeQty,
				buyID, sellID, taker.ID, maker.ID,
			))

			maker.recordFill(bestLevel.Price, tradeQty)
			taker.recordFill(bestLevel.Price, tradeQty)
			bestLevel.TotalVolume = SubtractOrZero(bestLevel.TotalVolume, tradeQty)

			if IsZero(maker.RemainingQty) {
				maker.Status = StatusFilled
				maker.RemainingQty = 0
				registry.Unregister(maker.ID, maker.Tag)
				delete(b.locations, maker.ID)
				bestLevel.entries.Remove(el)
			}
			el = next
		}

		b.lastPrice = bestLevel.Price
		if bestLevel.empty() {
			makerSide.removeEmpty(bestLevel)
		} else {
			break
		}
	}

	switch {
	case IsPositive(taker.RemainingQty) && taker.Type == TypeLimit:
		b.place(taker, ownSide, registry)
		result.TakerStatus = StatusActive
	case IsPositive(taker.RemainingQty):
		taker.Status = StatusCancelled
		result.TakerStatus = StatusCancelled
	default:
		taker.Status = StatusFilled
		taker.RemainingQty = 0
		result.TakerStatus = StatusFilled
	}
	result.TakerRemainingQty = taker.RemainingQty

	b.refreshShadow()
	result.BBOEvents = b.bboDeltas()
	return result
}

// place rests a partially- or un-matched LIMIT order on side, recording its
// location both in the book's local map and in the global registry.
func (b *OrderBook) place(o *Order, side *bookSide, registry *Registry) {
	lv := side.getOrCreate(o.Price)
	handle := lv.pushBack(o)
	b.locations[o.ID] = orderLocation{side: o.Side, price: o.Price, handle: handle}
	registry.Register(o.ID, o.Symbol, o.Tag)
}

// Cancel removes a resting order's entry from its level and the book's
// local location map, pruning the level if it empties. It does not touch
// the global registry — that is the engine's job, since the registry is
// shared across every book. ok is false if id is not currently resting in
// this book.
func (b *OrderBook) Cancel(id uint64) (o *Order, bboEvents []*BBOEvent, ok bool) {
	loc, ok := b.locations[id]
	if !ok {
		return nil, nil, false
	}
	side := b.sideFor(loc.side)
	lv := side.find(loc.price)
	if lv == nil {
		return nil, nil, false
	}
	o = lv.remove(loc.handle)
	side.removeEmpty(lv)
	delete(b.locations, id)
	o.Status = StatusCancelled

	b.refreshShadow()
	return o, b.bboDeltas(), true
}

// GetRemainingQty returns the live remaining quantity for a resting order,
// reconciled straight from the book (the "handshake" GetOrder performs).
func (b *OrderBook) GetRemainingQty(id uint64) (float64, bool) {
	o, ok := b.Peek(id)
	if !ok {
		return 0, false
	}
	return o.RemainingQty, true
}

// Peek returns the live *Order resting at id without removing it, for
// callers (like GetOrder's handshake) that need the full projection rather
// than just the remaining quantity.
func (b *OrderBook) Peek(id uint64) (*Order, bool) {
	loc, ok := b.locations[id]
	if !ok {
		return nil, false
	}
	return loc.handle.Value.(*Order), true
}

// GetSnapshot returns the top depth levels of each side from the shadow
// view (depth 0 means "all levels").
func (b *OrderBook) GetSnapshot(depth int) Snapshot {
	return b.shadow.read(depth)
}

// GetLastPrice returns the price of the most recent fill on this book, or
// zero if none has occurred.
func (b *OrderBook) GetLastPrice() float64 {
	return b.shadow.read(0).LastPrice
}

// GetPriceLevelCount returns the number of occupied price levels across
// both sides, for the per-book level-count guardrail. It reads the live
// sides, so like the mutators and the other live-book accessors (Peek,
// HasLevelAt, LiveOrders) it is only safe to call from the single engine
// goroutine; GetSnapshot and GetLastPrice read the lock-guarded shadow.
func (b *OrderBook) GetPriceLevelCount() int {
	return b.bids.levelCount() + b.asks.levelCount()
}

// HasLevelAt reports whether either side already has a level at price,
// which lets validation exempt additions to an existing level from the
// per-book level-count cap.
func (b *OrderBook) HasLevelAt(price float64) bool {
	return b.bids.find(price) != nil || b.asks.find(price) != nil
}

// Flush clears every resting order and level on both sides and bumps the
// shadow sequence, without touching lastPrice or any other book's state.
// It does not unregister the cleared orders from the global registry —
// callers that want that must do it themselves, since Flush has no
// registry reference. lastBBO is reset to the empty-sentinel state too: a
// book that goes empty and is later re-populated at the same top price and
// quantity it held before the flush has still changed, and must republish.
func (b *OrderBook) Flush() {
	b.bids = newBookSide(SideBuy)
	b.asks = newBookSide(SideSell)
	b.locations = make(map[uint64]orderLocation)
	b.lastBBO = [2]bboState{{empty: true, set: true}, {empty: true, set: true}}
	b.refreshShadow()
}

// LiveOrders returns every order currently resting in this book, for
// callers (like Flush's registry cleanup) that need to unregister them by
// both id and tag.
func (b *OrderBook) LiveOrders() []*Order {
	orders := make([]*Order, 0, len(b.locations))
	for _, loc := range b.locations {
		orders = append(orders, loc.handle.Value.(*Order))
	}
	return orders
}

func (b *OrderBook) refreshShadow() {
	b.shadow.refresh(collectLevels(b.bids), collectLevels(b.asks), b.lastPrice)
}

func collectLevels(side *bookSide) []LevelView {
	out := make([]LevelView, len(side.levels))
	for i, lv := range side.levels {
		out[i] = LevelView{Price: lv.Price, Quantity: lv.TotalVolume}
	}
	return out
}

func (b *OrderBook) bboDeltas() []*BBOEvent {
	var events []*BBOEvent
	if e := b.bboDeltaForSide(SideBuy, b.bids, 0); e != nil {
		events = append(events, e)
	}
	if e := b.bboDeltaForSide(SideSell, b.asks, 1); e != nil {
		events = append(events, e)
	}
	return events
}

func (b *OrderBook) bboDeltaForSide(side Side, bs *bookSide, idx int) *BBOEvent {
	best := bs.best()
	var price, qty float64
	empty := best == nil
	if !empty {
		price, qty = best.Price, best.TotalVolume
	}

	prev := b.lastBBO[idx]
	if prev.set && prev.empty == empty && IsEqual(prev.price, price) && IsEqual(prev.qty, qty) {
		return nil
	}
	b.lastBBO[idx] = bboState{price: price, qty: qty, empty: empty, set: true}
	return newBBO(b.Symbol, side, price, qty, empty)
}
