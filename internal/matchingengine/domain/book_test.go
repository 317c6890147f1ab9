package domain

import "testing"

func newTestBook() (*OrderBook, *Registry, func() uint64) {
	book := NewOrderBook("BTC-USDT")
	registry := NewRegistry()
	var seq uint64
	next := func() uint64 {
		seq++
		return seq
	}
	return book, registry, next
}

func TestExecuteRestsUncrossedLimit(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	buy := NewOrder(1, "", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	result := book.Execute(buy, registry, nextExecID)

	if len(result.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(result.Trades))
	}
	if result.TakerStatus != StatusActive {
		t.Fatalf("taker status = %v, want StatusActive", result.TakerStatus)
	}
	if !book.HasLevelAt(100) {
		t.Fatal("expected a resting level at 100")
	}
	if _, ok := registry.Lookup(1); !ok {
		t.Fatal("resting order must be registered")
	}
}

// Scenario 2 from the testable-properties table: three BUYs of 10 @100 each
// (t1, t2, t3) followed by a single SELL 30 @100 fills t1 -> t2 -> t3 in
// arrival order, leaving the BUY side empty and the level at 100 destroyed.
func TestExecutePriceTimePriority(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	t1 := NewOrder(1, "", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	t2 := NewOrder(2, "", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	t3 := NewOrder(3, "", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	book.Execute(t1, registry, nextExecID)
	book.Execute(t2, registry, nextExecID)
	book.Execute(t3, registry, nextExecID)

	sell := NewOrder(4, "", "BTC-USDT", SideSell, TypeLimit, 30, 100)
	result := book.Execute(sell, registry, nextExecID)

	if len(result.Trades) != 3 {
		t.Fatalf("expected 3 fills, got %d", len(result.Trades))
	}
	wantOrder := []uint64{1, 2, 3}
	for i, tr := range result.Trades {
		if tr.BuyOrderID != wantOrder[i] {
			t.Errorf("fill %d matched buy order %d, want %d", i, tr.BuyOrderID, wantOrder[i])
		}
	}
	if book.HasLevelAt(100) {
		t.Fatal("level at 100 must be destroyed once fully consumed")
	}
	if book.GetLastPrice() != 100 {
		t.Fatalf("lastPrice = %g, want 100", book.GetLastPrice())
	}
}

func TestExecuteFillPriceIsMakerPrice(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	maker := NewOrder(1, "", "BTC-USDT", SideSell, TypeLimit, 10, 99)
	book.Execute(maker, registry, nextExecID)

	taker := NewOrder(2, "", "BTC-USDT", SideBuy, TypeLimit, 10, 101)
	result := book.Execute(taker, registry, nextExecID)

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(result.Trades))
	}
	if result.Trades[0].Price != 99 {
		t.Fatalf("fill price = %g, want maker price 99", result.Trades[0].Price)
	}
}

func TestExecuteMarketAgainstEmptyBookIsCancelledUnregistered(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	taker := NewOrder(1, "", "BTC-USDT", SideBuy, TypeMarket, 5, 0)
	result := book.Execute(taker, registry, nextExecID)

	if taker.Status != StatusCancelled {
		t.Fatalf("status = %v, want StatusCancelled", taker.Status)
	}
	if taker.RemainingQty != 5 {
		t.Fatalf("remainingQty = %g, want unchanged original quantity 5", taker.RemainingQty)
	}
	if _, ok := registry.Lookup(1); ok {
		t.Fatal("a cancelled MARKET taker must never be registered")
	}
	if result.TakerStatus != StatusCancelled {
		t.Fatalf("TakerStatus = %v, want StatusCancelled", result.TakerStatus)
	}
}

func TestExecuteLimitDoesNotCrossBeyondItsPrice(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	maker := NewOrder(1, "", "BTC-USDT", SideSell, TypeLimit, 10, 105)
	book.Execute(maker, registry, nextExecID)

	taker := NewOrder(2, "", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	result := book.Execute(taker, registry, nextExecID)

	if len(result.Trades) != 0 {
		t.Fatalf("expected no fill when the best ask is above the bid limit, got %d", len(result.Trades))
	}
	if !book.HasLevelAt(100) {
		t.Fatal("non-crossing LIMIT must rest on its own side")
	}
}

// Scenario 5: dust produced by ten sells of 0.1000000001 against a single
// resting BUY of 1 must not keep the level alive.
func TestExecuteDustDoesNotSurviveFullConsumption(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	buy := NewOrder(1, "", "BTC-USDT", SideBuy, TypeLimit, 1, 50000)
	book.Execute(buy, registry, nextExecID)

	var id uint64 = 2
	for i := 0; i < 10; i++ {
		sell := NewOrder(id, "", "BTC-USDT", SideSell, TypeLimit, 0.1000000001, 50000)
		book.Execute(sell, registry, nextExecID)
		id++
	}

	if book.HasLevelAt(50000) {
		t.Fatal("level at 50000 must be destroyed, not left with a dust remainder")
	}
	if book.GetLastPrice() != 50000 {
		t.Fatalf("lastPrice = %g, want 50000", book.GetLastPrice())
	}
}

func TestCancelRestoresLevelAndReturnsBBODelta(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	buy := NewOrder(1, "", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	book.Execute(buy, registry, nextExecID)

	o, bboEvents, ok := book.Cancel(1)
	if !ok {
		t.Fatal("Cancel must succeed for a live resting order")
	}
	if o.Status != StatusCancelled {
		t.Fatalf("status = %v, want StatusCancelled", o.Status)
	}
	if book.HasLevelAt(100) {
		t.Fatal("level must be pruned once its only entry is cancelled")
	}
	if len(bboEvents) == 0 {
		t.Fatal("cancelling the top-of-book order must emit a BBO delta")
	}
}

func TestCancelUnknownIDFails(t *testing.T) {
	book, _, _ := newTestBook()
	if _, _, ok := book.Cancel(404); ok {
		t.Fatal("Cancel of an unknown id must fail")
	}
}

// Round-trip law: place then cancel restores the side's state (same levels,
// same totalVolume), seq advancing by exactly 2.
func TestPlaceThenCancelRoundTrip(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	before := book.GetSnapshot(0)

	buy := NewOrder(1, "", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	book.Execute(buy, registry, nextExecID)
	book.Cancel(1)

	after := book.GetSnapshot(0)

	if len(after.Bids) != len(before.Bids) || len(after.Asks) != len(before.Asks) {
		t.Fatalf("levels changed across place+cancel: before %+v, after %+v", before, after)
	}
	if after.Seq != before.Seq+2 {
		t.Fatalf("seq advanced by %d, want 2", after.Seq-before.Seq)
	}
}

func TestPeekAndGetRemainingQty(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	buy := NewOrder(1, "tag-1", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	book.Execute(buy, registry, nextExecID)

	sell := NewOrder(2, "", "BTC-USDT", SideSell, TypeLimit, 4, 100)
	book.Execute(sell, registry, nextExecID)

	qty, ok := book.GetRemainingQty(1)
	if !ok || qty != 6 {
		t.Fatalf("GetRemainingQty(1) = %g, %v, want 6, true", qty, ok)
	}

	o, ok := book.Peek(1)
	if !ok {
		t.Fatal("Peek(1) must find the still-resting order")
	}
	if o.Tag != "tag-1" || o.RemainingQty != 6 {
		t.Fatalf("Peek(1) = %+v, want Tag=tag-1 RemainingQty=6", o)
	}

	if _, ok := book.Peek(999); ok {
		t.Fatal("Peek of an unknown id must fail")
	}
}

func TestFlushClearsBookButNotOtherState(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	buy := NewOrder(1, "tag-1", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	book.Execute(buy, registry, nextExecID)
	sell := NewOrder(2, "tag-2", "BTC-USDT", SideSell, TypeLimit, 10, 105)
	book.Execute(sell, registry, nextExecID)

	live := book.LiveOrders()
	if len(live) != 2 {
		t.Fatalf("LiveOrders() returned %d orders, want 2", len(live))
	}

	book.Flush()

	if book.GetPriceLevelCount() != 0 {
		t.Fatalf("GetPriceLevelCount() = %d after flush, want 0", book.GetPriceLevelCount())
	}
	if _, ok := book.Peek(1); ok {
		t.Fatal("flushed order must no longer be resting in the book")
	}
	// Flush does not touch the registry; that is the caller's responsibility.
	if _, ok := registry.Lookup(1); !ok {
		t.Fatal("Flush itself must not mutate the registry")
	}
}

func TestGetSnapshotDepthZeroReturnsAllLevels(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	for i, price := range []float64{100, 99, 98} {
		o := NewOrder(uint64(i+1), "", "BTC-USDT", SideBuy, TypeLimit, 1, price)
		book.Execute(o, registry, nextExecID)
	}

	snap := book.GetSnapshot(0)
	if len(snap.Bids) != 3 {
		t.Fatalf("depth 0 returned %d levels, want all 3", len(snap.Bids))
	}
	if snap.Bids[0].Price != 100 {
		t.Fatalf("best bid = %g, want 100 (highest price first)", snap.Bids[0].Price)
	}

	shallow := book.GetSnapshot(1)
	if len(shallow.Bids) != 1 {
		t.Fatalf("depth 1 returned %d levels, want 1", len(shallow.Bids))
	}
}

// Scenario 1: the first command against a freshly created book must emit
// exactly one BBO event, for the side that actually gained a top. The
// opposite side is still empty and must not spuriously publish "empty".
func TestFirstCommandOnFreshBookEmitsNoSpuriousEmptySideBBO(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	buy := NewOrder(1, "", "IBM", SideBuy, TypeLimit, 10, 100)
	result := book.Execute(buy, registry, nextExecID)

	if len(result.BBOEvents) != 1 {
		t.Fatalf("expected exactly 1 BBO event, got %d: %+v", len(result.BBOEvents), result.BBOEvents)
	}
	if result.BBOEvents[0].Side != SideBuy || result.BBOEvents[0].Empty {
		t.Fatalf("expected a non-empty BUY BBO event, got %+v", result.BBOEvents[0])
	}
}

// After a Flush, a top re-established at the same price/quantity it held
// before the flush must still republish: the book went empty in between,
// which is itself a change.
func TestFlushResetsBBOStateSoRepublishingIsNotSuppressed(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	buy := NewOrder(1, "", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	book.Execute(buy, registry, nextExecID)

	book.Flush()

	again := NewOrder(2, "", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	result := book.Execute(again, registry, nextExecID)

	if len(result.BBOEvents) != 1 {
		t.Fatalf("expected the post-flush top to republish, got %d BBO events", len(result.BBOEvents))
	}
}

func TestBBODeltaSuppressedWhenTopUnchanged(t *testing.T) {
	book, registry, nextExecID := newTestBook()

	first := NewOrder(1, "", "BTC-USDT", SideBuy, TypeLimit, 10, 100)
	result := book.Execute(first, registry, nextExecID)
	if len(result.BBOEvents) == 0 {
		t.Fatal("first resting order at a new top must emit a BBO delta")
	}

	// A second order behind the first at a worse price must not move the
	// top of book at all.
	second := NewOrder(2, "", "BTC-USDT", SideBuy, TypeLimit, 10, 99)
	result = book.Execute(second, registry, nextExecID)
	for _, ev := range result.BBOEvents {
		if ev.Side == SideBuy {
			t.Fatal("BUY top did not change; no BUY BBO delta should be emitted")
		}
	}
}
