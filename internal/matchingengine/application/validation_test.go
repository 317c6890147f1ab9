package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/wyfcoding/financialtrading/internal/matchingengine/domain"
)

func testEngine() *Engine {
	return NewEngine(EngineConfig{
		SymbolLength:    16,
		MaxGlobalOrders: 1000,
		MaxPriceLevels:  10,
		MaxTagSize:      8,
		MinOrderPrice:   1,
		MaxOrderPrice:   1000000,
		MinOrderQty:     0.001,
		MaxOrderQty:     1000,
		PriceBand:       0.1,
		TradedSymbols:   map[string]bool{"BTC-USDT": true},
	}, nil)
}

func TestValidateAndBuildAccepts(t *testing.T) {
	e := testEngine()
	o, verr := e.validateAndBuild(SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "10", Price: "100",
	})
	if verr != nil {
		t.Fatalf("unexpected rejection: %v", verr)
	}
	if o.ID == 0 {
		t.Fatal("accepted order must receive a non-zero identifier")
	}
}

func TestValidateAndBuildRejectsQuantityOutOfRange(t *testing.T) {
	e := testEngine()
	_, verr := e.validateAndBuild(SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "0.0000001", Price: "100",
	})
	if verr == nil || verr.SubKind != domain.SubKindInvalidQuantity {
		t.Fatalf("expected invalid-quantity rejection, got %v", verr)
	}

	_, verr = e.validateAndBuild(SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "1000000", Price: "100",
	})
	if verr == nil || verr.SubKind != domain.SubKindInvalidQuantity {
		t.Fatalf("expected invalid-quantity rejection for over-max, got %v", verr)
	}
}

func TestValidateAndBuildRejectsTagTooLong(t *testing.T) {
	e := testEngine()
	_, verr := e.validateAndBuild(SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "10", Price: "100", Tag: "way-too-long-a-tag",
	})
	if verr == nil || verr.SubKind != domain.SubKindInvalidTag {
		t.Fatalf("expected invalid-tag rejection, got %v", verr)
	}
}

func TestValidateAndBuildRejectsUnlistedSymbol(t *testing.T) {
	e := testEngine()
	_, verr := e.validateAndBuild(SubmitOrderRequest{
		Symbol: "DOGE-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "10", Price: "100",
	})
	if verr == nil || verr.SubKind != domain.SubKindInvalidSymbol {
		t.Fatalf("expected invalid-symbol rejection, got %v", verr)
	}
}

func TestValidateAndBuildRejectsPriceOutOfRange(t *testing.T) {
	e := testEngine()
	_, verr := e.validateAndBuild(SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "10", Price: "0.5",
	})
	if verr == nil || verr.SubKind != domain.SubKindInvalidPrice {
		t.Fatalf("expected invalid-price rejection below MIN_ORDER_PRICE, got %v", verr)
	}
}

// price = MIN_ORDER_PRICE is accepted (the below-minimum rejection is
// checked by TestValidateAndBuildRejectsPriceOutOfRange).
func TestValidateAndBuildPriceBoundary(t *testing.T) {
	e := testEngine()
	_, verr := e.validateAndBuild(SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "10", Price: "1",
	})
	if verr != nil {
		t.Fatalf("price at MIN_ORDER_PRICE must be accepted, got %v", verr)
	}
}

func TestValidateAndBuildRejectsPriceOutsideBand(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	// Establish a last traded price of 100 on BTC-USDT.
	if _, err := e.Submit(ctx, SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideSell, Type: domain.TypeLimit,
		Quantity: "10", Price: "100",
	}); err != nil {
		t.Fatalf("setup sell rejected: %v", err)
	}
	if _, err := e.Submit(ctx, SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "10", Price: "100",
	}); err != nil {
		t.Fatalf("setup buy rejected: %v", err)
	}

	// PriceBand is 0.1, so [90, 110] is acceptable; 50 is well outside it.
	_, rerr := e.validateAndBuild(SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "1", Price: "50",
	})
	if rerr == nil || rerr.Kind != domain.ErrPriceOutOfBand {
		t.Fatalf("expected price-out-of-band rejection, got %v", rerr)
	}
}

func TestValidateAndBuildRejectsPriceLevelCapUnlessExisting(t *testing.T) {
	e := testEngine() // MaxPriceLevels: 10
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		price := 100 + float64(i)
		if _, err := e.Submit(ctx, SubmitOrderRequest{
			Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
			Quantity: "1", Price: fmt.Sprintf("%g", price),
		}); err != nil {
			t.Fatalf("setup order at price %g rejected: %v", price, err)
		}
	}

	// An 11th distinct price must be rejected; a repeat of an existing price
	// must still be accepted.
	_, verr := e.validateAndBuild(SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "1", Price: "200",
	})
	if verr == nil || verr.Kind != domain.ErrCapacityExhausted {
		t.Fatalf("expected per-book level cap rejection, got %v", verr)
	}

	_, verr = e.validateAndBuild(SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: domain.SideBuy, Type: domain.TypeLimit,
		Quantity: "1", Price: "100",
	})
	if verr != nil {
		t.Fatalf("an order at an existing level must be exempt from the cap, got %v", verr)
	}
}
