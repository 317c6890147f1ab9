package application

import (
	"fmt"
	"math"

	"github.com/wyfcoding/financialtrading/internal/matchingengine/domain"
)

// validateAndBuild runs the validation sequence (first failure wins) and,
// on success, assigns an identifier and constructs the domain.Order ready
// for Engine.Submit to route into a book. No state is mutated if any step
// fails.
func (e *Engine) validateAndBuild(req SubmitOrderRequest) (*domain.Order, *domain.Error) {
	orderType := req.Type

	qty, perr := ParseAmount(req.Quantity)
	if perr != nil {
		return nil, domain.ErrInvalidQuantity(fmt.Sprintf("malformed quantity %q: %v", req.Quantity, perr))
	}

	// 1. quantity finite, positive, <= MAX_ORDER_QTY.
	if !isFiniteNumber(qty) || !domain.IsPositive(qty) {
		return nil, domain.ErrInvalidQuantity(fmt.Sprintf("quantity %g must be finite and positive", qty))
	}
	if domain.IsGreater(qty, e.cfg.MaxOrderQty) {
		return nil, domain.ErrInvalidQuantity(fmt.Sprintf("quantity %g exceeds MAX_ORDER_QTY %g", qty, e.cfg.MaxOrderQty))
	}
	if domain.IsLess(qty, e.cfg.MinOrderQty) {
		return nil, domain.ErrInvalidQuantity(fmt.Sprintf("quantity %g below MIN_ORDER_QTY %g", qty, e.cfg.MinOrderQty))
	}

	// 2. tag length <= MAX_TAG_SIZE.
	if len(req.Tag) > e.cfg.MaxTagSize {
		return nil, domain.ErrInvalidTag(fmt.Sprintf("tag length %d exceeds MAX_TAG_SIZE %d", len(req.Tag), e.cfg.MaxTagSize))
	}

	// 3. symbol present and recognised.
	if req.Symbol == "" {
		return nil, domain.ErrInvalidSymbol("symbol is required")
	}
	if len(req.Symbol) > e.cfg.SymbolLength {
		return nil, domain.ErrInvalidSymbol(fmt.Sprintf("symbol %q exceeds SYMBOL_LENGTH %d", req.Symbol, e.cfg.SymbolLength))
	}
	if len(e.cfg.TradedSymbols) > 0 && !e.cfg.TradedSymbols[req.Symbol] {
		return nil, domain.ErrInvalidSymbol(fmt.Sprintf("symbol %q is not in TRADED_SYMBOLS", req.Symbol))
	}

	// 4. global registry size < MAX_GLOBAL_ORDERS.
	if e.registry.Size() >= e.cfg.MaxGlobalOrders {
		return nil, domain.ErrCapacity(fmt.Sprintf("global order cap %d reached", e.cfg.MaxGlobalOrders))
	}

	var price float64
	if orderType == domain.TypeLimit {
		// 5. MIN_ORDER_PRICE <= price <= MAX_ORDER_PRICE.
		price, perr = ParseAmount(req.Price)
		if perr != nil {
			return nil, domain.ErrInvalidPrice(fmt.Sprintf("malformed price %q: %v", req.Price, perr))
		}
		if !isFiniteNumber(price) || !domain.IsPositive(price) {
			return nil, domain.ErrInvalidPrice(fmt.Sprintf("price %g must be finite and positive", price))
		}
		if domain.IsLess(price, e.cfg.MinOrderPrice) || domain.IsGreater(price, e.cfg.MaxOrderPrice) {
			return nil, domain.ErrInvalidPrice(fmt.Sprintf("price %g outside [%g, %g]", price, e.cfg.MinOrderPrice, e.cfg.MaxOrderPrice))
		}

		// 6. price band around last traded price, if any trade has occurred.
		if book, ok := e.peekBook(req.Symbol); ok {
			lastPrice := book.GetLastPrice()
			if domain.IsPositive(lastPrice) {
				lower := lastPrice * (1 - e.cfg.PriceBand)
				upper := lastPrice * (1 + e.cfg.PriceBand)
				if domain.IsLess(price, lower) || domain.IsGreater(price, upper) {
					return nil, domain.ErrBand(price, lastPrice, e.cfg.PriceBand)
				}
			}

			// 7. target book not saturated, unless price matches an existing level.
			if book.GetPriceLevelCount() >= e.cfg.MaxPriceLevels && !book.HasLevelAt(price) {
				return nil, domain.ErrCapacity(fmt.Sprintf("book %s price level cap %d reached", req.Symbol, e.cfg.MaxPriceLevels))
			}
		}
	}

	id := e.orderIDs.Next()
	return domain.NewOrder(id, req.Tag, req.Symbol, req.Side, orderType, qty, price), nil
}

func isFiniteNumber(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
