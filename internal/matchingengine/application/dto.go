package application

import "github.com/wyfcoding/financialtrading/internal/matchingengine/domain"

// SubmitOrderRequest is the application-layer command for a new order.
// Side and Type are already validated enums by the time this reaches the
// Engine — that parsing is the HTTP façade's job, mirroring how the
// external ingress parser would have done it upstream. Price is the
// wire-format string for a LIMIT order's price and is ignored for MARKET;
// Quantity and Price are parsed against the decimal boundary in
// ParseAmount before reaching the domain, which works exclusively in
// float64.
type SubmitOrderRequest struct {
	Symbol   string           `json:"symbol"`
	Side     domain.Side      `json:"side"`
	Type     domain.OrderType `json:"type"`
	Quantity string           `json:"quantity"`
	Price    string           `json:"price"`
	Tag      string           `json:"tag"`
}

// SubmitOrderResponse is returned on successful validation. Status
// summarises the taker's terminal disposition.
type SubmitOrderResponse struct {
	OrderID           uint64      `json:"order_id"`
	Status            string      `json:"status"` // "posted", "fully_filled", "partially_filled", "cancelled_no_liquidity"
	RemainingQuantity string      `json:"remaining_quantity"`
	Trades            []TradeView `json:"trades,omitempty"`
	BBOUpdates        []BBOView   `json:"bbo_updates,omitempty"`
}

// CancelOrderRequest identifies the order to cancel, by identifier or by
// client tag (exactly one should be set).
type CancelOrderRequest struct {
	OrderID uint64 `json:"order_id"`
	Tag     string `json:"tag"`
}

// CancelOrderResponse confirms a successful cancel.
type CancelOrderResponse struct {
	OrderID           uint64 `json:"order_id"`
	RemainingQuantity string `json:"remaining_quantity"`
}

// TradeView is the wire projection of one fill.
type TradeView struct {
	ExecID      uint64 `json:"exec_id"`
	Price       string `json:"price"`
	Quantity    string `json:"quantity"`
	BuyOrderID  uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
}

// BBOView is the wire projection of a top-of-book change.
type BBOView struct {
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Empty    bool   `json:"empty"`
}

// LevelView is one {price, quantity} row of a snapshot.
type LevelView struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// SnapshotView is the wire projection of a book snapshot.
type SnapshotView struct {
	Symbol    string      `json:"symbol"`
	Seq       uint64      `json:"seq"`
	Bids      []LevelView `json:"bids"`
	Asks      []LevelView `json:"asks"`
	LastPrice string      `json:"last_price"`
}

// OrderView is the wire projection returned by GetOrder.
type OrderView struct {
	OrderID          uint64 `json:"order_id"`
	Tag              string `json:"tag"`
	Symbol           string `json:"symbol"`
	Side             string `json:"side"`
	Type             string `json:"type"`
	OriginalQuantity string `json:"original_quantity"`
	RemainingQty     string `json:"remaining_quantity"`
	Price            string `json:"price,omitempty"`
	Status           string `json:"status"`
}
