package domain

import "time"

// MatchingEvent is the common interface satisfied by everything the engine
// emits: acknowledgements, rejects, trades, cancels, and BBO deltas.
type MatchingEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp every event shares.
type BaseEvent struct {
	Timestamp time.Time
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

func newBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// AckEvent is emitted when a NEW passes validation and is accepted.
type AckEvent struct {
	BaseEvent
	OrderID uint64
	Tag     string
}

func (e AckEvent) EventType() string { return "A" }

// RejectEvent is emitted when a NEW fails validation.
type RejectEvent struct {
	BaseEvent
	Tag     string
	Kind    ErrorKind
	SubKind ValidationSubKind
	Reason  string
}

func (e RejectEvent) EventType() string { return "R" }

// TradeEvent is emitted once per fill. Price is always the resting (maker)
// side's price. Buy/sell ordering is semantic, independent of which side was
// the aggressor.
type TradeEvent struct {
	BaseEvent
	ExecID      uint64
	Symbol      string
	Price       float64
	Quantity    float64
	BuyOrderID  uint64
	SellOrderID uint64
	TakerID     uint64
	MakerID     uint64
}

func (e TradeEvent) EventType() string { return "T" }

// CancelEvent is emitted on a successful cancel.
type CancelEvent struct {
	BaseEvent
	OrderID uint64
	Tag     string
}

func (e CancelEvent) EventType() string { return "C" }

// BBOEvent is emitted whenever the top price or top volume of a side
// changes against the last published value. An empty side is represented by
// Empty=true with Price/Quantity left at zero.
type BBOEvent struct {
	BaseEvent
	Symbol   string
	Side     Side
	Price    float64
	Quantity float64
	Empty    bool
}

func (e BBOEvent) EventType() string { return "B" }

// NewAck builds the "A" event emitted when a NEW passes validation.
func NewAck(id uint64, tag string) *AckEvent {
	return &AckEvent{BaseEvent: newBaseEvent(), OrderID: id, Tag: tag}
}

// NewReject builds the "R" event emitted when a NEW fails validation.
func NewReject(tag string, err *Error) *RejectEvent {
	return &RejectEvent{
		BaseEvent: newBaseEvent(),
		Tag:       tag,
		Kind:      err.Kind,
		SubKind:   err.SubKind,
		Reason:    err.Message,
	}
}

// NewCancelEvent builds the "C" event emitted on a successful cancel.
func NewCancelEvent(id uint64, tag string) *CancelEvent {
	return &CancelEvent{BaseEvent: newBaseEvent(), OrderID: id, Tag: tag}
}

func newTrade(execID uint64, symbol string, price, qty float64, buyID, sellID, takerID, makerID uint64) *TradeEvent {
	return &TradeEvent{
		BaseEvent:   newBaseEvent(),
		ExecID:      execID,
		Symbol:      symbol,
		Price:       price,
		Quantity:    qty,
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		TakerID:     takerID,
		MakerID:     makerID,
	}
}

func newBBO(symbol string, side Side, price, qty float64, empty bool) *BBOEvent {
	return &BBOEvent{
		BaseEvent: newBaseEvent(),
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Empty:     empty,
	}
}
