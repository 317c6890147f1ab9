package domain

import "container/list"

// PriceLevel holds every resting order at one price, in FIFO arrival order.
// entries is a container/list.List so cancellation can remove an arbitrary
// entry in O(1) via a previously obtained *list.Element handle, without
// invalidating handles to any other entry — a plain slice would not give
// that guarantee.
type PriceLevel struct {
	Price       float64
	TotalVolume float64
	entries     *list.List // of *Order
}

func newPriceLevel(price float64) *PriceLevel {
	return &PriceLevel{Price: price, entries: list.New()}
}

// pushBack appends order to the back of the FIFO and returns the stable
// handle used for later O(1) removal.
func (l *PriceLevel) pushBack(o *Order) *list.Element {
	l.TotalVolume += o.RemainingQty
	return l.entries.PushBack(o)
}

// remove deletes the entry at handle from the FIFO and subtracts its
// remaining quantity from TotalVolume, snapping dust to zero. It returns the
// order that was resting at handle.
func (l *PriceLevel) remove(handle *list.Element) *Order {
	o := handle.Value.(*Order)
	l.TotalVolume = SubtractOrZero(l.TotalVolume, o.RemainingQty)
	l.entries.Remove(handle)
	return o
}

func (l *PriceLevel) empty() bool {
	return l.entries.Len() == 0
}

// front returns the oldest resting order, or nil if the level is empty.
func (l *PriceLevel) front() *list.Element {
	return l.entries.Front()
}

// volumeCheck recomputes Σ entries.RemainingQty for invariant testing.
func (l *PriceLevel) volumeCheck() float64 {
	var sum float64
	for e := l.entries.Front(); e != nil; e = e.Next() {
		sum += e.Value.(*Order).RemainingQty
	}
	return sum
}
