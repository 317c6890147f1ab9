package domain

import "sort"

// bookSide is a price-sorted collection of levels for one side of a book.
// levels[0] is always the best level: highest price for BUY, lowest price
// for SELL. A sorted slice with binary-search insertion is one of the two
// level-index choices the design allows (the other being a balanced ordered
// map); we take the slice because no ordered-map/tree library with
// available source sits in the reference pack to ground that alternative on
// (see DESIGN.md).
type bookSide struct {
	side   Side
	levels []*PriceLevel
}

func newBookSide(side Side) *bookSide {
	return &bookSide{side: side}
}

// better reports whether price a ranks ahead of price b in this side's
// traversal order.
func (bs *bookSide) better(a, b float64) bool {
	if bs.side == SideBuy {
		return a > b
	}
	return a < b
}

// find returns the level at exactly price, or nil if none exists.
func (bs *bookSide) find(price float64) *PriceLevel {
	i := bs.search(price)
	if i < len(bs.levels) && IsEqual(bs.levels[i].Price, price) {
		return bs.levels[i]
	}
	return nil
}

// search returns the index of the level at price, or the index at which a
// new level at price should be inserted to keep levels in traversal order.
func (bs *bookSide) search(price float64) int {
	return sort.Search(len(bs.levels), func(i int) bool {
		return !bs.better(bs.levels[i].Price, price)
	})
}

// getOrCreate returns the level at price, creating and inserting it in
// sorted position if it is not already present.
func (bs *bookSide) getOrCreate(price float64) *PriceLevel {
	i := bs.search(price)
	if i < len(bs.levels) && IsEqual(bs.levels[i].Price, price) {
		return bs.levels[i]
	}
	lv := newPriceLevel(price)
	bs.levels = append(bs.levels, nil)
	copy(bs.levels[i+1:], bs.levels[i:])
	bs.levels[i] = lv
	return lv
}

// removeEmpty drops level from the slice if it is present and empty. It is
// a no-op otherwise, so callers can call it unconditionally after any
// operation that might have drained a level.
func (bs *bookSide) removeEmpty(lv *PriceLevel) {
	if !lv.empty() {
		return
	}
	i := bs.search(lv.Price)
	if i < len(bs.levels) && bs.levels[i] == lv {
		bs.levels = append(bs.levels[:i], bs.levels[i+1:]...)
	}
}

func (bs *bookSide) best() *PriceLevel {
	if len(bs.levels) == 0 {
		return nil
	}
	return bs.levels[0]
}

func (bs *bookSide) empty() bool {
	return len(bs.levels) == 0
}

func (bs *bookSide) levelCount() int {
	return len(bs.levels)
}
