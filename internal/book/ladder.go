package book

import (
	"container/list"

	"github.com/google/btree"
)

// level is one price level: a price plus the orders resting at it in
// arrival order. A level never exists empty — the ladder drops it the
// moment its queue drains.
type level struct {
	price int64
	queue *list.List // of *Order, front = oldest
}

// totalQuantity sums the remaining quantity of every order at this level.
func (lv *level) totalQuantity() int64 {
	var total int64
	for e := lv.queue.Front(); e != nil; e = e.Next() {
		total += e.Value.(*Order).Remaining
	}
	return total
}

// ladder is one side's price-ordered collection of levels. The btree's
// less function puts the best price for the side first, so Min is always
// the crossing candidate: highest price for bids, lowest for asks.
type ladder struct {
	levels *btree.BTreeG[*level]
	side   Side
}

const ladderDegree = 32

func newLadder(side Side) *ladder {
	less := func(a, b *level) bool { return a.price < b.price }
	if side == Buy {
		less = func(a, b *level) bool { return a.price > b.price }
	}
	return &ladder{
		levels: btree.NewG(ladderDegree, less),
		side:   side,
	}
}

// best returns the best-priced level, best-to-worst per the side's ordering.
func (l *ladder) best() (*level, bool) {
	return l.levels.Min()
}

// bestPrice returns the side's best price, or false when the side is empty.
func (l *ladder) bestPrice() (int64, bool) {
	lv, ok := l.levels.Min()
	if !ok {
		return 0, false
	}
	return lv.price, true
}

// insert appends the order to its price level, creating the level if
// absent, and returns a stable element reference for O(1) removal.
func (l *ladder) insert(o *Order) *list.Element {
	lv, ok := l.levels.Get(&level{price: o.Price})
	if !ok {
		lv = &level{price: o.Price, queue: list.New()}
		l.levels.ReplaceOrInsert(lv)
	}
	return lv.queue.PushBack(o)
}

// remove splices one order out of its level and drops the level if that
// left it empty.
func (l *ladder) remove(price int64, elem *list.Element) {
	lv, ok := l.levels.Get(&level{price: price})
	if !ok {
		return
	}
	lv.queue.Remove(elem)
	if lv.queue.Len() == 0 {
		l.levels.Delete(lv)
	}
}

// dropLevel removes an emptied level. The caller must have drained it.
func (l *ladder) dropLevel(lv *level) {
	l.levels.Delete(lv)
}

func (l *ladder) empty() bool {
	return l.levels.Len() == 0
}

// ascend walks the levels best-to-worst until fn returns false.
func (l *ladder) ascend(fn func(lv *level) bool) {
	l.levels.Ascend(fn)
}
