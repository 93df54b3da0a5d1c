package book

// matchOrders pairs the best bid with the best ask while they cross,
// front order against front order, and returns the trades produced.
// Caller holds the book lock.
//
// Each pairing fills both orders by min(remaining, remaining), so one side
// can fully fill while the other stays resting with reduced quantity at the
// front of its level. Fully filled orders leave the queue and the index
// immediately; emptied levels leave the ladder before best prices are
// re-read, so the loop never sees an empty level.
func (b *Book) matchOrders() ([]Trade, error) {
	var trades []Trade

	for {
		bidLv, ok := b.bids.best()
		if !ok {
			break
		}
		askLv, ok := b.asks.best()
		if !ok {
			break
		}
		if bidLv.price < askLv.price {
			break
		}

		for bidLv.queue.Len() > 0 && askLv.queue.Len() > 0 {
			bid := bidLv.queue.Front().Value.(*Order)
			ask := askLv.queue.Front().Value.(*Order)

			qty := bid.Remaining
			if ask.Remaining < qty {
				qty = ask.Remaining
			}

			if err := bid.Fill(qty); err != nil {
				return trades, err
			}
			if err := ask.Fill(qty); err != nil {
				return trades, err
			}

			// Each side trades at its own limit price.
			trade := Trade{
				Bid: Fill{OrderID: bid.ID, Price: bid.Price, Quantity: qty},
				Ask: Fill{OrderID: ask.ID, Price: ask.Price, Quantity: qty},
			}
			trades = append(trades, trade)
			if b.onTrade != nil {
				b.onTrade(trade)
			}

			if bid.IsFilled() {
				bidLv.queue.Remove(bidLv.queue.Front())
				delete(b.orders, bid.ID)
			}
			if ask.IsFilled() {
				askLv.queue.Remove(askLv.queue.Front())
				delete(b.orders, ask.ID)
			}
		}

		if bidLv.queue.Len() == 0 {
			b.bids.dropLevel(bidLv)
		}
		if askLv.queue.Len() == 0 {
			b.asks.dropLevel(askLv)
		}
	}

	return trades, nil
}
