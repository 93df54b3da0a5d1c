package book

// Fill is one side of an executed trade. Price is the filled order's own
// limit price, which for crossing orders can differ between the two sides.
type Fill struct {
	OrderID  int64 `json:"order_id"`
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

// Trade pairs the buy-side and sell-side fills of one match. Trades are
// append-only output; the engine never touches one after creation.
type Trade struct {
	Bid Fill `json:"bid"`
	Ask Fill `json:"ask"`
}

// Quantity returns the matched quantity (identical on both sides).
func (t Trade) Quantity() int64 {
	return t.Bid.Quantity
}
