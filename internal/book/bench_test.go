package book

import "testing"

// BenchmarkBook_AddOrder benchmarks non-crossing order insertion.
func BenchmarkBook_AddOrder(b *testing.B) {
	bk := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.AddOrder(NewOrder(GoodTilCancel, int64(i+1), Buy, int64(50000+i%100), 1))
	}
}

// BenchmarkBook_Match benchmarks crossing against resting depth.
func BenchmarkBook_Match(b *testing.B) {
	bk := New()
	for i := 0; i < 1000; i++ {
		bk.AddOrder(NewOrder(GoodTilCancel, int64(i+1), Sell, int64(50000+i%100), 10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.AddOrder(NewOrder(FillAndKill, int64(b.N+i+1), Buy, 50050, 1))
	}
}

// BenchmarkBook_CancelOrder benchmarks O(1) cancellation.
func BenchmarkBook_CancelOrder(b *testing.B) {
	bk := New()
	for i := 0; i < b.N; i++ {
		bk.AddOrder(NewOrder(GoodTilCancel, int64(i+1), Buy, int64(50000+i%100), 1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.CancelOrder(int64(i + 1))
	}
}

// BenchmarkBook_CancelUnknown benchmarks the unknown-ID no-op path.
func BenchmarkBook_CancelUnknown(b *testing.B) {
	bk := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.CancelOrder(int64(i + 1000000))
	}
}

// BenchmarkBook_BestPrice benchmarks best-price lookup on a deep book.
func BenchmarkBook_BestPrice(b *testing.B) {
	bk := New()
	for i := 0; i < 10000; i++ {
		bk.AddOrder(NewOrder(GoodTilCancel, int64(i+1), Buy, int64(50000+i%100), 1))
		bk.AddOrder(NewOrder(GoodTilCancel, int64(i+10001), Sell, int64(51000+i%100), 1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.BestBid()
		bk.BestAsk()
	}
}

// BenchmarkBook_Snapshot benchmarks full-book aggregation.
func BenchmarkBook_Snapshot(b *testing.B) {
	bk := New()
	for i := 0; i < 1000; i++ {
		bk.AddOrder(NewOrder(GoodTilCancel, int64(i+1), Buy, int64(50000+i%100), 1))
		bk.AddOrder(NewOrder(GoodTilCancel, int64(i+1001), Sell, int64(51000+i%100), 1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.Snapshot()
	}
}
