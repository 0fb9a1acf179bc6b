package memory

import (
	"context"
	"testing"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

func TestCandleStore_UpsertBulkAndGetRange(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	candles := []*domain.Candle{
		{Mint: "mint1", Resolution: domain.Resolution1h, T: 3600, Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Mint: "mint1", Resolution: domain.Resolution1h, T: 7200, Open: 1.5, High: 3, Low: 1, Close: 2},
		{Mint: "mint1", Resolution: domain.Resolution1h, T: 10800, Open: 2, High: 4, Low: 2, Close: 3},
		{Mint: "mint1", Resolution: domain.Resolution1m, T: 3600, Open: 1, High: 1, Low: 1, Close: 1},
		{Mint: "mint2", Resolution: domain.Resolution1h, T: 3600, Open: 9, High: 9, Low: 9, Close: 9},
	}
	if err := store.UpsertBulk(ctx, candles); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	got, err := store.GetRange(ctx, "mint1", domain.Resolution1h, 3600, 7200)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(got))
	}
	if got[0].T != 3600 || got[1].T != 7200 {
		t.Errorf("Expected ascending t order, got %d,%d", got[0].T, got[1].T)
	}
	if got[1].High != 3 {
		t.Errorf("High mismatch: got %f", got[1].High)
	}
}

func TestCandleStore_UpsertReplacesByKey(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	if err := store.UpsertBulk(ctx, []*domain.Candle{
		{Mint: "mint1", Resolution: domain.Resolution1m, T: 60, Close: 1},
	}); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}
	if err := store.UpsertBulk(ctx, []*domain.Candle{
		{Mint: "mint1", Resolution: domain.Resolution1m, T: 60, Close: 2},
	}); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	got, err := store.GetRange(ctx, "mint1", domain.Resolution1m, 0, 120)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 candle after replace, got %d", len(got))
	}
	if got[0].Close != 2 {
		t.Errorf("Expected replaced close 2, got %f", got[0].Close)
	}
}
