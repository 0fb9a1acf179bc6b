package memory

import (
	"context"
	"testing"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

func TestTokenMetaStore_UpsertAndGetByMints(t *testing.T) {
	store := NewTokenMetaStore()
	ctx := context.Background()

	metas := []*domain.TokenMeta{
		{Mint: "mint1", Symbol: "TOK1", Decimals: 6, Source: domain.MetaSourceJupiter},
		{Mint: "mint2", Symbol: "TOK2", Decimals: 9, Source: domain.MetaSourceDerived},
	}
	for _, m := range metas {
		if err := store.Upsert(ctx, m); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	got, err := store.GetByMints(ctx, []string{"mint1", "mint2", "mint3"})
	if err != nil {
		t.Fatalf("GetByMints failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got["mint1"].Symbol != "TOK1" || got["mint1"].Decimals != 6 {
		t.Errorf("mint1 mismatch: %+v", got["mint1"])
	}
	if _, ok := got["mint3"]; ok {
		t.Error("Unknown mint must be absent from result")
	}
}

func TestTokenMetaStore_UpsertReplaces(t *testing.T) {
	store := NewTokenMetaStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, &domain.TokenMeta{Mint: "mint1", Symbol: "OLD", Decimals: 9, Source: domain.MetaSourceDerived}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, &domain.TokenMeta{Mint: "mint1", Symbol: "NEW", Decimals: 6, Source: domain.MetaSourceJupiter}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.GetByMints(ctx, []string{"mint1"})
	if err != nil {
		t.Fatalf("GetByMints failed: %v", err)
	}
	if got["mint1"].Symbol != "NEW" || got["mint1"].Source != domain.MetaSourceJupiter {
		t.Errorf("Expected replaced metadata, got %+v", got["mint1"])
	}
}
