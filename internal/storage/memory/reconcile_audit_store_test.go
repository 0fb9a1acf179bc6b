package memory

import (
	"context"
	"testing"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

func TestReconcileAuditStore_InsertAssignsIDs(t *testing.T) {
	store := NewReconcileAuditStore()
	ctx := context.Background()

	a1 := &domain.ReconcileAudit{Wallet: "w1", FromSlot: 1000, ToSlot: 1999, OK: true}
	a2 := &domain.ReconcileAudit{Wallet: "w1", FromSlot: 2000, ToSlot: 2999, OK: false}

	if err := store.Insert(ctx, a1); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, a2); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if a1.ID != 1 || a2.ID != 2 {
		t.Errorf("Expected sequential IDs 1,2; got %d,%d", a1.ID, a2.ID)
	}
}

func TestReconcileAuditStore_GetByWalletNewestFirst(t *testing.T) {
	store := NewReconcileAuditStore()
	ctx := context.Background()

	rows := []*domain.ReconcileAudit{
		{Wallet: "w1", FromSlot: 1000, ToSlot: 1999},
		{Wallet: "w2", FromSlot: 1000, ToSlot: 1999},
		{Wallet: "w1", FromSlot: 2000, ToSlot: 2999},
	}
	for _, a := range rows {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByWallet(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByWallet failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	if got[0].FromSlot != 2000 {
		t.Errorf("Expected newest row first, got fromSlot=%d", got[0].FromSlot)
	}
}
