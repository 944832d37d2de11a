package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/lumapay/lumapay/internal/ledger"
	"github.com/lumapay/lumapay/internal/money"
)

func TestServiceCreateAndBalance(t *testing.T) {
	repo := NewMemoryRepository()
	led := ledger.NewInMemory()
	svc := NewService(repo, led)

	ctx := context.Background()
	ownerID := uuid.NewString()
	w, err := svc.Create(ctx, CreateInput{OwnerID: ownerID, OwnerName: "alice"})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if w.Address == "" {
		t.Fatal("expected generated address")
	}

	fetched, err := svc.GetByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("get by owner: %v", err)
	}
	if fetched.ID != w.ID {
		t.Fatalf("expected wallet %s, got %s", w.ID, fetched.ID)
	}

	byAddress, err := svc.GetByAddress(ctx, w.Address)
	if err != nil {
		t.Fatalf("get by address: %v", err)
	}
	if byAddress.ID != w.ID {
		t.Fatalf("address lookup returned wrong wallet: %s", byAddress.ID)
	}

	balance, err := svc.Balance(ctx, w.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.String() != "0.00" {
		t.Fatalf("expected zero starting balance, got %s", balance)
	}

	ledger.SeedBalance(led, w.ID, money.MustParse("25.00"))
	balance, _ = svc.Balance(ctx, w.ID)
	if balance.String() != "25.00" {
		t.Fatalf("expected balance 25.00, got %s", balance)
	}
}

func TestServiceCreateConflict(t *testing.T) {
	svc := NewService(NewMemoryRepository(), ledger.NewInMemory())
	ctx := context.Background()
	ownerID := uuid.NewString()

	if _, err := svc.Create(ctx, CreateInput{OwnerID: ownerID, OwnerName: "bob"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{OwnerID: ownerID, OwnerName: "bob"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestServiceLookupsNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepository(), ledger.NewInMemory())
	ctx := context.Background()

	if _, err := svc.GetByOwner(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found by owner, got %v", err)
	}
	if _, err := svc.GetByAddress(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found by address, got %v", err)
	}
}
