package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/lumapay/lumapay/internal/ledger"
	"github.com/lumapay/lumapay/internal/money"
)

type stubMessageCounter struct {
	count int64
}

func (s *stubMessageCounter) CountSince(context.Context, time.Time) (int64, error) {
	return s.count, nil
}

func seedActivity(t *testing.T, store ledger.Store) (string, string) {
	t.Helper()
	ctx := context.Background()

	if err := store.EnsureWallet(ctx, "w-alice", "alice"); err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}
	if err := store.EnsureWallet(ctx, "w-bob", "bob"); err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}
	if _, err := store.Deposit(ctx, "w-alice", money.MustParse("100.00")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := store.Transfer(ctx, "w-alice", "w-bob", money.MustParse("40.00")); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	return "w-alice", "w-bob"
}

func TestListScopesToWallet(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store, nil)
	aliceID, bobID := seedActivity(t, store)
	ctx := context.Background()

	aliceRows, err := svc.List(ctx, aliceID, ledger.Filter{}, ledger.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Deposit plus the sender-side transfer row.
	if len(aliceRows) != 2 {
		t.Fatalf("expected 2 rows for sender, got %d", len(aliceRows))
	}
	if aliceRows[0].Kind != ledger.KindDeposit || aliceRows[1].Kind != ledger.KindTransfer {
		t.Fatalf("unexpected row order: %+v", aliceRows)
	}

	bobRows, err := svc.List(ctx, bobID, ledger.Filter{}, ledger.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bobRows) != 1 || bobRows[0].Kind != ledger.KindReceive {
		t.Fatalf("expected single receive row for receiver, got %+v", bobRows)
	}
}

func TestListFilterByKindAndCounterparty(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store, nil)
	aliceID, _ := seedActivity(t, store)
	ctx := context.Background()

	rows, err := svc.List(ctx, aliceID, ledger.Filter{Kind: ledger.KindTransfer}, ledger.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Kind != ledger.KindTransfer {
		t.Fatalf("expected the transfer row only, got %+v", rows)
	}

	rows, err = svc.List(ctx, aliceID, ledger.Filter{Counterparty: "BOB"}, ledger.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Kind != ledger.KindTransfer {
		t.Fatalf("expected case-insensitive counterparty match, got %+v", rows)
	}
}

func TestListPagination(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store, nil)
	ctx := context.Background()

	if err := store.EnsureWallet(ctx, "w-alice", "alice"); err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := store.Deposit(ctx, "w-alice", money.MustParse("1.00")); err != nil {
			t.Fatalf("deposit: %v", err)
		}
	}

	first, err := svc.List(ctx, "w-alice", ledger.Filter{}, ledger.Page{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	second, err := svc.List(ctx, "w-alice", ledger.Filter{}, ledger.Page{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected two pages of 2, got %d and %d", len(first), len(second))
	}
	if first[0].ID == second[0].ID || first[1].ID == second[0].ID {
		t.Fatal("pages must not overlap")
	}
}

func TestStatisticsWindows(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store, &stubMessageCounter{count: 4})
	seedActivity(t, store)

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}

	// Three rows total: one deposit and the paired transfer/receive rows.
	for name, w := range map[string]WindowStats{"week": stats.Week, "month": stats.Month, "year": stats.Year} {
		if w.TransactionCount != 3 {
			t.Fatalf("%s: expected 3 transactions, got %d", name, w.TransactionCount)
		}
		if !w.TransferVolume.Equal(money.MustParse("40.00")) {
			t.Fatalf("%s: expected volume 40.00, got %s", name, w.TransferVolume)
		}
		if w.MessageCount != 4 {
			t.Fatalf("%s: expected 4 messages, got %d", name, w.MessageCount)
		}
	}
}

func TestStatisticsWithoutMessageCounter(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store, nil)
	seedActivity(t, store)

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Week.MessageCount != 0 {
		t.Fatalf("expected 0 messages without counter, got %d", stats.Week.MessageCount)
	}
}
