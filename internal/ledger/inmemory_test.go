package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lumapay/lumapay/internal/money"
)

func newTestStore(t *testing.T, wallets ...string) Store {
	t.Helper()
	s := NewInMemory()
	ctx := context.Background()
	for _, w := range wallets {
		if err := s.EnsureWallet(ctx, w, "owner-"+w); err != nil {
			t.Fatalf("ensure wallet %s: %v", w, err)
		}
	}
	return s
}

func TestDepositThenTransferScenario(t *testing.T) {
	s := newTestStore(t, "wallet-a", "wallet-b")
	ctx := context.Background()
	SeedBalance(s, "wallet-a", money.MustParse("100.00"))

	dep, err := s.Deposit(ctx, "wallet-a", money.MustParse("50.00"))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if dep.NewBalance.String() != "150.00" {
		t.Fatalf("expected balance 150.00, got %s", dep.NewBalance)
	}
	if dep.Transaction.Kind != KindDeposit || dep.Transaction.SenderID != nil || dep.Transaction.ReceiverID != nil {
		t.Fatalf("unexpected deposit row: %+v", dep.Transaction)
	}

	res, err := s.Transfer(ctx, "wallet-a", "wallet-b", money.MustParse("30.00"))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.SenderBalance.String() != "120.00" || res.ReceiverBalance.String() != "30.00" {
		t.Fatalf("unexpected balances: %s / %s", res.SenderBalance, res.ReceiverBalance)
	}

	if _, err := s.Transfer(ctx, "wallet-a", "wallet-b", money.MustParse("200.00")); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	balance, _ := s.Balance(ctx, "wallet-a")
	if balance.String() != "120.00" {
		t.Fatalf("rejected transfer mutated balance: %s", balance)
	}
}

func TestTransferProducesPairedRows(t *testing.T) {
	s := newTestStore(t, "wallet-a", "wallet-b")
	ctx := context.Background()
	SeedBalance(s, "wallet-a", money.MustParse("40.00"))

	res, err := s.Transfer(ctx, "wallet-a", "wallet-b", money.MustParse("15.00"))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	out := res.Posting.Transfer
	in := res.Posting.Receive
	if out.Kind != KindTransfer || out.WalletID != "wallet-a" {
		t.Fatalf("bad transfer row: %+v", out)
	}
	if in.Kind != KindReceive || in.WalletID != "wallet-b" {
		t.Fatalf("bad receive row: %+v", in)
	}
	if *out.SenderID != *in.SenderID || *out.ReceiverID != *in.ReceiverID || !out.Amount.Equal(in.Amount) {
		t.Fatal("posting rows disagree on sender/receiver/amount")
	}

	senderRows, _ := s.List(ctx, "wallet-a", Filter{}, Page{})
	receiverRows, _ := s.List(ctx, "wallet-b", Filter{}, Page{})
	if len(senderRows) != 1 || len(receiverRows) != 1 {
		t.Fatalf("expected one row per wallet, got %d / %d", len(senderRows), len(receiverRows))
	}
}

func TestSelfTransferLeavesBalanceUnchanged(t *testing.T) {
	s := newTestStore(t, "wallet-a")
	ctx := context.Background()
	SeedBalance(s, "wallet-a", money.MustParse("10.00"))

	res, err := s.Transfer(ctx, "wallet-a", "wallet-a", money.MustParse("1.00"))
	if err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if res.SenderBalance.String() != "10.00" {
		t.Fatalf("self transfer changed balance: %s", res.SenderBalance)
	}
	rows, _ := s.List(ctx, "wallet-a", Filter{}, Page{})
	if len(rows) != 2 {
		t.Fatalf("expected paired rows for self transfer, got %d", len(rows))
	}
}

func TestInvalidAmountRejected(t *testing.T) {
	s := newTestStore(t, "wallet-a", "wallet-b")
	ctx := context.Background()
	if _, err := s.Deposit(ctx, "wallet-a", money.Zero()); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := s.Transfer(ctx, "wallet-a", "wallet-b", money.MustParse("-5.00")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestConcurrentTransfersDrainExactly(t *testing.T) {
	const workers = 10
	amount := money.MustParse("10.00")

	wallets := []string{"wallet-src"}
	for i := 0; i < workers; i++ {
		wallets = append(wallets, fmt.Sprintf("wallet-%d", i))
	}
	s := newTestStore(t, wallets...)
	ctx := context.Background()
	SeedBalance(s, "wallet-src", money.MustParse("100.00")) // exactly workers * amount

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Transfer(ctx, "wallet-src", fmt.Sprintf("wallet-%d", i), amount); err != nil {
				t.Errorf("transfer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	balance, err := s.Balance(ctx, "wallet-src")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.String() != "0.00" {
		t.Fatalf("expected drained wallet, got %s", balance)
	}

	if _, err := s.Transfer(ctx, "wallet-src", "wallet-0", amount); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds on extra transfer, got %v", err)
	}

	total := money.Zero()
	for _, w := range wallets {
		bal, _ := s.Balance(ctx, w)
		if bal.IsNegative() {
			t.Fatalf("wallet %s went negative: %s", w, bal)
		}
		total = total.Add(bal)
	}
	if total.String() != "100.00" {
		t.Fatalf("funds not conserved, total=%s", total)
	}
}

func TestListFilters(t *testing.T) {
	s := newTestStore(t, "wallet-a", "wallet-b", "wallet-c")
	ctx := context.Background()
	SeedBalance(s, "wallet-a", money.MustParse("500.00"))

	if _, err := s.Deposit(ctx, "wallet-a", money.MustParse("25.00")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := s.Transfer(ctx, "wallet-a", "wallet-b", money.MustParse("100.00")); err != nil {
		t.Fatalf("transfer to b: %v", err)
	}
	if _, err := s.Transfer(ctx, "wallet-a", "wallet-c", money.MustParse("7.50")); err != nil {
		t.Fatalf("transfer to c: %v", err)
	}

	all, err := s.List(ctx, "wallet-a", Filter{}, Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}

	byKind, _ := s.List(ctx, "wallet-a", Filter{Kind: KindTransfer}, Page{})
	if len(byKind) != 2 {
		t.Fatalf("expected 2 transfer rows, got %d", len(byKind))
	}

	min := money.MustParse("50.00")
	byAmount, _ := s.List(ctx, "wallet-a", Filter{MinAmount: &min}, Page{})
	if len(byAmount) != 1 || !byAmount[0].Amount.Equal(money.MustParse("100.00")) {
		t.Fatalf("amount filter failed: %+v", byAmount)
	}

	// Counterparty matching is a case-insensitive substring of the owner name.
	byName, _ := s.List(ctx, "wallet-a", Filter{Counterparty: "OWNER-WALLET-C"}, Page{})
	if len(byName) != 1 || !byName[0].Amount.Equal(money.MustParse("7.50")) {
		t.Fatalf("counterparty filter failed: %+v", byName)
	}

	future := time.Now().UTC().Add(time.Hour)
	none, _ := s.List(ctx, "wallet-a", Filter{Start: &future}, Page{})
	if len(none) != 0 {
		t.Fatalf("expected empty result for future window, got %d", len(none))
	}
}

func TestListPaginationIsStable(t *testing.T) {
	s := newTestStore(t, "wallet-a")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.Deposit(ctx, "wallet-a", money.MustParse("1.00")); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}

	var paged []Transaction
	for offset := 0; offset < 5; offset += 2 {
		page, err := s.List(ctx, "wallet-a", Filter{}, Page{Limit: 2, Offset: offset})
		if err != nil {
			t.Fatalf("list page: %v", err)
		}
		paged = append(paged, page...)
	}

	all, _ := s.List(ctx, "wallet-a", Filter{}, Page{})
	if len(paged) != len(all) {
		t.Fatalf("pagination dropped rows: %d vs %d", len(paged), len(all))
	}
	for i := range all {
		if all[i].ID != paged[i].ID {
			t.Fatalf("pagination reordered rows at %d", i)
		}
	}
}

func TestStatsCounters(t *testing.T) {
	s := newTestStore(t, "wallet-a", "wallet-b")
	ctx := context.Background()
	SeedBalance(s, "wallet-a", money.MustParse("50.00"))

	s.Deposit(ctx, "wallet-a", money.MustParse("5.00"))
	s.Transfer(ctx, "wallet-a", "wallet-b", money.MustParse("20.00"))

	since := time.Now().UTC().Add(-time.Minute)
	count, err := s.CountSince(ctx, since)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 { // deposit + transfer + receive
		t.Fatalf("expected 3 rows, got %d", count)
	}

	volume, err := s.VolumeSince(ctx, since)
	if err != nil {
		t.Fatalf("volume: %v", err)
	}
	if volume.String() != "20.00" {
		t.Fatalf("expected volume 20.00, got %s", volume)
	}
}
