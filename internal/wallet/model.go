package wallet

import "time"

// Wallet is the balance-holding account tied one-to-one with a user. The
// address is a random 128-bit identifier, generated once at creation and
// shared publicly so counterparties can route funds and messages to it.
// The balance itself is owned by the ledger store and never mutated here.
type Wallet struct {
	ID        string
	OwnerID   string
	Address   string
	CreatedAt time.Time
}
