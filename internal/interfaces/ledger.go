package interfaces

import "context"

// CreditLedger is the admission-control gate. Reserve must complete (success
// or insufficient funds) before submit returns; it is the one blocking step
// on the caller-facing path.
type CreditLedger interface {
	// Reserve atomically deducts cost from the owner's balance.
	// Returns the remaining balance and ok=true on success, ok=false when the
	// balance cannot cover the cost. err is reserved for storage failures.
	Reserve(ctx context.Context, ownerID string, cost int) (remaining int, ok bool, err error)

	// Balance returns the owner's current balance
	Balance(ctx context.Context, ownerID string) (int, error)

	// Grant adds credits to the owner's balance, creating the account if needed
	Grant(ctx context.Context, ownerID string, amount int) (int, error)
}
