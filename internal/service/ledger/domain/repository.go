package domain

import "context"

// AccountRepository is implemented by the infrastructure layer.
type AccountRepository interface {
	FindByNumber(ctx context.Context, number string) (*Account, error)
	// FindByNumberForUpdate locks the account row for the duration of
	// the surrounding unit of work. Outside a unit of work it behaves
	// like FindByNumber.
	FindByNumberForUpdate(ctx context.Context, number string) (*Account, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	Save(ctx context.Context, account *Account) error
	List(ctx context.Context) ([]*Account, error)
}

type TransactionRepository interface {
	// Append persists the record and fills in its ID.
	Append(ctx context.Context, tx *Transaction) error
	HistoryFor(ctx context.Context, number string) ([]*Transaction, error)
	Statement(ctx context.Context, number string, year, month int) ([]*Transaction, error)
}

// UnitOfWork runs fn with repositories bound to a single storage
// transaction: either every save inside fn commits, or none do. The
// transfer operation relies on this for its no-partial-effect
// guarantee.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(accounts AccountRepository, transactions TransactionRepository) error) error
}
