package domain

// Buyer is the shopper profile. BankAccountNumber is bound on first
// checkout if the buyer supplies one and has none on file.
type Buyer struct {
	ID                int64
	Name              string
	Email             string
	BankAccountNumber string
}
