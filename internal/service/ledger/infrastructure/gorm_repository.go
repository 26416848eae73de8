package infrastructure

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopbank/internal/service/ledger/domain"
)

// GormAccountRepository implements domain.AccountRepository.
type GormAccountRepository struct {
	db *gorm.DB
}

func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

func (r *GormAccountRepository) FindByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return r.find(ctx, r.db, number)
}

// FindByNumberForUpdate takes a row lock; it only has teeth inside a
// unit of work, where db is the transaction handle.
func (r *GormAccountRepository) FindByNumberForUpdate(ctx context.Context, number string) (*domain.Account, error) {
	return r.find(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), number)
}

func (r *GormAccountRepository) find(ctx context.Context, db *gorm.DB, number string) (*domain.Account, error) {
	var model AccountModel
	err := db.WithContext(ctx).Where("account_number = ?", number).First(&model).Error
	if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "query account")
	}
	return ToDomainAccount(&model), nil
}

func (r *GormAccountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&AccountModel{}).
		Where("account_number = ?", number).Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(err, "count accounts")
	}
	return count > 0, nil
}

func (r *GormAccountRepository) Save(ctx context.Context, account *domain.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	model := ToAccountModel(account)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return pkgerrors.Wrap(err, "save account")
	}
	account.ID = model.ID
	return nil
}

func (r *GormAccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	var models []AccountModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list accounts")
	}
	out := make([]*domain.Account, 0, len(models))
	for i := range models {
		out = append(out, ToDomainAccount(&models[i]))
	}
	return out, nil
}

// GormTransactionRepository implements domain.TransactionRepository.
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Append(ctx context.Context, tx *domain.Transaction) error {
	model := ToTransactionModel(tx)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return pkgerrors.Wrap(err, "append transaction")
	}
	tx.ID = model.ID
	return nil
}

func (r *GormTransactionRepository) HistoryFor(ctx context.Context, number string) ([]*domain.Transaction, error) {
	var models []TransactionModel
	err := r.db.WithContext(ctx).
		Where("from_account_number = ? OR to_account_number = ?", number, number).
		Order("transaction_date DESC").
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "transaction history")
	}
	return toDomainTransactions(models), nil
}

func (r *GormTransactionRepository) Statement(ctx context.Context, number string, year, month int) ([]*domain.Transaction, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)
	var models []TransactionModel
	err := r.db.WithContext(ctx).
		Where("(from_account_number = ? OR to_account_number = ?) AND transaction_date >= ? AND transaction_date < ?",
			number, number, start, end).
		Order("transaction_date DESC").
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "monthly statement")
	}
	return toDomainTransactions(models), nil
}

func toDomainTransactions(models []TransactionModel) []*domain.Transaction {
	out := make([]*domain.Transaction, 0, len(models))
	for i := range models {
		out = append(out, ToDomainTransaction(&models[i]))
	}
	return out
}

// GormUnitOfWork binds both repositories to one DB transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Within(ctx context.Context, fn func(accounts domain.AccountRepository, transactions domain.TransactionRepository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormAccountRepository(tx), NewGormTransactionRepository(tx))
	})
}
