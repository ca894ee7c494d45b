// Package ledger keeps each account's cached balance equal to the signed
// sum of its transactions. Every write that changes that sum runs inside a
// single datastore transaction together with the matching balance
// adjustment, so a failure leaves no partial state.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dlitvinov/finledger/internal/domain"
	"github.com/dlitvinov/finledger/internal/store"
)

// Service is the ledger engine. All operations take the caller's identity
// explicitly; nothing is read from ambient state.
type Service struct {
	store store.Ledger
}

// NewService creates an engine backed by the given store.
func NewService(st store.Ledger) *Service {
	return &Service{store: st}
}

// CreateAccountInput carries the fields for a new account.
type CreateAccountInput struct {
	Name      string
	Type      domain.AccountType
	Balance   decimal.Decimal
	IsDefault bool
}

// TransactionInput carries the mutable fields of a transaction for create
// and update.
type TransactionInput struct {
	AccountID         string
	Type              domain.TransactionType
	Amount            decimal.Decimal
	Date              time.Time
	Description       string
	Category          string
	IsRecurring       bool
	RecurringInterval domain.RecurringInterval
}

// CreateAccount creates an account. A user's first account becomes the
// default regardless of the flag; an explicitly-default account demotes the
// previous default inside the same unit of work.
func (s *Service) CreateAccount(ctx context.Context, userID string, in CreateAccountInput) (*domain.Account, error) {
	if userID == "" {
		return nil, &Error{Kind: KindUnauthenticated, Msg: "missing caller identity"}
	}
	if in.Name == "" {
		return nil, invalidf("account name is required")
	}
	if !in.Type.Valid() {
		return nil, invalidf("unknown account type %q", in.Type)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      in.Name,
		Type:      in.Type,
		Balance:   in.Balance,
		IsDefault: in.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.WithinTx(ctx, func(tx store.Ledger) error {
		n, err := tx.AccountCount(ctx, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			account.IsDefault = true
		}
		if account.IsDefault {
			if err := tx.ClearDefaultAccounts(ctx, userID); err != nil {
				return err
			}
		}
		return tx.CreateAccount(ctx, account)
	})
	if err != nil {
		return nil, classify(err, "create account")
	}
	return account, nil
}

// ListAccounts returns the caller's accounts with transaction counts.
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]store.AccountSummary, error) {
	if userID == "" {
		return nil, &Error{Kind: KindUnauthenticated, Msg: "missing caller identity"}
	}
	summaries, err := s.store.AccountSummaries(ctx, userID)
	if err != nil {
		return nil, classify(err, "list accounts")
	}
	return summaries, nil
}

// GetAccount returns one account with its transactions, newest first.
func (s *Service) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, []domain.Transaction, error) {
	if userID == "" {
		return nil, nil, &Error{Kind: KindUnauthenticated, Msg: "missing caller identity"}
	}
	account, err := s.store.AccountByID(ctx, userID, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, notFound("account not found")
	}
	if err != nil {
		return nil, nil, classify(err, "get account")
	}
	txns, err := s.store.TransactionsByAccount(ctx, userID, accountID)
	if err != nil {
		return nil, nil, classify(err, "get account transactions")
	}
	return account, txns, nil
}

// SetDefaultAccount makes accountID the caller's single default account.
// The clear-then-set pair runs in one unit of work, so concurrent calls
// leave exactly one default behind whichever commit lands last.
func (s *Service) SetDefaultAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	if userID == "" {
		return nil, &Error{Kind: KindUnauthenticated, Msg: "missing caller identity"}
	}

	var account *domain.Account
	err := s.store.WithinTx(ctx, func(tx store.Ledger) error {
		a, err := tx.AccountByID(ctx, userID, accountID)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("account not found")
		}
		if err != nil {
			return err
		}
		if err := tx.ClearDefaultAccounts(ctx, userID); err != nil {
			return err
		}
		if err := tx.MarkDefaultAccount(ctx, userID, accountID); err != nil {
			return err
		}
		a.IsDefault = true
		account = a
		return nil
	})
	if err != nil {
		return nil, classify(err, "set default account")
	}
	return account, nil
}

// CreateTransaction inserts a transaction and applies its signed amount to
// the account balance, atomically.
func (s *Service) CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*domain.Transaction, error) {
	if userID == "" {
		return nil, &Error{Kind: KindUnauthenticated, Msg: "missing caller identity"}
	}
	if err := validateTransactionInput(in); err != nil {
		return nil, err
	}

	txn := newTransaction(userID, in)
	err := s.store.WithinTx(ctx, func(tx store.Ledger) error {
		if _, err := tx.AccountByID(ctx, userID, in.AccountID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("account not found")
			}
			return err
		}
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, txn.AccountID, txn.SignedAmount())
	})
	if err != nil {
		return nil, classify(err, "create transaction")
	}
	return txn, nil
}

// GetTransaction fetches one of the caller's transactions.
func (s *Service) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	if userID == "" {
		return nil, &Error{Kind: KindUnauthenticated, Msg: "missing caller identity"}
	}
	txn, err := s.store.TransactionByID(ctx, userID, transactionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("transaction not found")
	}
	if err != nil {
		return nil, classify(err, "get transaction")
	}
	return txn, nil
}

// ListTransactions returns the caller's transactions in [from, to], newest
// first.
func (s *Service) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	if userID == "" {
		return nil, &Error{Kind: KindUnauthenticated, Msg: "missing caller identity"}
	}
	txns, err := s.store.TransactionsByDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, classify(err, "list transactions")
	}
	return txns, nil
}

// UpdateTransaction replaces a transaction's mutable fields and corrects
// the affected balances by the difference of signed amounts. When the
// account reference changes, the old account gives back the original
// contribution and the new account receives the new one, all in the same
// unit of work.
func (s *Service) UpdateTransaction(ctx context.Context, userID, transactionID string, in TransactionInput) (*domain.Transaction, error) {
	if userID == "" {
		return nil, &Error{Kind: KindUnauthenticated, Msg: "missing caller identity"}
	}
	if err := validateTransactionInput(in); err != nil {
		return nil, err
	}

	var updated *domain.Transaction
	err := s.store.WithinTx(ctx, func(tx store.Ledger) error {
		orig, err := tx.TransactionByID(ctx, userID, transactionID)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("transaction not found")
		}
		if err != nil {
			return err
		}

		if in.AccountID != orig.AccountID {
			if _, err := tx.AccountByID(ctx, userID, in.AccountID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return notFound("account not found")
				}
				return err
			}
		}

		oldDelta := orig.SignedAmount()
		newDelta := domain.SignedAmount(in.Type, in.Amount)

		next := newTransaction(userID, in)
		next.ID = orig.ID
		next.CreatedAt = orig.CreatedAt
		if err := tx.SaveTransaction(ctx, next); err != nil {
			return err
		}

		if in.AccountID == orig.AccountID {
			net := newDelta.Sub(oldDelta)
			if !net.IsZero() {
				if err := tx.AdjustBalance(ctx, orig.AccountID, net); err != nil {
					return err
				}
			}
		} else {
			if err := tx.AdjustBalance(ctx, orig.AccountID, oldDelta.Neg()); err != nil {
				return err
			}
			if err := tx.AdjustBalance(ctx, in.AccountID, newDelta); err != nil {
				return err
			}
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, classify(err, "update transaction")
	}
	return updated, nil
}

// DeleteTransactions deletes the caller's transactions among ids and
// reverses their net signed amount per affected account, as one atomic
// batch. Ids the caller does not own are dropped from the batch without
// failing it; the returned slice lists what was actually deleted. If
// nothing in the batch is owned by the caller the call reports not found.
func (s *Service) DeleteTransactions(ctx context.Context, userID string, ids []string) ([]string, error) {
	if userID == "" {
		return nil, &Error{Kind: KindUnauthenticated, Msg: "missing caller identity"}
	}
	if len(ids) == 0 {
		return nil, invalidf("no transaction ids given")
	}

	var deleted []string
	err := s.store.WithinTx(ctx, func(tx store.Ledger) error {
		owned, err := tx.TransactionsByIDs(ctx, userID, ids)
		if err != nil {
			return err
		}
		if len(owned) == 0 {
			return notFound("no matching transactions")
		}

		deltas := make(map[string]decimal.Decimal, 1)
		ownedIDs := make([]string, 0, len(owned))
		for i := range owned {
			t := &owned[i]
			deltas[t.AccountID] = deltas[t.AccountID].Add(t.SignedAmount())
			ownedIDs = append(ownedIDs, t.ID)
		}

		n, err := tx.DeleteTransactionsByIDs(ctx, userID, ownedIDs)
		if err != nil {
			return err
		}
		if n != int64(len(ownedIDs)) {
			return conflict("delete count mismatch", nil)
		}

		for accountID, delta := range deltas {
			if err := tx.AdjustBalance(ctx, accountID, delta.Neg()); err != nil {
				return err
			}
		}

		deleted = ownedIDs
		return nil
	})
	if err != nil {
		return nil, classify(err, "delete transactions")
	}
	return deleted, nil
}

// MaterializeRecurring inserts the next instance of a due recurring
// transaction, applies its amount to the account balance, and advances the
// source's next-occurrence date, all atomically. The instance is dated at
// the due date and is itself non-recurring.
func (s *Service) MaterializeRecurring(ctx context.Context, userID, transactionID string, now time.Time) (*domain.Transaction, error) {
	var instance *domain.Transaction
	err := s.store.WithinTx(ctx, func(tx store.Ledger) error {
		src, err := tx.TransactionByID(ctx, userID, transactionID)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("transaction not found")
		}
		if err != nil {
			return err
		}
		if !src.IsRecurring || src.NextRecurringDate == nil {
			return invalidf("transaction is not recurring")
		}
		due := *src.NextRecurringDate
		if due.After(now) {
			return invalidf("transaction is not due until %s", due.Format("2006-01-02"))
		}

		inst := &domain.Transaction{
			ID:          uuid.New().String(),
			UserID:      src.UserID,
			AccountID:   src.AccountID,
			Type:        src.Type,
			Amount:      src.Amount,
			Date:        due,
			Description: src.Description,
			Category:    src.Category,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.CreateTransaction(ctx, inst); err != nil {
			return err
		}
		if err := tx.AdjustBalance(ctx, inst.AccountID, inst.SignedAmount()); err != nil {
			return err
		}

		next := domain.NextOccurrence(due, src.RecurringInterval)
		src.NextRecurringDate = &next
		if err := tx.SaveTransaction(ctx, src); err != nil {
			return err
		}

		instance = inst
		return nil
	})
	if err != nil {
		return nil, classify(err, "materialize recurring transaction")
	}
	return instance, nil
}

func validateTransactionInput(in TransactionInput) error {
	if in.AccountID == "" {
		return invalidf("account id is required")
	}
	if !in.Type.Valid() {
		return invalidf("unknown transaction type %q", in.Type)
	}
	if !in.Amount.IsPositive() {
		return invalidf("amount must be positive, got %s", in.Amount)
	}
	if in.Date.IsZero() {
		return invalidf("date is required")
	}
	if !domain.ValidCategory(in.Category, in.Type) {
		return invalidf("unknown %s category %q", in.Type, in.Category)
	}
	if in.IsRecurring && !in.RecurringInterval.Valid() {
		return invalidf("recurring interval is required for recurring transactions")
	}
	return nil
}

// newTransaction builds a transaction from validated input. The recurrence
// fields are normalized so the stored record satisfies the iff invariant:
// interval and next date are set exactly when the flag is.
func newTransaction(userID string, in TransactionInput) *domain.Transaction {
	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		AccountID:   in.AccountID,
		Type:        in.Type,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		Category:    domain.NormalizeCategoryID(in.Category),
		IsRecurring: in.IsRecurring,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsRecurring {
		txn.RecurringInterval = in.RecurringInterval
		next := domain.NextOccurrence(in.Date, in.RecurringInterval)
		txn.NextRecurringDate = &next
	}
	return txn
}

// classify maps storage failures into the error taxonomy. Errors the engine
// already classified pass through; anything else becomes a retryable
// conflict, since the unit of work did not commit.
func classify(err error, op string) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return notFound("record not found")
	}
	return conflict(op+" could not commit", err)
}
