package circulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"librarium/internal/models"
)

// Store is the persistence surface the lifecycle operations run against.
// Mutating methods carry their own guards (conditional updates): TakeCopy
// fails with ErrOutOfStock when no copy is available, CloseLoan with
// ErrLoanClosed when the loan is already returned, MarkFinePending /
// MarkFinePaid with ErrFineNotEligible when the stored status does not match
// the expected transition source, ReviseBook with ErrCopiesBelowOut when the
// new total would drop below the copies out on loan. Atomically applies fn
// all-or-nothing.
type Store interface {
	Atomically(ctx context.Context, fn func(Store) error) error

	SettingsRow(ctx context.Context) (*models.Settings, error)

	BookByID(ctx context.Context, id uint64) (*models.Book, error)
	TakeCopy(ctx context.Context, bookID uint64) error
	PutBackCopy(ctx context.Context, bookID uint64) error
	ReviseBook(ctx context.Context, bookID uint64, upd BookUpdate) error

	UserByEnrollment(ctx context.Context, enrollment string) (*models.User, error)
	AdjustBooksIssued(ctx context.Context, userID uint64, delta int) error

	CreateLoan(ctx context.Context, loan *models.LoanRecord) error
	LoanByID(ctx context.Context, id uint64) (*models.LoanRecord, error)
	CloseLoan(ctx context.Context, loanID uint64, returnedAt time.Time) error

	FineByID(ctx context.Context, id uint64) (*models.Fine, error)
	CreateFine(ctx context.Context, fine *models.Fine) error
	MarkFinePending(ctx context.Context, fineID uint64, method, transactionID string) error
	MarkFinePaid(ctx context.Context, fineID uint64, verifiedBy string, paidAt time.Time, receiptNo string) error

	CreateNotification(ctx context.Context, n *models.Notification) error

	ActiveReservation(ctx context.Context, userID, bookID uint64) (*models.Reservation, error)
	CreateReservation(ctx context.Context, r *models.Reservation) error
}

// VerifyStudent resolves a student by enrollment id, the librarian's
// pre-issuance check.
func VerifyStudent(ctx context.Context, s Store, enrollment string) (*models.User, error) {
	user, err := s.UserByEnrollment(ctx, enrollment)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if user.Role != models.RoleStudent {
		return nil, ErrNotStudent
	}
	return user, nil
}

// BookUpdate carries the editable book fields. TotalCopies replaces the total;
// the available count is rederived from the copies currently out on loan.
type BookUpdate struct {
	Title       string
	Author      string
	ISBN        string
	Category    string
	Shelf       string
	TotalCopies int
}

// UpdateBook applies a metadata and copy-count revision. The store applies it
// as one guarded write against the live loan count, so a concurrent issuance
// cannot be overwritten by a stale read.
func UpdateBook(ctx context.Context, s Store, bookID uint64, upd BookUpdate) (*models.Book, error) {
	if upd.TotalCopies < 1 {
		return nil, fmt.Errorf("total copies must be at least 1")
	}
	if err := s.ReviseBook(ctx, bookID, upd); err != nil {
		return nil, err
	}
	return s.BookByID(ctx, bookID)
}

// IssueBook checks a copy of the book out to the student identified by
// enrollment id. Decrementing the copy count, incrementing the student's
// issued counter, and appending the loan record happen in one transaction;
// a failure anywhere leaves no partial state.
func IssueBook(ctx context.Context, s Store, enrollment string, bookID uint64, now time.Time) (*models.LoanRecord, error) {
	student, err := VerifyStudent(ctx, s, enrollment)
	if err != nil {
		return nil, err
	}

	settings, err := s.SettingsRow(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	eff := Effective(settings)

	if student.BooksIssued >= eff.MaxBooks {
		return nil, ErrLoanLimit
	}

	book, err := s.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	loan := &models.LoanRecord{
		UserID:       uint64(student.ID),
		BookID:       bookID,
		CheckoutDate: now,
		DueDate:      now.AddDate(0, 0, eff.LoanPeriodDays),
	}

	err = s.Atomically(ctx, func(tx Store) error {
		if err := tx.TakeCopy(ctx, bookID); err != nil {
			return err
		}
		if err := tx.AdjustBooksIssued(ctx, uint64(student.ID), 1); err != nil {
			return err
		}
		if err := tx.CreateLoan(ctx, loan); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, &models.Notification{
			UserID:  uint64(student.ID),
			Message: fmt.Sprintf("%q has been issued to you, due back by %s.", book.Title, loan.DueDate.Format("02 Jan 2006")),
		})
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ReturnResult reports what a return did: the closed loan and, when the book
// came back late, the fine assessed against the borrower.
type ReturnResult struct {
	Loan *models.LoanRecord
	Fine *models.Fine
}

// ReturnBook closes an open loan, reversing the issuance mutations. A late
// return assesses an overdue fine at the configured per-day rate and notifies
// the student.
func ReturnBook(ctx context.Context, s Store, loanID uint64, now time.Time) (*ReturnResult, error) {
	loan, err := s.LoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.ReturnDate != nil {
		return nil, ErrLoanClosed
	}

	book, err := s.BookByID(ctx, loan.BookID)
	if err != nil {
		return nil, err
	}

	settings, err := s.SettingsRow(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	eff := Effective(settings)

	var fine *models.Fine
	err = s.Atomically(ctx, func(tx Store) error {
		if err := tx.CloseLoan(ctx, loanID, now); err != nil {
			return err
		}
		if err := tx.PutBackCopy(ctx, loan.BookID); err != nil {
			return err
		}
		if err := tx.AdjustBooksIssued(ctx, loan.UserID, -1); err != nil {
			return err
		}
		if days := DaysLate(loan.DueDate, now); days > 0 {
			fine = &models.Fine{
				UserID:     loan.UserID,
				BookID:     loan.BookID,
				LoanID:     loanID,
				Amount:     OverdueAmount(loan.DueDate, now, eff.FineRate),
				Reason:     fmt.Sprintf("Returned %q %d day(s) late", book.Title, days),
				DateIssued: now,
				Status:     models.FineUnpaid,
			}
			if err := tx.CreateFine(ctx, fine); err != nil {
				return err
			}
			return tx.CreateNotification(ctx, &models.Notification{
				UserID:  loan.UserID,
				Message: fmt.Sprintf("You have been fined %s%s for returning %q late.", eff.CurrencySymbol, fine.Amount.StringFixed(2), book.Title),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	loan.ReturnDate = &now
	return &ReturnResult{Loan: loan, Fine: fine}, nil
}

// ReportFinePayment is the student-initiated unpaid → pending-verification
// transition. Online payments must carry the transaction id the student got
// from their payment app; cash reports carry none.
func ReportFinePayment(ctx context.Context, s Store, fineID, userID uint64, method, transactionID string) (*models.Fine, error) {
	if method != models.PaymentCash && method != models.PaymentOnline {
		return nil, fmt.Errorf("unknown payment method %q", method)
	}
	if method == models.PaymentOnline && transactionID == "" {
		return nil, ErrTransactionID
	}

	fine, err := s.FineByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	if fine.UserID != userID {
		return nil, ErrNotFineOwner
	}

	if err := s.MarkFinePending(ctx, fineID, method, transactionID); err != nil {
		return nil, err
	}

	fine.Status = models.FinePending
	fine.PaymentMethod = method
	fine.TransactionID = transactionID
	return fine, nil
}

// VerifyFine is the pending-verification → paid transition, performed by an
// admin or librarian who has reconciled the payment by hand. The stored-status
// guard in MarkFinePaid makes the transition monotonic: a fine already paid or
// still unpaid is rejected and its verifiedBy/paymentDate are never rewritten.
func VerifyFine(ctx context.Context, s Store, fineID uint64, verifierRole string, now time.Time) (*models.Fine, error) {
	if verifierRole != models.RoleAdmin && verifierRole != models.RoleLibrarian {
		return nil, fmt.Errorf("role %q cannot verify fines", verifierRole)
	}

	fine, err := s.FineByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	book, err := s.BookByID(ctx, fine.BookID)
	if err != nil {
		return nil, err
	}
	settings, err := s.SettingsRow(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	eff := Effective(settings)

	receipt := uuid.NewString()
	err = s.Atomically(ctx, func(tx Store) error {
		if err := tx.MarkFinePaid(ctx, fineID, verifierRole, now, receipt); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, &models.Notification{
			UserID:  fine.UserID,
			Message: fmt.Sprintf("Your fine of %s%s for %q has been verified.", eff.CurrencySymbol, fine.Amount.StringFixed(2), book.Title),
		})
	})
	if err != nil {
		return nil, err
	}

	fine.Status = models.FinePaid
	fine.PaymentDate = &now
	fine.VerifiedBy = verifierRole
	fine.ReceiptNo = receipt
	return fine, nil
}

// ReserveBook places a reservation for a student on a book with no available
// copies. One active reservation per user and book.
func ReserveBook(ctx context.Context, s Store, userID, bookID uint64, now time.Time) (*models.Reservation, error) {
	book, err := s.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.CopiesAvailable > 0 {
		return nil, ErrBookInStock
	}

	existing, err := s.ActiveReservation(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyReserved
	}

	r := &models.Reservation{UserID: userID, BookID: bookID, ReservedAt: now}
	if err := s.CreateReservation(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
