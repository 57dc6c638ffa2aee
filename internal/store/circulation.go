package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"librarium/internal/circulation"
	"librarium/internal/models"
)

// Gorm implements circulation.Store on top of the shared GORM handle. The
// invariant guards live in the WHERE clauses of the conditional updates; a
// zero RowsAffected means the guarded precondition did not hold.
type Gorm struct {
	db *gorm.DB
}

// Circulation returns the lifecycle store backed by the package-level DB.
func Circulation() *Gorm {
	return &Gorm{db: DB}
}

func (g *Gorm) Atomically(ctx context.Context, fn func(circulation.Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return circulation.ErrNotFound
	}
	return err
}

func (g *Gorm) SettingsRow(ctx context.Context) (*models.Settings, error) {
	var s models.Settings
	err := g.db.WithContext(ctx).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No row yet; callers apply defaults to the zero value.
		return &models.Settings{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (g *Gorm) BookByID(ctx context.Context, id uint64) (*models.Book, error) {
	var b models.Book
	if err := g.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// TakeCopy decrements the available counter and recomputes the stored status
// in one statement. The WHERE guard loses the race for the last copy cleanly:
// exactly one concurrent caller gets the row, the rest see ErrOutOfStock.
func (g *Gorm) TakeCopy(ctx context.Context, bookID uint64) error {
	res := g.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND copies_available > 0", bookID).
		Updates(map[string]any{
			"copies_available": gorm.Expr("copies_available - 1"),
			"status":           gorm.Expr("CASE WHEN copies_available - 1 <= 0 THEN ? ELSE ? END", models.BookCheckedOut, models.BookAvailable),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return circulation.ErrOutOfStock
	}
	return nil
}

func (g *Gorm) PutBackCopy(ctx context.Context, bookID uint64) error {
	res := g.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND copies_available < copies_total", bookID).
		Updates(map[string]any{
			"copies_available": gorm.Expr("copies_available + 1"),
			"status":           models.BookAvailable,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return circulation.ErrNoCopyOut
	}
	return nil
}

// ReviseBook rewrites metadata and the copy counts in one statement. The SET
// expressions read the pre-update row, so the outstanding-loan count used to
// rederive copies_available is the one the guard checked, not a stale client
// read.
func (g *Gorm) ReviseBook(ctx context.Context, bookID uint64, upd circulation.BookUpdate) error {
	res := g.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND copies_total - copies_available <= ?", bookID, upd.TotalCopies).
		Updates(map[string]any{
			"title":            upd.Title,
			"author":           upd.Author,
			"isbn":             upd.ISBN,
			"category":         upd.Category,
			"shelf":            upd.Shelf,
			"copies_total":     upd.TotalCopies,
			"copies_available": gorm.Expr("? - (copies_total - copies_available)", upd.TotalCopies),
			"status":           gorm.Expr("CASE WHEN ? - (copies_total - copies_available) <= 0 THEN ? ELSE ? END", upd.TotalCopies, models.BookCheckedOut, models.BookAvailable),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := g.BookByID(ctx, bookID); err != nil {
			return err
		}
		return circulation.ErrCopiesBelowOut
	}
	return nil
}

func (g *Gorm) UserByEnrollment(ctx context.Context, enrollment string) (*models.User, error) {
	var u models.User
	if err := g.db.WithContext(ctx).Where("enrollment = ?", enrollment).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (g *Gorm) AdjustBooksIssued(ctx context.Context, userID uint64, delta int) error {
	res := g.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND books_issued + ? >= 0", userID, delta).
		Update("books_issued", gorm.Expr("books_issued + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("adjust books_issued by %d for user %d: %w", delta, userID, circulation.ErrNotFound)
	}
	return nil
}

func (g *Gorm) CreateLoan(ctx context.Context, loan *models.LoanRecord) error {
	return g.db.WithContext(ctx).Create(loan).Error
}

func (g *Gorm) LoanByID(ctx context.Context, id uint64) (*models.LoanRecord, error) {
	var l models.LoanRecord
	if err := g.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (g *Gorm) CloseLoan(ctx context.Context, loanID uint64, returnedAt time.Time) error {
	res := g.db.WithContext(ctx).Model(&models.LoanRecord{}).
		Where("id = ? AND return_date IS NULL", loanID).
		Update("return_date", returnedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return circulation.ErrLoanClosed
	}
	return nil
}

func (g *Gorm) FineByID(ctx context.Context, id uint64) (*models.Fine, error) {
	var f models.Fine
	if err := g.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (g *Gorm) CreateFine(ctx context.Context, fine *models.Fine) error {
	return g.db.WithContext(ctx).Create(fine).Error
}

func (g *Gorm) MarkFinePending(ctx context.Context, fineID uint64, method, transactionID string) error {
	res := g.db.WithContext(ctx).Model(&models.Fine{}).
		Where("id = ? AND status = ?", fineID, models.FineUnpaid).
		Updates(map[string]any{
			"status":         models.FinePending,
			"payment_method": method,
			"transaction_id": transactionID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return circulation.ErrFineNotEligible
	}
	return nil
}

func (g *Gorm) MarkFinePaid(ctx context.Context, fineID uint64, verifiedBy string, paidAt time.Time, receiptNo string) error {
	res := g.db.WithContext(ctx).Model(&models.Fine{}).
		Where("id = ? AND status = ?", fineID, models.FinePending).
		Updates(map[string]any{
			"status":       models.FinePaid,
			"payment_date": paidAt,
			"verified_by":  verifiedBy,
			"receipt_no":   receiptNo,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return circulation.ErrFineNotEligible
	}
	return nil
}

func (g *Gorm) CreateNotification(ctx context.Context, n *models.Notification) error {
	return g.db.WithContext(ctx).Create(n).Error
}

func (g *Gorm) ActiveReservation(ctx context.Context, userID, bookID uint64) (*models.Reservation, error) {
	var r models.Reservation
	err := g.db.WithContext(ctx).Where("user_id = ? AND book_id = ?", userID, bookID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReservation relies on the unique (user_id, book_id) index to reject
// the loser of a concurrent double-reserve.
func (g *Gorm) CreateReservation(ctx context.Context, r *models.Reservation) error {
	err := g.db.WithContext(ctx).Create(r).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return circulation.ErrAlreadyReserved
	}
	return err
}
