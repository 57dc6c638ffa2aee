package circulation

import (
	"context"
	"fmt"
	"time"

	"librarium/internal/models"
)

// memStore is an in-memory Store used by the lifecycle tests. Atomically
// snapshots the whole state and restores it when fn fails, giving the same
// all-or-nothing behavior the SQL transaction provides in production.
type memStore struct {
	books         map[uint64]models.Book
	users         map[uint64]models.User
	loans         map[uint64]models.LoanRecord
	fines         map[uint64]models.Fine
	notifications []models.Notification
	reservations  map[uint64]models.Reservation
	settings      models.Settings
	lastID        uint64

	failCreateLoan error
	failNotify     error
}

func newMemStore() *memStore {
	return &memStore{
		books:        map[uint64]models.Book{},
		users:        map[uint64]models.User{},
		loans:        map[uint64]models.LoanRecord{},
		fines:        map[uint64]models.Fine{},
		reservations: map[uint64]models.Reservation{},
	}
}

func (m *memStore) nextID() uint64 {
	m.lastID++
	return m.lastID
}

func (m *memStore) addBook(b models.Book) uint64 {
	id := m.nextID()
	b.ID = uint(id)
	m.books[id] = b
	return id
}

func (m *memStore) addUser(u models.User) uint64 {
	id := m.nextID()
	u.ID = uint(id)
	m.users[id] = u
	return id
}

func (m *memStore) addFine(f models.Fine) uint64 {
	id := m.nextID()
	f.ID = uint(id)
	m.fines[id] = f
	return id
}

func (m *memStore) addLoan(l models.LoanRecord) uint64 {
	id := m.nextID()
	l.ID = uint(id)
	m.loans[id] = l
	return id
}

func (m *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range m.books {
		c.books[k] = v
	}
	for k, v := range m.users {
		c.users[k] = v
	}
	for k, v := range m.loans {
		c.loans[k] = v
	}
	for k, v := range m.fines {
		c.fines[k] = v
	}
	for k, v := range m.reservations {
		c.reservations[k] = v
	}
	c.notifications = append([]models.Notification(nil), m.notifications...)
	c.settings = m.settings
	c.lastID = m.lastID
	c.failCreateLoan = m.failCreateLoan
	c.failNotify = m.failNotify
	return c
}

func (m *memStore) Atomically(ctx context.Context, fn func(Store) error) error {
	snap := m.clone()
	if err := fn(m); err != nil {
		*m = *snap
		return err
	}
	return nil
}

func (m *memStore) SettingsRow(ctx context.Context) (*models.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *memStore) BookByID(ctx context.Context, id uint64) (*models.Book, error) {
	b, ok := m.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *memStore) TakeCopy(ctx context.Context, bookID uint64) error {
	b, ok := m.books[bookID]
	if !ok || b.CopiesAvailable <= 0 {
		return ErrOutOfStock
	}
	b.CopiesAvailable--
	if b.CopiesAvailable == 0 {
		b.Status = models.BookCheckedOut
	} else {
		b.Status = models.BookAvailable
	}
	m.books[bookID] = b
	return nil
}

func (m *memStore) PutBackCopy(ctx context.Context, bookID uint64) error {
	b, ok := m.books[bookID]
	if !ok || b.CopiesAvailable >= b.CopiesTotal {
		return ErrNoCopyOut
	}
	b.CopiesAvailable++
	b.Status = models.BookAvailable
	m.books[bookID] = b
	return nil
}

func (m *memStore) ReviseBook(ctx context.Context, bookID uint64, upd BookUpdate) error {
	b, ok := m.books[bookID]
	if !ok {
		return ErrNotFound
	}
	outstanding := b.CopiesTotal - b.CopiesAvailable
	if outstanding > upd.TotalCopies {
		return ErrCopiesBelowOut
	}
	b.Title = upd.Title
	b.Author = upd.Author
	b.ISBN = upd.ISBN
	b.Category = upd.Category
	b.Shelf = upd.Shelf
	b.CopiesTotal = upd.TotalCopies
	b.CopiesAvailable = upd.TotalCopies - outstanding
	if b.CopiesAvailable == 0 {
		b.Status = models.BookCheckedOut
	} else {
		b.Status = models.BookAvailable
	}
	m.books[bookID] = b
	return nil
}

func (m *memStore) UserByEnrollment(ctx context.Context, enrollment string) (*models.User, error) {
	for _, u := range m.users {
		if u.Enrollment == enrollment {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) AdjustBooksIssued(ctx context.Context, userID uint64, delta int) error {
	u, ok := m.users[userID]
	if !ok || u.BooksIssued+delta < 0 {
		return fmt.Errorf("adjust books_issued by %d for user %d: %w", delta, userID, ErrNotFound)
	}
	u.BooksIssued += delta
	m.users[userID] = u
	return nil
}

func (m *memStore) CreateLoan(ctx context.Context, loan *models.LoanRecord) error {
	if m.failCreateLoan != nil {
		return m.failCreateLoan
	}
	loan.ID = uint(m.nextID())
	m.loans[uint64(loan.ID)] = *loan
	return nil
}

func (m *memStore) LoanByID(ctx context.Context, id uint64) (*models.LoanRecord, error) {
	l, ok := m.loans[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (m *memStore) CloseLoan(ctx context.Context, loanID uint64, returnedAt time.Time) error {
	l, ok := m.loans[loanID]
	if !ok || l.ReturnDate != nil {
		return ErrLoanClosed
	}
	l.ReturnDate = &returnedAt
	m.loans[loanID] = l
	return nil
}

func (m *memStore) FineByID(ctx context.Context, id uint64) (*models.Fine, error) {
	f, ok := m.fines[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (m *memStore) CreateFine(ctx context.Context, fine *models.Fine) error {
	fine.ID = uint(m.nextID())
	m.fines[uint64(fine.ID)] = *fine
	return nil
}

func (m *memStore) MarkFinePending(ctx context.Context, fineID uint64, method, transactionID string) error {
	f, ok := m.fines[fineID]
	if !ok || f.Status != models.FineUnpaid {
		return ErrFineNotEligible
	}
	f.Status = models.FinePending
	f.PaymentMethod = method
	f.TransactionID = transactionID
	m.fines[fineID] = f
	return nil
}

func (m *memStore) MarkFinePaid(ctx context.Context, fineID uint64, verifiedBy string, paidAt time.Time, receiptNo string) error {
	f, ok := m.fines[fineID]
	if !ok || f.Status != models.FinePending {
		return ErrFineNotEligible
	}
	f.Status = models.FinePaid
	f.PaymentDate = &paidAt
	f.VerifiedBy = verifiedBy
	f.ReceiptNo = receiptNo
	m.fines[fineID] = f
	return nil
}

func (m *memStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if m.failNotify != nil {
		return m.failNotify
	}
	n.ID = uint(m.nextID())
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memStore) ActiveReservation(ctx context.Context, userID, bookID uint64) (*models.Reservation, error) {
	for _, r := range m.reservations {
		if r.UserID == userID && r.BookID == bookID {
			res := r
			return &res, nil
		}
	}
	return nil, nil
}

// CreateReservation mirrors the unique (user_id, book_id) index.
func (m *memStore) CreateReservation(ctx context.Context, r *models.Reservation) error {
	for _, existing := range m.reservations {
		if existing.UserID == r.UserID && existing.BookID == r.BookID {
			return ErrAlreadyReserved
		}
	}
	r.ID = uint(m.nextID())
	m.reservations[uint64(r.ID)] = *r
	return nil
}
