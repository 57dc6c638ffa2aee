package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleStudent   = "student"
)

const (
	BookAvailable  = "available"
	BookCheckedOut = "checked-out"
)

const (
	FineUnpaid  = "unpaid"
	FinePending = "pending-verification"
	FinePaid    = "paid"
)

const (
	PaymentCash   = "cash"
	PaymentOnline = "online"
)

type User struct {
	gorm.Model
	Name        string `gorm:"size:100;not null"`
	Email       string `gorm:"index;size:255;not null"` // unique among live rows, see store.DBMigrate
	Password    string `gorm:"size:255" json:"-"`
	Role        string `gorm:"size:16;not null"` // admin | librarian | student
	Enrollment  string `gorm:"index;size:32"`
	Department  string `gorm:"size:64"`
	Year        int
	Semester    int
	BooksIssued int `gorm:"not null;default:0"`
}

type Book struct {
	gorm.Model
	Title           string `gorm:"size:255;not null;index"`
	Author          string `gorm:"size:255;index"`
	ISBN            string `gorm:"size:32;index"` // unique among live rows, see store.DBMigrate
	Category        string `gorm:"size:64"`
	Shelf           string `gorm:"size:32"`
	CopiesAvailable int    `gorm:"not null"`
	CopiesTotal     int    `gorm:"not null"`
	Status          string `gorm:"size:16;not null"` // available | checked-out
}

type LoanRecord struct {
	gorm.Model
	UserID       uint64 `gorm:"index;not null"`
	BookID       uint64 `gorm:"index;not null"`
	CheckoutDate time.Time
	DueDate      time.Time
	ReturnDate   *time.Time
}

type Fine struct {
	gorm.Model
	UserID        uint64          `gorm:"index;not null"`
	BookID        uint64          `gorm:"index;not null"`
	LoanID        uint64          `gorm:"index"`
	Amount        decimal.Decimal `gorm:"not null"`
	Reason        string          `gorm:"size:255"`
	DateIssued    time.Time
	Status        string `gorm:"size:32;not null;index"` // unpaid | pending-verification | paid
	PaymentMethod string `gorm:"size:16"`                // cash | online
	TransactionID string `gorm:"size:64"`
	PaymentDate   *time.Time
	VerifiedBy    string `gorm:"size:16"` // admin | librarian
	ReceiptNo     string `gorm:"size:64"`
}

type Notification struct {
	gorm.Model
	UserID  uint64 `gorm:"index;not null"`
	Message string `gorm:"size:512;not null"`
}

// Reservation is hard-deleted on cancel so the unique (user, book) pair can
// be reserved again later.
type Reservation struct {
	ID         uint `gorm:"primarykey"`
	CreatedAt  time.Time
	UserID     uint64 `gorm:"not null;uniqueIndex:idx_reservations_user_book"`
	BookID     uint64 `gorm:"not null;uniqueIndex:idx_reservations_user_book"`
	ReservedAt time.Time
}

// Settings is a singleton row; a zero field means "use the built-in default".
type Settings struct {
	gorm.Model
	FineRate       decimal.Decimal
	LoanPeriodDays int
	MaxBooks       int
	LibraryName    string `gorm:"size:128"`
	CurrencySymbol string `gorm:"size:8"`
	UPIID          string `gorm:"size:128"`
	QRCodeURL      string `gorm:"size:512"`
	LogoURL        string `gorm:"size:512"`
}
