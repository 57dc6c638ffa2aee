package seed

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"librarium/internal/logger"
	"librarium/internal/models"
	"librarium/internal/store"
)

const (
	seedPassword = "password123"
	adminEmail   = "admin@library.local"
)

var seedStudents = []struct {
	Name       string
	Email      string
	Enrollment string
	Department string
}{
	{"Student One", "student1@test.com", "EN2024001", "Computer Science"},
	{"Student Two", "student2@test.com", "EN2024002", "Electronics"},
	{"Student Three", "student3@test.com", "EN2024003", "Mechanical"},
}

var seedBooks = []models.Book{
	{Title: "The Go Programming Language", Author: "Alan Donovan", ISBN: "978-0134190440", Category: "Programming", Shelf: "A1", CopiesAvailable: 3, CopiesTotal: 3, Status: models.BookAvailable},
	{Title: "Clean Code", Author: "Robert C. Martin", ISBN: "978-0132350884", Category: "Programming", Shelf: "A2", CopiesAvailable: 2, CopiesTotal: 2, Status: models.BookAvailable},
	{Title: "Introduction to Algorithms", Author: "Thomas H. Cormen", ISBN: "978-0262033848", Category: "Computer Science", Shelf: "B1", CopiesAvailable: 1, CopiesTotal: 1, Status: models.BookAvailable},
}

func Run() {
	db := store.DB
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		logger.Log.Fatal("seed check failed", zap.Error(err))
	}
	if count > 0 {
		logger.Log.Info("seed already applied, skipping")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Fatal("failed to hash seed password", zap.Error(err))
	}
	hashed := string(hash)

	err = db.Transaction(func(tx *gorm.DB) error {
		settings := models.Settings{
			FineRate:       decimal.RequireFromString("2.00"),
			LoanPeriodDays: 15,
			MaxBooks:       3,
			LibraryName:    "Central Library",
			CurrencySymbol: "₹",
		}
		if err := tx.Create(&settings).Error; err != nil {
			return err
		}

		admin := models.User{Name: "Admin", Email: adminEmail, Password: hashed, Role: models.RoleAdmin}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		librarian := models.User{Name: "Librarian", Email: "librarian@library.local", Password: hashed, Role: models.RoleLibrarian}
		if err := tx.Create(&librarian).Error; err != nil {
			return err
		}

		for _, s := range seedStudents {
			student := models.User{
				Name:       s.Name,
				Email:      s.Email,
				Password:   hashed,
				Role:       models.RoleStudent,
				Enrollment: s.Enrollment,
				Department: s.Department,
				Year:       2,
				Semester:   4,
			}
			if err := tx.Create(&student).Error; err != nil {
				return err
			}
		}

		for i := range seedBooks {
			if err := tx.Create(&seedBooks[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Fatal("seed failed", zap.Error(err))
	}
	logger.Log.Info("seeded admin, librarian, 3 students and starter catalog", zap.String("password", seedPassword))
}
