package store

import (
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"librarium/configs"
	"librarium/internal/logger"
	"librarium/internal/models"
)

var DB *gorm.DB

func NewDB() {
	dsn := configs.AppConfig.DB.DSN
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: false,
	}), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	DB = db
	logger.Log.Info("connected to the database")
}

func DBMigrate() {
	DB.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.LoanRecord{},
		&models.Fine{},
		&models.Notification{},
		&models.Reservation{},
		&models.Settings{},
	)

	// Uniqueness is scoped to live rows so a soft-deleted user or book does
	// not block reuse of its email, enrollment id or ISBN. Enrollment is
	// empty for staff accounts, which a full unique index would reject.
	partials := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_users_email ON users (email) WHERE deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_users_enrollment ON users (enrollment) WHERE deleted_at IS NULL AND enrollment <> ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_books_isbn ON books (isbn) WHERE deleted_at IS NULL`,
	}
	for _, stmt := range partials {
		if err := DB.Exec(stmt).Error; err != nil {
			logger.Log.Fatal("failed to create unique index", zap.Error(err))
		}
	}

	logger.Log.Info("migrations loaded")
}
