package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"librarium/internal/circulation"
	"librarium/internal/httputil"
	"librarium/internal/logger"
	"librarium/internal/models"
	"librarium/internal/store"
)

type SettingsRequest struct {
	FineRate       decimal.Decimal `json:"fine_rate"`
	LoanPeriodDays int             `json:"loan_period_days" validate:"min=0"`
	MaxBooks       int             `json:"max_books" validate:"min=0"`
	LibraryName    string          `json:"library_name"`
	CurrencySymbol string          `json:"currency_symbol"`
	UPIID          string          `json:"upi_id"`
	QRCodeURL      string          `json:"qr_code_url"`
	LogoURL        string          `json:"logo_url"`
}

// GetSettingsHandler returns the settings singleton with defaults applied.
func GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var s models.Settings
	err := store.DB.First(&s).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Error("failed to fetch settings", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch settings")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, circulation.Effective(&s))
}

func UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FineRate.IsNegative() {
		httputil.WriteError(w, http.StatusBadRequest, "fine rate cannot be negative")
		return
	}

	var s models.Settings
	err := store.DB.First(&s).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Error("failed to fetch settings", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	s.FineRate = req.FineRate
	s.LoanPeriodDays = req.LoanPeriodDays
	s.MaxBooks = req.MaxBooks
	s.LibraryName = req.LibraryName
	s.CurrencySymbol = req.CurrencySymbol
	s.UPIID = req.UPIID
	s.QRCodeURL = req.QRCodeURL
	s.LogoURL = req.LogoURL

	if err := store.DB.Save(&s).Error; err != nil {
		logger.Log.Error("failed to save settings", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, circulation.Effective(&s))
}
