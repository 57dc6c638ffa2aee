package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"librarium/internal/circulation"
	"librarium/internal/httputil"
	"librarium/internal/logger"
	"librarium/internal/models"
	"librarium/internal/store"
)

type IssueLoanRequest struct {
	Enrollment string `json:"enrollment" validate:"required"`
	BookID     uint64 `json:"book_id" validate:"required"`
}

// LoanView decorates a loan record with its derived status, which is never
// stored and always recomputed at read time.
type LoanView struct {
	models.LoanRecord
	Status string `json:"status"`
}

func loanViews(loans []models.LoanRecord, now time.Time) []LoanView {
	views := make([]LoanView, 0, len(loans))
	for i := range loans {
		views = append(views, LoanView{
			LoanRecord: loans[i],
			Status:     circulation.LoanStatus(&loans[i], now),
		})
	}
	return views
}

func IssueLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req IssueLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	loan, err := circulation.IssueBook(r.Context(), store.Circulation(), req.Enrollment, req.BookID, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, LoanView{LoanRecord: *loan, Status: circulation.LoanIssued})
}

func ReturnLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	result, err := circulation.ReturnBook(r.Context(), store.Circulation(), id, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := struct {
		Loan LoanView     `json:"loan"`
		Fine *models.Fine `json:"fine,omitempty"`
	}{
		Loan: LoanView{LoanRecord: *result.Loan, Status: circulation.LoanReturned},
		Fine: result.Fine,
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func ListLoansHandler(w http.ResponseWriter, r *http.Request) {
	q := store.DB.Order("checkout_date DESC")
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var loans []models.LoanRecord
	if err := q.Find(&loans).Error; err != nil {
		logger.Log.Error("failed to fetch loans", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch loans")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loanViews(loans, time.Now()))
}

func MyLoansHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var loans []models.LoanRecord
	if err := store.DB.
		Where("user_id = ?", userID).
		Order("checkout_date DESC").
		Find(&loans).Error; err != nil {
		logger.Log.Error("failed to fetch loans", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch loans")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loanViews(loans, time.Now()))
}
