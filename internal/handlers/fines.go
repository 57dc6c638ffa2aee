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

type ReportPaymentRequest struct {
	Method        string `json:"method" validate:"required,oneof=cash online"`
	TransactionID string `json:"transaction_id"`
}

// FineView decorates a fine with its display bucket, a pure function of the
// stored status.
type FineView struct {
	models.Fine
	Bucket string `json:"bucket"`
}

func fineViews(fines []models.Fine) []FineView {
	views := make([]FineView, 0, len(fines))
	for i := range fines {
		views = append(views, FineView{Fine: fines[i], Bucket: circulation.FineBucket(fines[i].Status)})
	}
	return views
}

func ListFinesHandler(w http.ResponseWriter, r *http.Request) {
	q := store.DB.Order("date_issued DESC")
	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var fines []models.Fine
	if err := q.Find(&fines).Error; err != nil {
		logger.Log.Error("failed to fetch fines", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch fines")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fineViews(fines))
}

func MyFinesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var fines []models.Fine
	if err := store.DB.
		Where("user_id = ?", userID).
		Order("date_issued DESC").
		Find(&fines).Error; err != nil {
		logger.Log.Error("failed to fetch fines", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch fines")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fineViews(fines))
}

// ReportFinePaymentHandler lets the fined student declare they have paid,
// moving the fine to pending-verification for manual reconciliation.
func ReportFinePaymentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid fine id")
		return
	}

	var req ReportPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	fine, err := circulation.ReportFinePayment(r.Context(), store.Circulation(), id, userID, req.Method, req.TransactionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FineView{Fine: *fine, Bucket: circulation.FineBucket(fine.Status)})
}

func VerifyFineHandler(w http.ResponseWriter, r *http.Request) {
	role, ok := callerRole(r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid fine id")
		return
	}

	fine, err := circulation.VerifyFine(r.Context(), store.Circulation(), id, role, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FineView{Fine: *fine, Bucket: circulation.FineBucket(fine.Status)})
}
