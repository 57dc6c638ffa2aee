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

type ReserveRequest struct {
	BookID uint64 `json:"book_id" validate:"required"`
}

func CreateReservationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	reservation, err := circulation.ReserveBook(r.Context(), store.Circulation(), userID, req.BookID, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, reservation)
}

func MyReservationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var reservations []models.Reservation
	if err := store.DB.
		Where("user_id = ?", userID).
		Order("reserved_at DESC").
		Find(&reservations).Error; err != nil {
		logger.Log.Error("failed to fetch reservations", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch reservations")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reservations)
}

func CancelReservationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	res := store.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Reservation{})
	if res.Error != nil {
		logger.Log.Error("failed to cancel reservation", zap.Error(res.Error))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to cancel reservation")
		return
	}
	if res.RowsAffected == 0 {
		httputil.WriteError(w, http.StatusNotFound, "reservation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
