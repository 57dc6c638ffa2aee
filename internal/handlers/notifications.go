package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"librarium/internal/httputil"
	"librarium/internal/logger"
	"librarium/internal/models"
	"librarium/internal/store"
)

func MyNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var notifications []models.Notification
	if err := store.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		logger.Log.Error("failed to fetch notifications", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch notifications")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notifications)
}
