package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"librarium/internal/circulation"
	"librarium/internal/httputil"
	"librarium/internal/logger"
	"librarium/internal/middleware"
)

var validate = validator.New()

func callerID(r *http.Request) (uint64, bool) {
	id, ok := r.Context().Value(middleware.UserIDContextKey).(uint64)
	return id, ok
}

func callerRole(r *http.Request) (string, bool) {
	role, ok := r.Context().Value(middleware.RoleContextKey).(string)
	return role, ok
}

func pathID(r *http.Request, name string) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, name), 10, 64)
}

// writeDomainError maps the circulation error taxonomy onto HTTP statuses:
// lookup misses are 404, state conflicts 409, bad input 400, ownership 403.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, circulation.ErrNotFound),
		errors.Is(err, circulation.ErrStudentNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, circulation.ErrOutOfStock),
		errors.Is(err, circulation.ErrNoCopyOut),
		errors.Is(err, circulation.ErrCopiesBelowOut),
		errors.Is(err, circulation.ErrNotStudent),
		errors.Is(err, circulation.ErrLoanLimit),
		errors.Is(err, circulation.ErrLoanClosed),
		errors.Is(err, circulation.ErrFineNotEligible),
		errors.Is(err, circulation.ErrBookInStock),
		errors.Is(err, circulation.ErrAlreadyReserved):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, circulation.ErrTransactionID):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, circulation.ErrNotFineOwner):
		httputil.WriteError(w, http.StatusForbidden, err.Error())
	default:
		logger.Log.Error("operation failed", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
