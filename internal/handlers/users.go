package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"librarium/internal/circulation"
	"librarium/internal/httputil"
	"librarium/internal/logger"
	"librarium/internal/models"
	"librarium/internal/store"
)

type CreateUserRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required,oneof=admin librarian student"`
	Enrollment string `json:"enrollment"`
	Department string `json:"department"`
	Year       int    `json:"year"`
	Semester   int    `json:"semester"`
}

func CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role == models.RoleStudent && req.Enrollment == "" {
		httputil.WriteError(w, http.StatusBadRequest, "enrollment id is required for students")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user := models.User{
		Name:       req.Name,
		Email:      req.Email,
		Password:   string(hash),
		Role:       req.Role,
		Enrollment: req.Enrollment,
		Department: req.Department,
		Year:       req.Year,
		Semester:   req.Semester,
	}
	if err := store.DB.Create(&user).Error; err != nil {
		logger.Log.Error("failed to create user", zap.Error(err))
		httputil.WriteError(w, http.StatusConflict, "email or enrollment already in use")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	q := store.DB.Order("name")
	if role := r.URL.Query().Get("role"); role != "" {
		q = q.Where("role = ?", role)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		logger.Log.Error("failed to fetch users", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// VerifyStudentHandler backs the librarian's pre-issuance "verify student"
// step: GET /users/verify?enrollment=EN123.
func VerifyStudentHandler(w http.ResponseWriter, r *http.Request) {
	enrollment := r.URL.Query().Get("enrollment")
	if enrollment == "" {
		httputil.WriteError(w, http.StatusBadRequest, "enrollment query parameter is required")
		return
	}

	student, err := circulation.VerifyStudent(r.Context(), store.Circulation(), enrollment)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, student)
}

func DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var openLoans int64
	if err := store.DB.Model(&models.LoanRecord{}).
		Where("user_id = ? AND return_date IS NULL", id).
		Count(&openLoans).Error; err != nil {
		logger.Log.Error("failed to check open loans", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if openLoans > 0 {
		httputil.WriteError(w, http.StatusConflict, "user has books out on loan")
		return
	}

	var openFines int64
	if err := store.DB.Model(&models.Fine{}).
		Where("user_id = ? AND status <> ?", id, models.FinePaid).
		Count(&openFines).Error; err != nil {
		logger.Log.Error("failed to check fines", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if openFines > 0 {
		httputil.WriteError(w, http.StatusConflict, "user has unsettled fines")
		return
	}

	res := store.DB.Delete(&models.User{}, id)
	if res.Error != nil {
		logger.Log.Error("failed to delete user", zap.Error(res.Error))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if res.RowsAffected == 0 {
		httputil.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
