package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"librarium/internal/circulation"
	"librarium/internal/httputil"
	"librarium/internal/logger"
	"librarium/internal/models"
	"librarium/internal/store"
)

type BookRequest struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"isbn" validate:"required"`
	Category string `json:"category"`
	Shelf    string `json:"shelf"`
	Copies   int    `json:"copies" validate:"required,min=1"`
}

func ListBooksHandler(w http.ResponseWriter, r *http.Request) {
	q := store.DB.Order("title")
	if search := r.URL.Query().Get("q"); search != "" {
		like := "%" + search + "%"
		q = q.Where("title ILIKE ? OR author ILIKE ? OR isbn ILIKE ?", like, like, like)
	}

	var books []models.Book
	if err := q.Find(&books).Error; err != nil {
		logger.Log.Error("failed to fetch books", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch books")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, books)
}

func GetBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	var book models.Book
	if err := store.DB.First(&book, id).Error; err != nil {
		httputil.WriteError(w, http.StatusNotFound, "book not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, book)
}

func CreateBookHandler(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	book := models.Book{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Category:        req.Category,
		Shelf:           req.Shelf,
		CopiesAvailable: req.Copies,
		CopiesTotal:     req.Copies,
		Status:          models.BookAvailable,
	}
	if err := store.DB.Create(&book).Error; err != nil {
		logger.Log.Error("failed to create book", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create book")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, book)
}

func UpdateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := circulation.UpdateBook(r.Context(), store.Circulation(), id, circulation.BookUpdate{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Category:    req.Category,
		Shelf:       req.Shelf,
		TotalCopies: req.Copies,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, book)
}

func DeleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	var openLoans int64
	if err := store.DB.Model(&models.LoanRecord{}).
		Where("book_id = ? AND return_date IS NULL", id).
		Count(&openLoans).Error; err != nil {
		logger.Log.Error("failed to check open loans", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	if openLoans > 0 {
		httputil.WriteError(w, http.StatusConflict, "book has copies out on loan")
		return
	}

	var openFines int64
	if err := store.DB.Model(&models.Fine{}).
		Where("book_id = ? AND status <> ?", id, models.FinePaid).
		Count(&openFines).Error; err != nil {
		logger.Log.Error("failed to check fines", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	if openFines > 0 {
		httputil.WriteError(w, http.StatusConflict, "book has unsettled fines")
		return
	}

	res := store.DB.Delete(&models.Book{}, id)
	if res.Error != nil {
		logger.Log.Error("failed to delete book", zap.Error(res.Error))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	if res.RowsAffected == 0 {
		httputil.WriteError(w, http.StatusNotFound, "book not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
