package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"librarium/internal/handlers"
	appmw "librarium/internal/middleware"
	"librarium/internal/models"
)

func NewRoutes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Post("/auth/login", handlers.LoginHandler)

	staff := appmw.RequireRole(models.RoleAdmin, models.RoleLibrarian)
	admin := appmw.RequireRole(models.RoleAdmin)
	student := appmw.RequireRole(models.RoleStudent)

	r.Group(func(r chi.Router) {
		r.Use(appmw.Authenticated)

		r.Get("/auth/me", handlers.MeHandler)

		r.Get("/books", handlers.ListBooksHandler)
		r.Get("/books/{id}", handlers.GetBookHandler)
		r.With(staff).Post("/books", handlers.CreateBookHandler)
		r.With(staff).Put("/books/{id}", handlers.UpdateBookHandler)
		r.With(admin).Delete("/books/{id}", handlers.DeleteBookHandler)

		r.With(staff).Get("/users", handlers.ListUsersHandler)
		r.With(staff).Post("/users", handlers.CreateUserHandler)
		r.With(staff).Get("/users/verify", handlers.VerifyStudentHandler)
		r.With(admin).Delete("/users/{id}", handlers.DeleteUserHandler)

		r.With(staff).Post("/loans", handlers.IssueLoanHandler)
		r.With(staff).Post("/loans/{id}/return", handlers.ReturnLoanHandler)
		r.With(staff).Get("/loans", handlers.ListLoansHandler)
		r.With(student).Get("/loans/mine", handlers.MyLoansHandler)

		r.With(staff).Get("/fines", handlers.ListFinesHandler)
		r.With(student).Get("/fines/mine", handlers.MyFinesHandler)
		r.With(student).Post("/fines/{id}/payment", handlers.ReportFinePaymentHandler)
		r.With(staff).Post("/fines/{id}/verify", handlers.VerifyFineHandler)

		r.Get("/notifications", handlers.MyNotificationsHandler)

		r.With(student).Post("/reservations", handlers.CreateReservationHandler)
		r.With(student).Get("/reservations/mine", handlers.MyReservationsHandler)
		r.With(student).Delete("/reservations/{id}", handlers.CancelReservationHandler)

		r.Get("/settings", handlers.GetSettingsHandler)
		r.With(admin).Put("/settings", handlers.UpdateSettingsHandler)
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
