package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"bookapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; business logic lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, bookSvc service.BookService) {
	app.Get("/", Root())
	app.Get("/hello", HelloQuery())
	app.Get("/hello/:name", HelloName())

	// Readiness checks DB connectivity; healthz is a bare liveness probe.
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/books", CreateBook(bookSvc))
	app.Get("/books", ListBooks(bookSvc))
	app.Get("/books/stats/summary", LibraryStats(bookSvc))
	app.Get("/books/:id", GetBook(bookSvc))
	app.Put("/books/:id", UpdateBook(bookSvc))
	app.Delete("/books/:id", DeleteBook(bookSvc))

	app.Post("/books/:id/cover", UploadCover(bookSvc))
	app.Get("/books/:id/cover", GetCover(bookSvc))
}
