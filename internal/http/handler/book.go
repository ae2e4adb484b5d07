package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bookapi/internal/model"
	"bookapi/internal/repository"
	"bookapi/internal/service"
	"bookapi/internal/validation"
)

// parseBookID validates the :id path parameter as a UUID.
func parseBookID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	return id, nil
}

// serviceError translates known service errors into standardized responses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "book not found")
	case errors.Is(err, service.ErrNoCover):
		return writeError(c, fiber.StatusNotFound, "NO_COVER", "book has no cover")
	case errors.Is(err, service.ErrDuplicateISBN):
		return writeError(c, fiber.StatusConflict, "DUPLICATE_ISBN", "book with this isbn already exists")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// CreateBook handles POST /books.
//
// @Summary Create a new book
// @Tags books
// @Accept json
// @Produce json
// @Param book body model.BookCreate true "Book to create"
// @Success 201 {object} model.Book
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /books [post]
func CreateBook(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.BookCreate
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if details := validation.Struct(&in); details != nil {
			return writeValidationError(c, details)
		}

		book, err := svc.Create(c.UserContext(), &in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(book)
	}
}

// ListBooks handles GET /books with optional genre/author/year filters
// and skip/limit pagination.
//
// @Summary List books with filtering and pagination
// @Tags books
// @Produce json
// @Param skip query int false "Number of books to skip" default(0)
// @Param limit query int false "Maximum number of books to return" default(10)
// @Param genre query string false "Filter by genre"
// @Param author query string false "Filter by author name (substring)"
// @Param year query int false "Filter by publication year"
// @Success 200 {object} model.BookListResponse
// @Failure 400 {object} errorPayload
// @Router /books [get]
func ListBooks(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		skip, err := strconv.Atoi(c.Query("skip", "0"))
		if err != nil || skip < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SKIP", "invalid skip")
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil || limit < 1 || limit > 100 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}

		var f repository.BookFilter
		if g := c.Query("genre"); g != "" {
			if !model.Genre(g).Valid() {
				return writeError(c, fiber.StatusBadRequest, "INVALID_GENRE", "invalid genre")
			}
			f.Genre = model.Genre(g)
		}
		f.Author = c.Query("author")
		if y := c.Query("year"); y != "" {
			year, err := strconv.Atoi(y)
			if err != nil || year < 1000 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_YEAR", "invalid year")
			}
			f.Year = year
		}

		res, err := svc.List(c.UserContext(), f, skip, limit)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetBook handles GET /books/:id.
//
// @Summary Get a specific book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} model.Book
// @Failure 404 {object} errorPayload
// @Router /books/{id} [get]
func GetBook(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseBookID(c)
		if err != nil {
			return err
		}
		book, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(book)
	}
}

// UpdateBook handles PUT /books/:id with a partial update body.
//
// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param book body model.BookUpdate true "Fields to update"
// @Success 200 {object} model.Book
// @Failure 404 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /books/{id} [put]
func UpdateBook(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseBookID(c)
		if err != nil {
			return err
		}
		var in model.BookUpdate
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if details := validation.Struct(&in); details != nil {
			return writeValidationError(c, details)
		}

		book, err := svc.Update(c.UserContext(), id, &in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(book)
	}
}

// DeleteBook handles DELETE /books/:id.
//
// @Summary Delete a book
// @Tags books
// @Param id path string true "Book ID"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /books/{id} [delete]
func DeleteBook(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseBookID(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// LibraryStats handles GET /books/stats/summary.
//
// @Summary Get library statistics
// @Tags books
// @Produce json
// @Success 200 {object} model.LibraryStats
// @Router /books/stats/summary [get]
func LibraryStats(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(stats)
	}
}

// UploadCover handles POST /books/:id/cover (multipart/form-data, field name: file).
//
// @Summary Upload a book cover image
// @Tags books
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Book ID"
// @Param file formData file true "Cover image"
// @Success 201 {object} model.Book
// @Failure 404 {object} errorPayload
// @Router /books/{id}/cover [post]
func UploadCover(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseBookID(c)
		if err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		book, err := svc.AttachCover(c.UserContext(), id, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(book)
	}
}

// GetCover handles GET /books/:id/cover by redirecting to a presigned URL.
//
// @Summary Download a book cover image
// @Tags books
// @Param id path string true "Book ID"
// @Success 302
// @Failure 404 {object} errorPayload
// @Router /books/{id}/cover [get]
func GetCover(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseBookID(c)
		if err != nil {
			return err
		}
		u, err := svc.CoverURL(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}

// Root handles GET / with a welcome payload.
//
// @Summary Welcome message
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func Root() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "Welcome to the Book Library API!",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"docs":      "/swagger/index.html",
		})
	}
}

// HelloName handles GET /hello/:name.
//
// @Summary Greet someone by name
// @Produce json
// @Param name path string true "Name to greet"
// @Success 200 {object} map[string]string
// @Router /hello/{name} [get]
func HelloName() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Hello, " + c.Params("name") + "!"})
	}
}

// HelloQuery handles GET /hello?name= with a default.
//
// @Summary Greet someone using a query parameter
// @Produce json
// @Param name query string false "Name to greet" default(World)
// @Success 200 {object} map[string]string
// @Router /hello [get]
func HelloQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Hello, " + c.Query("name", "World") + "!"})
	}
}
