package repository

import (
	"context"

	"bookapi/internal/model"
)

// BookRepository defines data access for books using SQL queries only.
// No business logic here, strictly persistence operations.
type BookRepository interface {
	// Create inserts a new book row.
	// Returns the stored book (may include values set by the DB).
	Create(ctx context.Context, book *model.Book) (*model.Book, error)

	// FindByID returns a book by its ID. Returns sql.ErrNoRows when missing.
	FindByID(ctx context.Context, id string) (*model.Book, error)

	// FindByISBN returns a book with the given ISBN, skipping the row with
	// excludeID when non-empty (used for update conflict checks).
	// Returns sql.ErrNoRows when no such book exists.
	FindByISBN(ctx context.Context, isbn, excludeID string) (*model.Book, error)

	// List returns a filtered, paginated list of books and the total row
	// count for the same filter.
	List(ctx context.Context, f BookFilter, pq PageQuery) (*PageResult[model.Book], error)

	// Update rewrites the mutable columns of an existing book and returns
	// the stored row. Returns sql.ErrNoRows when the book does not exist.
	Update(ctx context.Context, book *model.Book) (*model.Book, error)

	// SetCover records the cover object path and content type for a book.
	// Returns sql.ErrNoRows when the book does not exist.
	SetCover(ctx context.Context, id, coverPath, coverType string) error

	// Delete removes a book by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// Stats returns aggregate statistics over the whole library.
	Stats(ctx context.Context) (*model.LibraryStats, error)
}

// BookFilter narrows List results. Zero values mean "no filter".
// Author matches as a case-insensitive substring.
type BookFilter struct {
	Genre  model.Genre
	Author string
	Year   int
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
