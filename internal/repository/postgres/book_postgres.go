package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// BookPostgres is a PostgreSQL implementation of repository.BookRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type BookPostgres struct {
	db *sql.DB
}

// NewBookPostgres creates a new BookPostgres repository.
func NewBookPostgres(db *sql.DB) *BookPostgres {
	return &BookPostgres{db: db}
}

var _ repository.BookRepository = (*BookPostgres)(nil)

const bookColumns = `id, title, author, genre, publication_year, pages, isbn, cover_path, cover_type, created_at, updated_at`

// scanBook reads one row into a model.Book, mapping nullable columns.
func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	var (
		b         model.Book
		isbn      sql.NullString
		coverPath sql.NullString
		coverType sql.NullString
		updatedAt sql.NullTime
	)
	if err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Genre,
		&b.PublicationYear,
		&b.Pages,
		&isbn,
		&coverPath,
		&coverType,
		&b.CreatedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	b.ISBN = isbn.String
	b.CoverPath = coverPath.String
	b.CoverType = coverType.String
	if updatedAt.Valid {
		t := updatedAt.Time
		b.UpdatedAt = &t
	}
	return &b, nil
}

// nullIfEmpty maps "" to SQL NULL for optional text columns.
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new book row and returns the stored record.
func (r *BookPostgres) Create(ctx context.Context, book *model.Book) (*model.Book, error) {
	const q = `
		INSERT INTO books (id, title, author, genre, publication_year, pages, isbn, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + bookColumns
	row := r.db.QueryRowContext(ctx, q,
		book.ID,
		book.Title,
		book.Author,
		book.Genre,
		book.PublicationYear,
		book.Pages,
		nullIfEmpty(book.ISBN),
		book.CreatedAt,
	)
	return scanBook(row)
}

// FindByID fetches a single book by its ID.
func (r *BookPostgres) FindByID(ctx context.Context, id string) (*model.Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	return scanBook(r.db.QueryRowContext(ctx, q, id))
}

// FindByISBN fetches a book by ISBN, optionally skipping one row by ID.
func (r *BookPostgres) FindByISBN(ctx context.Context, isbn, excludeID string) (*model.Book, error) {
	if excludeID == "" {
		const q = `SELECT ` + bookColumns + ` FROM books WHERE isbn = $1`
		return scanBook(r.db.QueryRowContext(ctx, q, isbn))
	}
	const q = `SELECT ` + bookColumns + ` FROM books WHERE isbn = $1 AND id <> $2`
	return scanBook(r.db.QueryRowContext(ctx, q, isbn, excludeID))
}

// buildFilter renders the WHERE clause and arguments for a BookFilter.
// Returned args are positional starting at $1.
func buildFilter(f repository.BookFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Genre != "" {
		args = append(args, string(f.Genre))
		conds = append(conds, fmt.Sprintf("genre = $%d", len(args)))
	}
	if f.Author != "" {
		args = append(args, "%"+f.Author+"%")
		conds = append(conds, fmt.Sprintf("author ILIKE $%d", len(args)))
	}
	if f.Year != 0 {
		args = append(args, f.Year)
		conds = append(conds, fmt.Sprintf("publication_year = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns books using LIMIT/OFFSET pagination and a total count for the filter.
func (r *BookPostgres) List(ctx context.Context, f repository.BookFilter, pq repository.PageQuery) (*repository.PageResult[model.Book], error) {
	where, args := buildFilter(f)

	// Count total rows under the same filter
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	qList := `SELECT ` + bookColumns + ` FROM books` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pq.Limit, pq.Offset)

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Book]{
		Items: items,
		Total: total,
	}, nil
}

// Update rewrites the mutable columns of a book and returns the stored row.
func (r *BookPostgres) Update(ctx context.Context, book *model.Book) (*model.Book, error) {
	const q = `
		UPDATE books
		SET title = $2, author = $3, genre = $4, publication_year = $5, pages = $6, isbn = $7, updated_at = $8
		WHERE id = $1
		RETURNING ` + bookColumns
	row := r.db.QueryRowContext(ctx, q,
		book.ID,
		book.Title,
		book.Author,
		book.Genre,
		book.PublicationYear,
		book.Pages,
		nullIfEmpty(book.ISBN),
		book.UpdatedAt,
	)
	return scanBook(row)
}

// SetCover records the cover object location for a book.
func (r *BookPostgres) SetCover(ctx context.Context, id, coverPath, coverType string) error {
	const q = `UPDATE books SET cover_path = $2, cover_type = $3, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, nullIfEmpty(coverPath), nullIfEmpty(coverType))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a book by ID. It does not return an error if the row does not exist.
func (r *BookPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM books WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	// Ignore rows affected; callers check existence beforehand.
	_, _ = res.RowsAffected()
	return nil
}

// Stats computes library-wide aggregates in SQL.
func (r *BookPostgres) Stats(ctx context.Context) (*model.LibraryStats, error) {
	const qTotals = `
		SELECT COUNT(*),
		       COALESCE(ROUND(AVG(pages)), 0),
		       COALESCE(MIN(publication_year), 0),
		       COALESCE(MAX(publication_year), 0)
		FROM books
	`
	var (
		stats    model.LibraryStats
		avg      int
		earliest int
		latest   int
	)
	if err := r.db.QueryRowContext(ctx, qTotals).Scan(&stats.TotalBooks, &avg, &earliest, &latest); err != nil {
		return nil, err
	}
	stats.AveragePages = avg
	stats.Genres = make(map[model.Genre]int)
	if stats.TotalBooks > 0 {
		stats.PublicationYearRange = &model.YearRange{Earliest: earliest, Latest: latest}
	}

	const qGenres = `SELECT genre, COUNT(*) FROM books GROUP BY genre`
	rows, err := r.db.QueryContext(ctx, qGenres)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			g model.Genre
			n int
		)
		if err := rows.Scan(&g, &n); err != nil {
			return nil, err
		}
		stats.Genres[g] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &stats, nil
}
