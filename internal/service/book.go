package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookapi/internal/model"
	"bookapi/internal/repository"
	"bookapi/internal/storage"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateISBN = errors.New("book with this isbn already exists")
	ErrNoCover       = errors.New("book has no cover")
	ErrReaderNil     = errors.New("reader is nil")
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// BookService defines the use cases for managing the book library.
type BookService interface {
	// Create validates ISBN uniqueness, assigns an ID, and persists the book.
	Create(ctx context.Context, in *model.BookCreate) (*model.Book, error)

	// List returns books matching the filter using skip/limit pagination.
	List(ctx context.Context, f repository.BookFilter, skip, limit int) (*model.BookListResponse, error)

	// Get returns a single book by its ID.
	Get(ctx context.Context, id string) (*model.Book, error)

	// Update applies the non-nil fields of the patch to an existing book.
	Update(ctx context.Context, id string, in *model.BookUpdate) (*model.Book, error)

	// Delete removes a book and its cover object, if any.
	Delete(ctx context.Context, id string) error

	// Stats returns library-wide summary statistics.
	Stats(ctx context.Context) (*model.LibraryStats, error)

	// AttachCover uploads a cover image to object storage, records its
	// location on the book, and rolls back storage if the DB write fails.
	// originalFilename is used only to extract the extension.
	AttachCover(ctx context.Context, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Book, error)

	// CoverURL returns a time-limited download URL for a book's cover.
	CoverURL(ctx context.Context, id string) (string, error)
}

// bookService is a concrete implementation of BookService.
type bookService struct {
	store         storage.Storage
	repo          repository.BookRepository
	presignExpiry time.Duration
}

// NewBookService constructs a new BookService.
func NewBookService(store storage.Storage, repo repository.BookRepository, presignExpiry time.Duration) BookService {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &bookService{store: store, repo: repo, presignExpiry: presignExpiry}
}

// checkISBNFree returns ErrDuplicateISBN when another book (excluding
// excludeID) already carries the given ISBN.
func (s *bookService) checkISBNFree(ctx context.Context, isbn, excludeID string) error {
	if isbn == "" {
		return nil
	}
	_, err := s.repo.FindByISBN(ctx, isbn, excludeID)
	if err == nil {
		return ErrDuplicateISBN
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

func (s *bookService) Create(ctx context.Context, in *model.BookCreate) (*model.Book, error) {
	if err := s.checkISBNFree(ctx, in.ISBN, ""); err != nil {
		return nil, err
	}

	book := &model.Book{
		ID:              uuid.New().String(),
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		Genre:           in.Genre,
		PublicationYear: in.PublicationYear,
		Pages:           in.Pages,
		ISBN:            in.ISBN,
		CreatedAt:       time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns paginated books without exposing repository types.
func (s *bookService) List(ctx context.Context, f repository.BookFilter, skip, limit int) (*model.BookListResponse, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if skip < 0 {
		skip = 0
	}

	res, err := s.repo.List(ctx, f, repository.PageQuery{Limit: limit, Offset: skip})
	if err != nil {
		return nil, err
	}
	return &model.BookListResponse{
		Books:   res.Items,
		Total:   res.Total,
		Page:    (skip / limit) + 1,
		Limit:   limit,
		HasNext: skip+limit < res.Total,
	}, nil
}

// Get returns a book by ID.
func (s *bookService) Get(ctx context.Context, id string) (*model.Book, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return book, nil
}

// Update loads the stored book, applies the patch fields, and rewrites it.
func (s *bookService) Update(ctx context.Context, id string, in *model.BookUpdate) (*model.Book, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.ISBN != nil && *in.ISBN != book.ISBN {
		if err := s.checkISBNFree(ctx, *in.ISBN, id); err != nil {
			return nil, err
		}
	}

	if in.Title != nil {
		book.Title = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		book.Author = strings.TrimSpace(*in.Author)
	}
	if in.Genre != nil {
		book.Genre = *in.Genre
	}
	if in.PublicationYear != nil {
		book.PublicationYear = *in.PublicationYear
	}
	if in.Pages != nil {
		book.Pages = *in.Pages
	}
	if in.ISBN != nil {
		book.ISBN = *in.ISBN
	}
	now := time.Now().UTC()
	book.UpdatedAt = &now

	stored, err := s.repo.Update(ctx, book)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stored, nil
}

// Delete removes the cover object first, then deletes the row.
func (s *bookService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Delete cover from storage first; if this fails, keep the DB row so
	// the cover object is not orphaned silently.
	if book.CoverPath != "" {
		if err := s.store.Delete(ctx, book.CoverPath); err != nil {
			return fmt.Errorf("delete cover: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

// Stats returns aggregate library statistics.
func (s *bookService) Stats(ctx context.Context) (*model.LibraryStats, error) {
	return s.repo.Stats(ctx)
}

func (s *bookService) AttachCover(ctx context.Context, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Book, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if r == nil {
		return nil, ErrReaderNil
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Store under a fresh key so a concurrent reader of the old cover
	// never sees a half-written object.
	ext := filepath.Ext(originalFilename)
	key := filepath.ToSlash(filepath.Join("covers", uuid.New().String()+ext))

	info, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
			"book-id":           id,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	if err := s.repo.SetCover(ctx, id, info.Key, contentType); err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	// Best effort removal of the replaced cover object.
	if book.CoverPath != "" && book.CoverPath != info.Key {
		_ = s.store.Delete(ctx, book.CoverPath)
	}

	return s.Get(ctx, id)
}

// CoverURL returns a presigned download URL for the book's cover.
func (s *bookService) CoverURL(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if book.CoverPath == "" {
		return "", ErrNoCover
	}
	u, err := s.store.PresignGet(ctx, book.CoverPath, s.presignExpiry)
	if err != nil {
		return "", fmt.Errorf("presign cover: %w", err)
	}
	return u, nil
}
