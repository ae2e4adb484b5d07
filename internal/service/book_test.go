package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"bookapi/internal/model"
	"bookapi/internal/repository"
	repoMocks "bookapi/internal/repository/mocks"
	"bookapi/internal/storage"
	storeMocks "bookapi/internal/storage/mocks"
)

func newTestService() (BookService, *storeMocks.MockStorage, *repoMocks.MockBookRepository) {
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockBookRepository)
	return NewBookService(mStore, mRepo, 15*time.Minute), mStore, mRepo
}

func TestBookService_Create(t *testing.T) {
	ctx := context.Background()

	in := &model.BookCreate{
		Title:           "  Dune  ",
		Author:          "Frank Herbert",
		Genre:           model.GenreScienceFiction,
		PublicationYear: 1965,
		Pages:           412,
		ISBN:            "9780441172719",
	}

	t.Run("happy path trims and persists", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		mRepo.On("FindByISBN", ctx, "9780441172719", "").Return(nil, sql.ErrNoRows).Once()
		mRepo.On("Create", ctx, mock.MatchedBy(func(b *model.Book) bool {
			return b.ID != "" &&
				b.Title == "Dune" &&
				b.Author == "Frank Herbert" &&
				!b.CreatedAt.IsZero()
		})).Return(&model.Book{ID: "gen-id", Title: "Dune"}, nil).Once()

		book, err := svc.Create(ctx, in)

		assert.NoError(t, err)
		assert.Equal(t, "gen-id", book.ID)
		mRepo.AssertExpectations(t)
	})

	t.Run("duplicate isbn", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		mRepo.On("FindByISBN", ctx, "9780441172719", "").
			Return(&model.Book{ID: "other"}, nil).Once()

		book, err := svc.Create(ctx, in)

		assert.ErrorIs(t, err, ErrDuplicateISBN)
		assert.Nil(t, book)
		mRepo.AssertExpectations(t)
	})

	t.Run("no isbn skips uniqueness check", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		noISBN := *in
		noISBN.ISBN = ""
		mRepo.On("Create", ctx, mock.Anything).Return(&model.Book{ID: "gen-id"}, nil).Once()

		_, err := svc.Create(ctx, &noISBN)

		assert.NoError(t, err)
		mRepo.AssertNotCalled(t, "FindByISBN", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		mRepo.On("FindByISBN", ctx, "9780441172719", "").Return(nil, sql.ErrNoRows).Once()
		mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail")).Once()

		_, err := svc.Create(ctx, in)

		assert.ErrorContains(t, err, "db save failed")
	})
}

func TestBookService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults and pagination math", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		mRepo.On("List", ctx, repository.BookFilter{}, repository.PageQuery{Limit: 10, Offset: 0}).
			Return(&repository.PageResult[model.Book]{
				Items: []model.Book{{ID: "a"}, {ID: "b"}},
				Total: 25,
			}, nil).Once()

		res, err := svc.List(ctx, repository.BookFilter{}, -5, 0)

		assert.NoError(t, err)
		assert.Equal(t, 25, res.Total)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 10, res.Limit)
		assert.True(t, res.HasNext)
		assert.Len(t, res.Books, 2)
	})

	t.Run("limit is clamped to 100", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		mRepo.On("List", ctx, repository.BookFilter{}, repository.PageQuery{Limit: 100, Offset: 200}).
			Return(&repository.PageResult[model.Book]{Items: []model.Book{}, Total: 300}, nil).Once()

		res, err := svc.List(ctx, repository.BookFilter{}, 200, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 3, res.Page)
		assert.False(t, res.HasNext)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		mRepo.On("List", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

		_, err := svc.List(ctx, repository.BookFilter{}, 0, 10)

		assert.Error(t, err)
	})
}

func TestBookService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		svc, _, mRepo := newTestService()
		mRepo.On("FindByID", ctx, "id-1").Return(&model.Book{ID: "id-1"}, nil).Once()

		book, err := svc.Get(ctx, "id-1")

		assert.NoError(t, err)
		assert.Equal(t, "id-1", book.ID)
	})

	t.Run("missing row maps to ErrNotFound", func(t *testing.T) {
		svc, _, mRepo := newTestService()
		mRepo.On("FindByID", ctx, "id-1").Return(nil, sql.ErrNoRows).Once()

		_, err := svc.Get(ctx, "id-1")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.Get(ctx, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})
}

func TestBookService_Update(t *testing.T) {
	ctx := context.Background()

	stored := func() *model.Book {
		return &model.Book{
			ID:              "id-1",
			Title:           "Dune",
			Author:          "Frank Herbert",
			Genre:           model.GenreScienceFiction,
			PublicationYear: 1965,
			Pages:           412,
			ISBN:            "9780441172719",
		}
	}

	t.Run("applies only present fields", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		newTitle := "Dune Messiah"
		newPages := 256
		mRepo.On("FindByID", ctx, "id-1").Return(stored(), nil).Once()
		mRepo.On("Update", ctx, mock.MatchedBy(func(b *model.Book) bool {
			return b.Title == "Dune Messiah" &&
				b.Pages == 256 &&
				b.Author == "Frank Herbert" &&
				b.UpdatedAt != nil
		})).Return(&model.Book{ID: "id-1", Title: "Dune Messiah"}, nil).Once()

		book, err := svc.Update(ctx, "id-1", &model.BookUpdate{Title: &newTitle, Pages: &newPages})

		assert.NoError(t, err)
		assert.Equal(t, "Dune Messiah", book.Title)
		mRepo.AssertExpectations(t)
	})

	t.Run("duplicate isbn on another book", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		otherISBN := "9780441172720"
		mRepo.On("FindByID", ctx, "id-1").Return(stored(), nil).Once()
		mRepo.On("FindByISBN", ctx, otherISBN, "id-1").
			Return(&model.Book{ID: "id-2"}, nil).Once()

		_, err := svc.Update(ctx, "id-1", &model.BookUpdate{ISBN: &otherISBN})

		assert.ErrorIs(t, err, ErrDuplicateISBN)
	})

	t.Run("same isbn skips uniqueness check", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		sameISBN := "9780441172719"
		mRepo.On("FindByID", ctx, "id-1").Return(stored(), nil).Once()
		mRepo.On("Update", ctx, mock.Anything).Return(stored(), nil).Once()

		_, err := svc.Update(ctx, "id-1", &model.BookUpdate{ISBN: &sameISBN})

		assert.NoError(t, err)
		mRepo.AssertNotCalled(t, "FindByISBN", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		mRepo.On("FindByID", ctx, "id-1").Return(nil, sql.ErrNoRows).Once()

		_, err := svc.Update(ctx, "id-1", &model.BookUpdate{})

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBookService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes row without cover", func(t *testing.T) {
		svc, mStore, mRepo := newTestService()

		mRepo.On("FindByID", ctx, "id-1").Return(&model.Book{ID: "id-1"}, nil).Once()
		mRepo.On("Delete", ctx, "id-1").Return(nil).Once()

		assert.NoError(t, svc.Delete(ctx, "id-1"))
		mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("removes cover object first", func(t *testing.T) {
		svc, mStore, mRepo := newTestService()

		mRepo.On("FindByID", ctx, "id-1").
			Return(&model.Book{ID: "id-1", CoverPath: "covers/x.png"}, nil).Once()
		mStore.On("Delete", ctx, "covers/x.png").Return(nil).Once()
		mRepo.On("Delete", ctx, "id-1").Return(nil).Once()

		assert.NoError(t, svc.Delete(ctx, "id-1"))
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("keeps row when cover delete fails", func(t *testing.T) {
		svc, mStore, mRepo := newTestService()

		mRepo.On("FindByID", ctx, "id-1").
			Return(&model.Book{ID: "id-1", CoverPath: "covers/x.png"}, nil).Once()
		mStore.On("Delete", ctx, "covers/x.png").Return(errors.New("storage down")).Once()

		err := svc.Delete(ctx, "id-1")

		assert.ErrorContains(t, err, "delete cover")
		mRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _, mRepo := newTestService()
		mRepo.On("FindByID", ctx, "id-1").Return(nil, sql.ErrNoRows).Once()

		assert.ErrorIs(t, svc.Delete(ctx, "id-1"), ErrNotFound)
	})
}

func TestBookService_AttachCover(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		svc, mStore, mRepo := newTestService()

		r := strings.NewReader("png bytes")
		mRepo.On("FindByID", ctx, "id-1").Return(&model.Book{ID: "id-1"}, nil).Twice()
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "covers/") && strings.HasSuffix(key, ".png")
		}), r, storage.PutObjectOptions{
			Size:        9,
			ContentType: "image/png",
			Metadata: map[string]string{
				"original-filename": "cover.png",
				"book-id":           "id-1",
			},
		}).Return(storage.ObjectInfo{Key: "covers/uuid.png"}, nil).Once()
		mRepo.On("SetCover", ctx, "id-1", "covers/uuid.png", "image/png").Return(nil).Once()

		book, err := svc.AttachCover(ctx, "id-1", r, "cover.png", "image/png", 9)

		assert.NoError(t, err)
		assert.Equal(t, "id-1", book.ID)
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("replaces previous cover object", func(t *testing.T) {
		svc, mStore, mRepo := newTestService()

		r := strings.NewReader("png bytes")
		mRepo.On("FindByID", ctx, "id-1").
			Return(&model.Book{ID: "id-1", CoverPath: "covers/old.png"}, nil).Twice()
		mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
			Return(storage.ObjectInfo{Key: "covers/new.png"}, nil).Once()
		mRepo.On("SetCover", ctx, "id-1", "covers/new.png", "image/png").Return(nil).Once()
		mStore.On("Delete", ctx, "covers/old.png").Return(nil).Once()

		_, err := svc.AttachCover(ctx, "id-1", r, "cover.png", "image/png", 9)

		assert.NoError(t, err)
		mStore.AssertExpectations(t)
	})

	t.Run("rolls back storage when db write fails", func(t *testing.T) {
		svc, mStore, mRepo := newTestService()

		r := strings.NewReader("png bytes")
		mRepo.On("FindByID", ctx, "id-1").Return(&model.Book{ID: "id-1"}, nil).Once()
		mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
			Return(storage.ObjectInfo{Key: "covers/new.png"}, nil).Once()
		mRepo.On("SetCover", ctx, "id-1", "covers/new.png", "image/png").
			Return(errors.New("db fail")).Once()
		mStore.On("Delete", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "covers/")
		})).Return(nil).Once()

		_, err := svc.AttachCover(ctx, "id-1", r, "cover.png", "image/png", 9)

		assert.ErrorContains(t, err, "db save failed")
		mStore.AssertExpectations(t)
	})

	t.Run("nil reader", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		_, err := svc.AttachCover(ctx, "id-1", nil, "cover.png", "image/png", 9)

		assert.ErrorIs(t, err, ErrReaderNil)
		mRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("book not found", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		r := strings.NewReader("png bytes")
		mRepo.On("FindByID", ctx, "id-1").Return(nil, sql.ErrNoRows).Once()

		_, err := svc.AttachCover(ctx, "id-1", r, "cover.png", "image/png", 9)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBookService_CoverURL(t *testing.T) {
	ctx := context.Background()

	t.Run("presigns stored cover", func(t *testing.T) {
		svc, mStore, mRepo := newTestService()

		mRepo.On("FindByID", ctx, "id-1").
			Return(&model.Book{ID: "id-1", CoverPath: "covers/x.png"}, nil).Once()
		mStore.On("PresignGet", ctx, "covers/x.png", 15*time.Minute).
			Return("https://example.test/covers/x.png?sig=abc", nil).Once()

		u, err := svc.CoverURL(ctx, "id-1")

		assert.NoError(t, err)
		assert.Contains(t, u, "covers/x.png")
	})

	t.Run("no cover", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		mRepo.On("FindByID", ctx, "id-1").Return(&model.Book{ID: "id-1"}, nil).Once()

		_, err := svc.CoverURL(ctx, "id-1")

		assert.ErrorIs(t, err, ErrNoCover)
	})

	t.Run("book not found", func(t *testing.T) {
		svc, _, mRepo := newTestService()

		mRepo.On("FindByID", ctx, "id-1").Return(nil, sql.ErrNoRows).Once()

		_, err := svc.CoverURL(ctx, "id-1")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBookService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, _, mRepo := newTestService()

	want := &model.LibraryStats{
		TotalBooks:   3,
		Genres:       map[model.Genre]int{model.GenreFantasy: 2, model.GenreHistory: 1},
		AveragePages: 310,
		PublicationYearRange: &model.YearRange{
			Earliest: 1954,
			Latest:   2011,
		},
	}
	mRepo.On("Stats", ctx).Return(want, nil).Once()

	got, err := svc.Stats(ctx)

	assert.NoError(t, err)
	assert.Equal(t, want, got)
}
