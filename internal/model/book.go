package model

import "time"

// Genre is the closed set of book genres accepted by the API.
type Genre string

const (
	GenreFiction        Genre = "fiction"
	GenreNonFiction     Genre = "non-fiction"
	GenreMystery        Genre = "mystery"
	GenreRomance        Genre = "romance"
	GenreScienceFiction Genre = "science-fiction"
	GenreFantasy        Genre = "fantasy"
	GenreBiography      Genre = "biography"
	GenreHistory        Genre = "history"
	GenreTechnology     Genre = "technology"
)

// Genres lists every valid genre, in declaration order.
var Genres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreMystery,
	GenreRomance,
	GenreScienceFiction,
	GenreFantasy,
	GenreBiography,
	GenreHistory,
	GenreTechnology,
}

// Valid reports whether g is one of the known genres.
func (g Genre) Valid() bool {
	for _, v := range Genres {
		if g == v {
			return true
		}
	}
	return false
}

// Book represents a stored book in the library.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Book struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Genre           Genre      `json:"genre"`
	PublicationYear int        `json:"publication_year"`
	Pages           int        `json:"pages"`
	ISBN            string     `json:"isbn,omitempty"`
	CoverPath       string     `json:"-"`
	CoverType       string     `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// BookCreate is the request body for creating a book.
// The validate tags mirror the database constraints; pubyear additionally
// rejects years after the current one.
type BookCreate struct {
	Title           string `json:"title" validate:"required,notblank,max=200"`
	Author          string `json:"author" validate:"required,notblank,max=100"`
	Genre           Genre  `json:"genre" validate:"required,genre"`
	PublicationYear int    `json:"publication_year" validate:"required,min=1000,pubyear"`
	Pages           int    `json:"pages" validate:"required,gt=0,max=10000"`
	ISBN            string `json:"isbn,omitempty" validate:"omitempty,isbn1013"`
}

// BookUpdate is the request body for partially updating a book.
// Nil fields are left untouched; present fields obey the create constraints.
type BookUpdate struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Author          *string `json:"author,omitempty" validate:"omitempty,notblank,max=100"`
	Genre           *Genre  `json:"genre,omitempty" validate:"omitempty,genre"`
	PublicationYear *int    `json:"publication_year,omitempty" validate:"omitempty,min=1000,pubyear"`
	Pages           *int    `json:"pages,omitempty" validate:"omitempty,gt=0,max=10000"`
	ISBN            *string `json:"isbn,omitempty" validate:"omitempty,isbn1013"`
}

// BookListResponse is the paginated list payload.
type BookListResponse struct {
	Books   []Book `json:"books"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	HasNext bool   `json:"has_next"`
}

// YearRange holds the earliest and latest publication years in the library.
type YearRange struct {
	Earliest int `json:"earliest"`
	Latest   int `json:"latest"`
}

// LibraryStats is the summary statistics payload.
// PublicationYearRange is null while the library is empty.
type LibraryStats struct {
	TotalBooks           int           `json:"total_books"`
	Genres               map[Genre]int `json:"genres"`
	AveragePages         int           `json:"average_pages"`
	PublicationYearRange *YearRange    `json:"publication_year_range"`
}
