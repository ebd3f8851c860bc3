// Package demo declares a small annotated library API used by the
// command line tool.
package demo

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/parob/graphql-api/schema/annotations"
	"github.com/parob/graphql-api/schema/types"
)

type Genre string

const (
	Fiction Genre = "fiction"
	Science Genre = "science"
	History Genre = "history"
)

type Book struct {
	ID    uuid.UUID
	Title string
	Genre Genre
	Pages int
}

// NewBook is the input accepted by addBook.
type NewBook struct {
	Title string
	Genre Genre
	Pages int
}

type Library struct {
	mu    sync.Mutex
	name  string
	books []*Book
}

func bookID(title string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToLower(title)))
}

// NewLibrary returns a library seeded with a few books.
func NewLibrary() *Library {
	l := &Library{name: "City Library"}
	for _, b := range []NewBook{
		{Title: "Dune", Genre: Fiction, Pages: 412},
		{Title: "Cosmos", Genre: Science, Pages: 365},
		{Title: "SPQR", Genre: History, Pages: 608},
	} {
		l.add(b)
	}
	return l
}

func (l *Library) add(in NewBook) *Book {
	b := &Book{ID: bookID(in.Title), Title: in.Title, Genre: in.Genre, Pages: in.Pages}
	l.books = append(l.books, b)
	return b
}

func (l *Library) Books(genre *Genre) []*Book {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Book, 0, len(l.books))
	for _, b := range l.books {
		if genre == nil || b.Genre == *genre {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (l *Library) Book(id uuid.UUID) *Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.books {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (l *Library) AddBook(in NewBook) *Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.add(in)
}

func (l *Library) RemoveBook(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, b := range l.books {
		if b.ID == id {
			l.books = append(l.books[:i], l.books[i+1:]...)
			return true
		}
	}
	return false
}

// Stats counts books per genre.
func (l *Library) Stats() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := map[string]any{}
	for _, b := range l.books {
		n, _ := out[string(b.Genre)].(int)
		out[string(b.Genre)] = n + 1
	}
	return out
}

// Declare registers the library classes on reg and returns the root
// class. Fields tagged "internal" can be filtered out of the query
// schema.
func Declare(reg *annotations.Registry) *types.Class {
	genre := types.NewEnum("Genre",
		types.EnumValue{Name: "FICTION", Value: Fiction},
		types.EnumValue{Name: "SCIENCE", Value: Science},
		types.EnumValue{Name: "HISTORY", Value: History},
	)

	newBook := types.NewRecord[NewBook]("NewBook",
		types.RecordField{Name: "title", Type: types.String},
		types.RecordField{Name: "genre", Type: genre},
		types.RecordField{Name: "pages", Type: types.Int, Default: 0, HasDefault: true},
	)

	book := types.NewClass("Book", types.Instance[Book](), types.Describe("A book on the shelves."))
	reg.Field(book.Method("id", func(b *Book) uuid.UUID { return b.ID }, types.Returns(types.UUID)))
	reg.Field(book.Method("title", func(b *Book) string { return b.Title }, types.Returns(types.String)))
	reg.Field(book.Method("genre", func(b *Book) Genre { return b.Genre }, types.Returns(genre)))
	reg.Field(book.Method("pages", func(b *Book) int { return b.Pages }, types.Returns(types.Int)))

	root := types.NewClass("Library", types.Instance[Library](),
		types.Constructor(func() any { return NewLibrary() }),
		types.Describe("The root of the library API."))

	reg.Property(root.Property("name", types.String,
		func(l *Library) string { return l.name },
		func(l *Library, name string) string {
			l.name = name
			return l.name
		}))
	reg.Field(root.Method("books", func(l *Library, g *Genre) []*Book { return l.Books(g) },
		types.Returns(types.List(book)),
		types.OptionalArg("genre", types.Optional(genre), nil),
		types.Doc("Lists the books, optionally of one genre.")))
	reg.Field(root.Method("book", func(l *Library, id uuid.UUID) *Book { return l.Book(id) },
		types.Returns(types.Optional(book)),
		types.Arg("id", types.UUID)))
	reg.Field(root.Method("stats", func(l *Library) map[string]any { return l.Stats() },
		types.Returns(types.JSON)),
		annotations.WithMeta(map[string]any{"tags": []string{"internal"}}))

	reg.MutableField(root.Method("add_book", func(l *Library, in NewBook) *Book { return l.AddBook(in) },
		types.Returns(book),
		types.Arg("book", newBook)))
	reg.MutableField(root.Method("remove_book", func(l *Library, id uuid.UUID) bool { return l.RemoveBook(id) },
		types.Returns(types.Boolean),
		types.Arg("id", types.UUID)),
		annotations.WithMeta(map[string]any{"tags": []string{"internal"}}))

	return root
}
