package query

import (
	"github.com/uptrace/bun"
)

// Authors is the criteria table for authors, aliased "a". The book-derived
// keys use correlated sub-queries so authors without books still take part.
var Authors = newEntity(Entity{
	Name: "author",
	Fields: []Field{
		{Key: "name", Column: "a.name", Op: Contains, Type: String},
		{Key: "bio", Column: "a.bio", Op: Contains, Type: String},
		{Key: "nationality", Column: "a.nationality", Op: Contains, Type: String},
		{Key: "birth_date", Column: "a.birth_date", Op: Equals, Type: Date},
		{Key: "birth_date_after", Column: "a.birth_date", Op: GTE, Type: Date},
		{Key: "birth_date_before", Column: "a.birth_date", Op: LTE, Type: Date},
		{Key: "has_books", Op: Derived, Type: Boolean, Where: whereHasBooks},
		{Key: "min_books", Op: Derived, Type: Integer, Where: whereBookCount(">=")},
		{Key: "max_books", Op: Derived, Type: Integer, Where: whereBookCount("<=")},
		{Key: "book_rating_min", Op: Derived, Type: Decimal, Where: whereAverageRatingAtLeast},
		{Key: "book_genre", Op: Derived, Type: String, Where: whereAnyBook("LOWER(bk.genre) = LOWER(?)")},
		{Key: "book_publication_year", Op: Derived, Type: Integer, Where: whereAnyBook("bk.publication_year = ?")},
	},
	SearchPredicates: []string{
		"INSTR(LOWER(a.name), ?) > 0",
		"INSTR(LOWER(a.bio), ?) > 0",
		"INSTR(LOWER(a.nationality), ?) > 0",
	},
	Orderings: map[string]string{
		"name":       "a.name",
		"birth_date": "a.birth_date",
		"created_at": "a.created_at",
	},
	DefaultOrdering: []string{"name"},
	PrimaryKey:      "a.id",
})

const (
	// BookCountExpr and AverageRatingExpr compute an author's aggregates
	// from the outer "a" row.
	BookCountExpr     = "(SELECT COUNT(*) FROM books AS bk WHERE bk.author_id = a.id)"
	AverageRatingExpr = "(SELECT AVG(bk.rating) FROM books AS bk WHERE bk.author_id = a.id)"
)

func whereHasBooks(q *bun.SelectQuery, value interface{}) *bun.SelectQuery {
	if value.(bool) {
		return q.Where("EXISTS (SELECT 1 FROM books AS bk WHERE bk.author_id = a.id)")
	}
	return q.Where("NOT EXISTS (SELECT 1 FROM books AS bk WHERE bk.author_id = a.id)")
}

func whereBookCount(op string) func(*bun.SelectQuery, interface{}) *bun.SelectQuery {
	return func(q *bun.SelectQuery, value interface{}) *bun.SelectQuery {
		return q.Where(BookCountExpr+" "+op+" ?", value)
	}
}

func whereAverageRatingAtLeast(q *bun.SelectQuery, value interface{}) *bun.SelectQuery {
	return q.Where(AverageRatingExpr+" >= ?", value)
}

func whereAnyBook(cond string) func(*bun.SelectQuery, interface{}) *bun.SelectQuery {
	return func(q *bun.SelectQuery, value interface{}) *bun.SelectQuery {
		return q.Where("EXISTS (SELECT 1 FROM books AS bk WHERE bk.author_id = a.id AND "+cond+")", value)
	}
}
