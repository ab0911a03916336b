package query

import (
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// Books is the criteria table for books, aliased "b".
var Books = newEntity(Entity{
	Name: "book",
	Fields: []Field{
		{Key: "title", Column: "b.title", Op: Contains, Type: String},
		{Key: "description", Column: "b.description", Op: Contains, Type: String},
		{Key: "author_name", Op: Derived, Type: String, Where: whereAuthorNameContains},
		{Key: "isbn", Column: "b.isbn", Op: Equals, Type: String},
		{Key: "genre", Column: "b.genre", Op: Equals, Type: Enum, Values: models.Genres},
		{Key: "genre_in", Column: "b.genre", Op: In, Type: Enum, Values: models.Genres},
		{Key: "author", Column: "b.author_id", Op: Equals, Type: Integer},
		{Key: "publication_year", Column: "b.publication_year", Op: Equals, Type: Integer},
		{Key: "publication_year_min", Column: "b.publication_year", Op: GTE, Type: Integer},
		{Key: "publication_year_max", Column: "b.publication_year", Op: LTE, Type: Integer},
		{Key: "pages", Column: "b.pages", Op: Equals, Type: Integer},
		{Key: "pages_min", Column: "b.pages", Op: GTE, Type: Integer},
		{Key: "pages_max", Column: "b.pages", Op: LTE, Type: Integer},
		{Key: "rating", Column: "b.rating", Op: Equals, Type: Decimal},
		{Key: "rating_min", Column: "b.rating", Op: GTE, Type: Decimal},
		{Key: "rating_max", Column: "b.rating", Op: LTE, Type: Decimal},
		{Key: "price", Column: "b.price", Op: Equals, Type: Decimal},
		{Key: "price_min", Column: "b.price", Op: GTE, Type: Decimal},
		{Key: "price_max", Column: "b.price", Op: LTE, Type: Decimal},
		{Key: "in_stock", Column: "b.in_stock", Op: Equals, Type: Boolean},
		{Key: "created_after", Column: "b.created_at", Op: GTE, Type: DateTime},
		{Key: "created_before", Column: "b.created_at", Op: LTE, Type: DateTime},
		{Key: "updated_after", Column: "b.updated_at", Op: GTE, Type: DateTime},
		{Key: "updated_before", Column: "b.updated_at", Op: LTE, Type: DateTime},
	},
	SearchPredicates: []string{
		"INSTR(LOWER(b.title), ?) > 0",
		"b.author_id IN (SELECT id FROM authors WHERE INSTR(LOWER(name), ?) > 0)",
		"INSTR(LOWER(b.description), ?) > 0",
		"INSTR(LOWER(b.isbn), ?) > 0",
	},
	Orderings: map[string]string{
		"title":            "b.title",
		"publication_year": "b.publication_year",
		"rating":           "b.rating",
		"price":            "b.price",
		"created_at":       "b.created_at",
	},
	DefaultOrdering: []string{"-publication_year", "title"},
	PrimaryKey:      "b.id",
})

func whereAuthorNameContains(q *bun.SelectQuery, value interface{}) *bun.SelectQuery {
	return q.Where("b.author_id IN (SELECT id FROM authors WHERE INSTR(LOWER(name), LOWER(?)) > 0)", value)
}
