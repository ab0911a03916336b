package query

import (
	"context"
	"net/url"

	"github.com/uptrace/bun"
)

// Query is a parsed list request: filter criteria, search text and ordering.
type Query struct {
	Entity   *Entity
	Criteria Criteria
	Search   string
	Ordering string
}

// Parse reads a list request for the entity from query params, using the
// standard search and ordering parameter names.
func (e *Entity) Parse(ctx context.Context, params url.Values) *Query {
	return &Query{
		Entity:   e,
		Criteria: e.ParseCriteria(ctx, params),
		Search:   params.Get(SearchParam),
		Ordering: params.Get(OrderingParam),
	}
}

// Apply runs the filter, search and order stages on q, in that order.
func (qr *Query) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	q = qr.Criteria.Filter(q)
	q = qr.Entity.Search(q, qr.Search)
	return qr.Entity.Order(q, qr.Ordering)
}
