package query

import (
	"strings"

	"github.com/uptrace/bun"
)

// Search keeps rows where text appears, case-insensitively, in any of the
// entity's search fields. Blank text leaves q untouched.
func (e *Entity) Search(q *bun.SelectQuery, text string) *bun.SelectQuery {
	text = strings.TrimSpace(text)
	if text == "" || len(e.SearchPredicates) == 0 {
		return q
	}
	needle := strings.ToLower(text)

	return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, predicate := range e.SearchPredicates {
			q = q.WhereOr(predicate, needle)
		}
		return q
	})
}
