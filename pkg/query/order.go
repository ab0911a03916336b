package query

import (
	"strings"

	"github.com/uptrace/bun"
)

// OrderKeys resolves a comma-separated ordering against the allow-list. Any
// unknown key, or no key at all, yields the entity's default ordering.
func (e *Entity) OrderKeys(ordering string) []string {
	keys := []string{}
	for _, key := range strings.Split(ordering, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := e.Orderings[strings.TrimPrefix(key, "-")]; !ok {
			return e.DefaultOrdering
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return e.DefaultOrdering
	}
	return keys
}

// Order sorts q by the resolved ordering, then by primary key ascending so
// that pages never overlap.
func (e *Entity) Order(q *bun.SelectQuery, ordering string) *bun.SelectQuery {
	for _, key := range e.OrderKeys(ordering) {
		dir := "ASC"
		if strings.HasPrefix(key, "-") {
			dir = "DESC"
			key = key[1:]
		}
		q = q.OrderExpr("? "+dir, bun.Safe(e.Orderings[key]))
	}
	return q.OrderExpr("? ASC", bun.Safe(e.PrimaryKey))
}
