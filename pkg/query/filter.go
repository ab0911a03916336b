package query

import (
	"strings"

	"github.com/uptrace/bun"
)

// Filter narrows q by every criterion. Criteria are conjunctive.
func (c Criteria) Filter(q *bun.SelectQuery) *bun.SelectQuery {
	for _, criterion := range c {
		q = criterion.apply(q)
	}
	return q
}

func (c Criterion) apply(q *bun.SelectQuery) *bun.SelectQuery {
	col := bun.Safe(c.Field.Column)

	switch c.Field.Op {
	case Equals:
		return q.Where("? = ?", col, c.Value)
	case IEquals:
		return q.Where("LOWER(?) = LOWER(?)", col, c.Value)
	case Contains:
		return q.Where("INSTR(LOWER(?), ?) > 0", col, strings.ToLower(c.Value.(string)))
	case GTE:
		return q.Where("? >= ?", col, c.Value)
	case LTE:
		return q.Where("? <= ?", col, c.Value)
	case In:
		return q.Where("? IN (?)", col, bun.In(c.Value))
	case Derived:
		return c.Field.Where(q, c.Value)
	default:
		return q
	}
}

// Has reports whether a criterion for key survived parsing.
func (c Criteria) Has(key string) bool {
	for _, criterion := range c {
		if criterion.Field.Key == key {
			return true
		}
	}
	return false
}
