package query

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/metrics"
	"github.com/uptrace/bun"
)

// Operator is the comparison a criterion applies to its column.
type Operator int

const (
	Equals Operator = iota
	IEquals
	Contains
	GTE
	LTE
	In
	// Derived criteria build their own predicate through Field.Where.
	Derived
)

// ValueType is the type a raw query value must parse into.
type ValueType int

const (
	String ValueType = iota
	Enum
	Decimal
	Integer
	Boolean
	DateTime
	Date
)

const (
	SearchParam   = "search"
	OrderingParam = "ordering"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// Field declares one filter key of an entity.
type Field struct {
	Key    string
	Column string
	Op     Operator
	Type   ValueType
	// Values restricts Enum fields.
	Values []string
	Where  func(q *bun.SelectQuery, value interface{}) *bun.SelectQuery
}

// Entity is the static criteria table of one queryable model.
type Entity struct {
	Name   string
	Fields []Field
	// SearchPredicates are SQL conditions with a single placeholder that is
	// bound to the lowercased search text. Any one of them matching keeps the
	// row.
	SearchPredicates []string
	// Orderings maps the allowed ordering keys to their columns.
	Orderings       map[string]string
	DefaultOrdering []string
	PrimaryKey      string

	byKey map[string]*Field
}

// Criterion is one parsed, well-formed filter condition.
type Criterion struct {
	Field *Field
	Value interface{}
}

type Criteria []Criterion

func newEntity(e Entity) *Entity {
	e.byKey = make(map[string]*Field, len(e.Fields))
	for i := range e.Fields {
		e.byKey[e.Fields[i].Key] = &e.Fields[i]
	}
	return &e
}

// Field returns the declared field for key, or nil.
func (e *Entity) Field(key string) *Field {
	return e.byKey[key]
}

// ParseCriteria reads every known filter key from params. Unknown keys are
// ignored, empty values count as absent, and values that don't parse into
// the field's type are dropped without failing the rest.
func (e *Entity) ParseCriteria(ctx context.Context, params url.Values) Criteria {
	log := logger.FromContext(ctx)
	criteria := Criteria{}

	for i := range e.Fields {
		field := &e.Fields[i]
		raw := strings.TrimSpace(params.Get(field.Key))
		if raw == "" {
			continue
		}
		value, ok := field.parse(raw)
		if !ok {
			log.Debug("dropping malformed criterion", logger.Data{
				"entity": e.Name,
				"key":    field.Key,
				"value":  raw,
			})
			metrics.DroppedCriteria.WithLabelValues(e.Name, field.Key).Inc()
			continue
		}
		criteria = append(criteria, Criterion{Field: field, Value: value})
	}

	return criteria
}

func (f *Field) parse(raw string) (interface{}, bool) {
	if f.Op == In {
		values := []interface{}{}
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, ok := f.parseOne(part)
			if !ok {
				continue
			}
			values = append(values, v)
		}
		return values, len(values) > 0
	}
	return f.parseOne(raw)
}

func (f *Field) parseOne(raw string) (interface{}, bool) {
	switch f.Type {
	case String:
		return raw, true
	case Enum:
		v := strings.ToLower(raw)
		for _, allowed := range f.Values {
			if v == allowed {
				return v, true
			}
		}
		return nil, false
	case Decimal:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		return v, true
	case Integer:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		return v, true
	case Boolean:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, false
		}
		return v, true
	case DateTime:
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), true
			}
		}
		return nil, false
	case Date:
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, false
		}
		return t.Format(time.DateOnly), true
	default:
		return nil, false
	}
}
