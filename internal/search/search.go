// Package search compiles client-supplied filter directives into a
// validated query plan over the items table. Validation is fail-closed: any
// unknown column or disallowed value fails the whole request and no query
// runs.
package search

import (
	"fmt"
	"strings"

	"github.com/rebornapp/reborn-golang/internal/models"
)

// Directive is one element of a search request's "filters" array. A single
// directive may carry a predicate (column + value, or column "price" with
// min/max bounds) and an ordering instruction (orderBy + optional order) at
// the same time; both are applied.
type Directive struct {
	Column  string   `json:"column"`
	Value   any      `json:"value"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	OrderBy string   `json:"orderBy"`
	Order   string   `json:"order"`
}

type Op string

const (
	OpEq       Op = "="
	OpNotEq    Op = "<>"
	OpGte      Op = ">="
	OpLte      Op = "<="
	OpContains Op = "contains"
)

type Predicate struct {
	Column string
	Op     Op
	Value  any
}

type Order struct {
	Column string
	Desc   bool
}

// Plan is the validated output: predicates are conjoined in order, orders
// are successive sort keys. The first predicate is always the sold-item
// exclusion; user filters can narrow it but never undo it.
type Plan struct {
	Predicates []Predicate
	Orders     []Order
}

// Compile validates directives against the item column whitelist and builds
// a Plan. The returned error message is safe to show to the client.
func Compile(directives []Directive) (*Plan, error) {
	plan := &Plan{
		Predicates: []Predicate{{Column: "state", Op: OpNotEq, Value: string(models.ItemStateSold)}},
	}

	for _, d := range directives {
		hasPredicate := d.Column != ""
		hasOrder := d.OrderBy != ""
		if !hasPredicate && !hasOrder {
			return nil, fmt.Errorf("invalid filter directive")
		}

		if hasPredicate {
			if err := compilePredicate(plan, d); err != nil {
				return nil, err
			}
		}

		if hasOrder {
			if !models.SearchableItemColumns[d.OrderBy] {
				return nil, fmt.Errorf("Column '%s' is not searchable", d.OrderBy)
			}
			plan.Orders = append(plan.Orders, Order{
				Column: d.OrderBy,
				Desc:   strings.EqualFold(d.Order, "desc"),
			})
		}
	}

	return plan, nil
}

func compilePredicate(plan *Plan, d Directive) error {
	switch d.Column {
	case "price":
		if d.Min == nil && d.Max == nil {
			return fmt.Errorf("price filter requires a min or max bound")
		}
		if d.Min != nil {
			plan.Predicates = append(plan.Predicates, Predicate{Column: "price", Op: OpGte, Value: *d.Min})
		}
		if d.Max != nil {
			plan.Predicates = append(plan.Predicates, Predicate{Column: "price", Op: OpLte, Value: *d.Max})
		}
		return nil

	case "title", "name":
		s, ok := d.Value.(string)
		if !ok || s == "" {
			return fmt.Errorf("Column 'title' requires a text value")
		}
		plan.Predicates = append(plan.Predicates, Predicate{Column: "title", Op: OpContains, Value: s})
		return nil

	default:
		if !models.SearchableItemColumns[d.Column] {
			return fmt.Errorf("Column '%s' is not searchable", d.Column)
		}
		value, ok := scalarValue(d.Value)
		if !ok {
			return fmt.Errorf("Column '%s' requires a scalar value", d.Column)
		}
		if d.Column == "state" && value == string(models.ItemStateSold) {
			return fmt.Errorf("Column '%s' cannot be used to search for sold items", d.Column)
		}
		plan.Predicates = append(plan.Predicates, Predicate{Column: d.Column, Op: OpEq, Value: value})
		return nil
	}
}

// scalarValue narrows a decoded JSON value to the types a predicate may
// compare against. Objects, arrays and null fail closed.
func scalarValue(v any) (any, bool) {
	switch value := v.(type) {
	case string:
		return value, true
	case float64:
		return value, true
	case bool:
		return value, true
	default:
		return nil, false
	}
}
