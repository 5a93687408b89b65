package listing

import (
	"fmt"
	"strings"

	"go.einride.tech/aip/ordering"
)

// OrderingParam is the query parameter selecting the listing order.
const OrderingParam = "ordering"

// Ordering is a single-key listing order.
type Ordering struct {
	Key  string
	Desc bool
}

// Param renders the ordering as a query value, "-key" for descending.
func (o Ordering) Param() string {
	if o.Desc {
		return "-" + o.Key
	}
	return o.Key
}

// IsZero reports whether no ordering is set.
func (o Ordering) IsZero() bool {
	return o.Key == ""
}

// ParseOrdering reads a "key" or "-key" query value and validates it against
// the allowed sort keys.
func ParseOrdering(raw string, allowed []string) (Ordering, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ordering{}, nil
	}
	if strings.ContainsAny(raw, " ,") {
		return Ordering{}, fmt.Errorf("ordering %q: single key expected", raw)
	}
	expr := raw
	if strings.HasPrefix(expr, "-") {
		expr = strings.TrimPrefix(expr, "-") + " desc"
	}
	var orderBy ordering.OrderBy
	if err := orderBy.UnmarshalString(expr); err != nil {
		return Ordering{}, err
	}
	if err := orderBy.ValidateForPaths(allowed...); err != nil {
		return Ordering{}, err
	}
	if len(orderBy.Fields) != 1 {
		return Ordering{}, nil
	}
	return Ordering{Key: orderBy.Fields[0].Path, Desc: orderBy.Fields[0].Desc}, nil
}

// ResolveOrdering picks the requested ordering, falling back to def when the request
// is empty or invalid.
func ResolveOrdering(raw string, allowed []string, def Ordering) Ordering {
	o, err := ParseOrdering(raw, allowed)
	if err != nil || o.IsZero() {
		return def
	}
	return o
}
