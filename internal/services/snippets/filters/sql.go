package filters

import (
	"fmt"
	"time"

	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// SQLCondition is a WHERE clause fragment with positional parameters.
type SQLCondition struct {
	Clause string
	Params []any
}

// And joins non-empty conditions with AND.
func And(conds ...SQLCondition) SQLCondition {
	var out SQLCondition
	for _, c := range conds {
		if c.Clause == "" {
			continue
		}
		if out.Clause == "" {
			out = SQLCondition{Clause: c.Clause, Params: append([]any(nil), c.Params...)}
			continue
		}
		out.Clause = fmt.Sprintf("(%s AND %s)", out.Clause, c.Clause)
		out.Params = append(out.Params, c.Params...)
	}
	return out
}

func translateExpr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(kind.CallExpr)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func translateCall(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case "AND":
		return translateJunction(call.Args, "AND")
	case "OR":
		return translateJunction(call.Args, "OR")
	case "=", "!=", "<", "<=", ">", ">=":
		return translateComparison(call.Args, call.Function)
	case ":":
		return translateHas(call.Args)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateJunction(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}
	left, err := translateExpr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	right, err := translateExpr(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	column, err := extractColumn(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func translateHas(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("has requires 2 arguments")
	}
	column, err := extractColumn(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	s, ok := value.(string)
	if !ok {
		return SQLCondition{}, fmt.Errorf("has expects a string, got %T", value)
	}
	return SQLCondition{
		Clause: fmt.Sprintf("instr(%s, ?) > 0", column),
		Params: []any{s},
	}, nil
}

// extractColumn maps a declared identifier to its quoted column name.
func extractColumn(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return `"` + kind.IdentExpr.Name + `"`, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			return extractTimestampValue(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}
	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

// extractTimestampValue returns the timestamp in the stored column format.
func extractTimestampValue(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil timestamp argument")
	}
	c, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return "", fmt.Errorf("timestamp argument must be a constant string")
	}
	s, ok := c.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return "", fmt.Errorf("timestamp argument must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, s.StringValue)
	if err != nil {
		return "", fmt.Errorf("invalid timestamp format: %s", s.StringValue)
	}
	return model.FormatTime(t), nil
}
