package requestctx

import (
	"context"
	"testing"

	"golang.org/x/text/language"
)

func TestOperatorRoundTrip(t *testing.T) {
	ctx := WithOperator(context.Background(), "admin")
	if got := OperatorFromContext(ctx); got != "admin" {
		t.Fatalf("OperatorFromContext = %q, want %q", got, "admin")
	}
	if got := OperatorFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty operator, got %q", got)
	}
	//nolint:staticcheck // nil context is part of the contract.
	if got := OperatorFromContext(nil); got != "" {
		t.Fatalf("expected empty operator for nil context, got %q", got)
	}
}

func TestLocaleRoundTrip(t *testing.T) {
	ptBR := language.MustParse("pt-BR")
	ctx := WithLocale(context.Background(), ptBR)
	if got := LocaleFromContext(ctx); got != ptBR {
		t.Fatalf("LocaleFromContext = %s, want %s", got, ptBR)
	}
	if got := LocaleFromContext(context.Background()); got != language.English {
		t.Fatalf("default locale = %s", got)
	}
}

func TestWithOperatorNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract.
	ctx := WithOperator(nil, "admin")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
}
