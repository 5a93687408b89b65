// Package requestctx carries per-request identity and locale through context.
package requestctx

import (
	"context"

	"golang.org/x/text/language"
)

type operatorContextKey struct{}

type localeContextKey struct{}

// WithOperator stores the id of the admin user acting on the request.
func WithOperator(ctx context.Context, operatorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, operatorContextKey{}, operatorID)
}

// OperatorFromContext returns the acting admin user id, or "".
func OperatorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(operatorContextKey{}).(string)
	return value
}

// WithLocale stores the resolved UI language.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, localeContextKey{}, tag)
}

// LocaleFromContext returns the resolved UI language, defaulting to English.
func LocaleFromContext(ctx context.Context) language.Tag {
	if ctx == nil {
		return language.English
	}
	if tag, ok := ctx.Value(localeContextKey{}).(language.Tag); ok {
		return tag
	}
	return language.English
}
