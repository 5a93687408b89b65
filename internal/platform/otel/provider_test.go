package otel_test

import (
	"context"
	"testing"

	"github.com/scantist-ossops-m2/wagtail/internal/platform/otel"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		enabled  string
	}{
		{name: "no endpoint"},
		{name: "explicitly disabled", endpoint: "http://localhost:4318", enabled: "false"},
		// 192.0.2.0/24 is reserved for documentation; nothing is exported.
		{name: "endpoint set", endpoint: "http://192.0.2.1:4318"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SNIPPETS_OTEL_ENDPOINT", tc.endpoint)
			t.Setenv("SNIPPETS_OTEL_ENABLED", tc.enabled)

			shutdown, err := otel.Setup(context.Background(), "snippets-test")
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown: %v", err)
			}
		})
	}
}
