package telemetry_test

import (
	"context"
	"testing"

	"github.com/wippyai/script-bridge/config"
	"github.com/wippyai/script-bridge/internal/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	tp, shutdown, err := telemetry.Setup(context.Background(), config.Telemetry{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected a tracer provider")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address; nothing is exported before shutdown.
	tp, shutdown, err := telemetry.Setup(context.Background(), config.Telemetry{
		Endpoint: "http://192.0.2.1:4318",
		Service:  "bridge-test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	if !span.SpanContext().IsValid() {
		t.Error("expected a sampled span")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
