package kernel

import (
	"context"
	"testing"
)

func TestNewTracerProviderProducesWorkingTracer(t *testing.T) {
	provider, err := NewTracerProvider(context.Background(), TracerProviderConfig{
		ServiceName:        "govkernel-test",
		ResourceAttributes: map[string]string{"env": "test"},
	})
	if err != nil {
		t.Fatalf("NewTracerProvider failed: %v", err)
	}

	tracer := provider.Tracer("test")
	_, span := tracer.Start(context.Background(), "unit-test-span")
	span.End()
}
