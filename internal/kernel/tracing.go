package kernel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracerProviderConfig names the service for the spans the kernel emits.
type TracerProviderConfig struct {
	ServiceName        string
	ResourceAttributes map[string]string
}

// NewTracerProvider builds a local TracerProvider for the kernel's
// invocation spans. With no exporter registered, spans are sampled and
// built but not shipped anywhere — this is the right default for an
// embedded kernel until the host process wires a real exporter via
// sdktrace.WithBatcher/WithSyncer on top of the returned provider's
// configuration.
func NewTracerProvider(ctx context.Context, cfg TracerProviderConfig) (oteltrace.TracerProvider, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "govkernel"
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(name)}
	for k, v := range cfg.ResourceAttributes {
		if k == "" {
			continue
		}
		attrs = append(attrs, attribute.String(k, v))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("kernel: building trace resource: %w", err)
	}

	return sdktrace.NewTracerProvider(sdktrace.WithResource(res)), nil
}
