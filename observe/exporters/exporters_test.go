package exporters

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestNewTracingExporter(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	tests := []struct {
		name    string
		wantErr error
	}{
		{"stdout", nil},
		{"none", nil},
		{"", nil},
		{"otlp", ErrEndpointNotConfigured},
		{"jaeger", ErrEndpointNotConfigured},
		{"zipkin", ErrUnknownExporter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := NewTracingExporter(context.Background(), tt.name, WithStdoutWriter(&bytes.Buffer{}))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewTracingExporter(%q) error = %v, want %v", tt.name, err, tt.wantErr)
			}
			if tt.wantErr == nil && exp == nil {
				t.Errorf("NewTracingExporter(%q) returned nil exporter", tt.name)
			}
		})
	}
}

func TestNewTracingExporter_OtlpWithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")

	exp, err := NewTracingExporter(context.Background(), "otlp")
	if err != nil {
		t.Fatalf("NewTracingExporter(otlp) error = %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
}

func TestNewMetricsReader(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	tests := []struct {
		name    string
		wantErr error
	}{
		{"stdout", nil},
		{"none", nil},
		{"prometheus", nil},
		{"otlp", ErrEndpointNotConfigured},
		{"badvalue", ErrUnknownExporter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewMetricsReader(context.Background(), tt.name, WithStdoutWriter(&bytes.Buffer{}))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewMetricsReader(%q) error = %v, want %v", tt.name, err, tt.wantErr)
			}
			if tt.wantErr == nil && reader == nil {
				t.Errorf("NewMetricsReader(%q) returned nil reader", tt.name)
			}
		})
	}
}
