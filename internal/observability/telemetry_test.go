package observability_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/canonical/dotnet-launcher/internal/observability"
)

type testPropagator struct{}

func (testPropagator) Inject(context.Context, propagation.TextMapCarrier) {}

func (testPropagator) Extract(ctx context.Context, _ propagation.TextMapCarrier) context.Context {
	return ctx
}

func (testPropagator) Fields() []string { return nil }

type testErrorHandler struct{}

func (testErrorHandler) Handle(error) {}

// installSentinels replaces the otel globals and restores the originals on cleanup.
func installSentinels(t *testing.T) *sdktrace.TracerProvider {
	t.Helper()

	origTP := otel.GetTracerProvider()
	origPropagator := otel.GetTextMapPropagator()
	origErrorHandler := otel.GetErrorHandler()

	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		otel.SetTextMapPropagator(origPropagator)
		otel.SetErrorHandler(origErrorHandler)
	})

	sentinelTP := sdktrace.NewTracerProvider()

	t.Cleanup(func() {
		_ = sentinelTP.Shutdown(context.Background())
	})

	otel.SetTracerProvider(sentinelTP)
	otel.SetTextMapPropagator(testPropagator{})
	otel.SetErrorHandler(testErrorHandler{})

	return sentinelTP
}

func assertGlobalsRestored(t *testing.T, sentinelTP *sdktrace.TracerProvider) {
	t.Helper()

	if got := otel.GetTracerProvider(); got != sentinelTP {
		t.Fatal("tracer provider not restored")
	}

	if _, ok := otel.GetTextMapPropagator().(testPropagator); !ok {
		t.Fatal("propagator not restored")
	}

	if _, ok := otel.GetErrorHandler().(testErrorHandler); !ok {
		t.Fatal("error handler not restored")
	}
}

func TestSetupTelemetry_Disabled(t *testing.T) {
	sentinelTP := installSentinels(t)

	shutdown, err := observability.SetupTelemetry(t.Context(), &observability.TelemetryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := shutdown(t.Context()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}

	assertGlobalsRestored(t, sentinelTP)
}

func TestSetupTelemetry_NilConfig(t *testing.T) {
	shutdown, err := observability.SetupTelemetry(t.Context(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := shutdown(t.Context()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupTelemetry_EnabledRestoresOnShutdown(t *testing.T) {
	sentinelTP := installSentinels(t)

	shutdown, err := observability.SetupTelemetry(t.Context(), &observability.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "localhost:4318",
		ServiceName: "dotnet-launcher-test",
		Version:     "0.0.1",
		Commit:      "abc123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tp := otel.GetTracerProvider()
	if _, isNoop := tp.(*noop.TracerProvider); isNoop {
		t.Fatal("expected real TracerProvider, got noop")
	}

	if tp == sentinelTP {
		t.Fatal("expected setup to replace tracer provider")
	}

	// A canceled context may make the flush fail; globals must come back regardless.
	canceledCtx, cancel := context.WithCancel(t.Context())
	cancel()

	_ = shutdown(canceledCtx)

	assertGlobalsRestored(t, sentinelTP)
}

func TestStartStep_RecordsExitCode(t *testing.T) {
	installSentinels(t)

	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	_, ok := observability.StartStep(t.Context(), "bootstrap", attribute.String("snap", "dotnet-manifest"))
	observability.EndStep(ok, 0, nil)

	_, failed := observability.StartStep(t.Context(), "spawn")
	observability.EndStep(failed, 77, nil)

	_, broken := observability.StartStep(t.Context(), "spawn")
	observability.EndStep(broken, -1, errors.New("exec: not found"))

	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("ended spans = %d, want 3", len(spans))
	}

	if spans[0].Name() != "launcher.bootstrap" || spans[0].Status().Code != codes.Ok {
		t.Errorf("span[0] = %s/%v", spans[0].Name(), spans[0].Status().Code)
	}

	if spans[1].Status().Code != codes.Error {
		t.Errorf("span[1] status = %v, want Error", spans[1].Status().Code)
	}

	if len(spans[2].Events()) == 0 {
		t.Error("span[2] has no recorded error event")
	}
}

func TestIsTelemetryEnabled(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     bool
	}{
		{"empty", "", false},
		{"true", "true", true},
		{"TRUE", "TRUE", true},
		{"1", "1", true},
		{"yes", "yes", true},
		{"false", "false", false},
		{"random", "random", false},
		{"whitespace true", "  true  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_ENABLED", tt.envValue)

			if got := observability.IsTelemetryEnabled(); got != tt.want {
				t.Errorf("IsTelemetryEnabled() = %v, want %v (env=%q)", got, tt.want, tt.envValue)
			}
		})
	}
}
