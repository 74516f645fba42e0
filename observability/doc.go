// Package observability provides OpenTelemetry tracing and metrics for
// executed requests.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("smoke-tests"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("smoke-tests"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewClientMetrics(observability.Meter(mp))
//
// Each request execution is an Exchange: a client span named "HTTP <METHOD>"
// whose context is injected into the outbound headers, plus request count and
// duration measurements.
package observability
