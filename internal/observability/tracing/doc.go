// Package tracing wires OpenTelemetry into the service.
//
// Init installs an SDK tracer provider with a ratio sampler. Middleware opens
// a server span per HTTP request, and StartSpan opens child spans around feed
// fetches. No exporter is configured: the trace id is what matters here, and
// it is carried into request logs and the X-Trace-Id response header.
//
//	tp := tracing.Init(tracing.Config{ServiceName: "threatfeed", SampleRatio: 1})
//	defer func() { _ = tp.Shutdown(context.Background()) }()
//
//	handler := tracing.Middleware(mux)
package tracing
