package flowmesh

import (
	"github.com/viant/x"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/flowmesh/flowmesh/handoff"
	"github.com/flowmesh/flowmesh/policy"
	"github.com/flowmesh/flowmesh/runtime/execution"
	"github.com/flowmesh/flowmesh/service/dao"
	"github.com/flowmesh/flowmesh/service/event"
	"github.com/flowmesh/flowmesh/tracing"
)

// Option customises the Service façade.
type Option func(s *Service)

// WithConfig installs a full configuration; nil is ignored.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithEventService sets the lifecycle event service.
func WithEventService(service *event.Service) Option {
	return func(s *Service) { s.eventService = service }
}

// WithRunDAO sets the run record store.
func WithRunDAO(store dao.Service[string, execution.RunRecord]) Option {
	return func(s *Service) { s.runDAO = store }
}

// WithHandoffCoordinator sets a pre-populated transfer registry.
func WithHandoffCoordinator(coordinator *handoff.Coordinator) Option {
	return func(s *Service) { s.handoffs = coordinator }
}

// WithPolicy sets the default dispatch policy applied to every run.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.defaultPolicy = p }
}

// WithExtensionTypes registers host Go types retrievable from the shared
// context via GetTyped.
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) { s.extensionTypes = append(s.extensionTypes, types...) }
}

// WithTracing configures OpenTelemetry tracing for the service. If
// outputFile is empty the stdout exporter is used; otherwise traces are
// written to the supplied file path. Safe to call multiple times – the
// first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter (OTLP, Jaeger, Zipkin, …). Safe to call multiple times – the
// first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
