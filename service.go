package flowmesh

import (
	"log"

	"github.com/viant/x"

	"github.com/flowmesh/flowmesh/extension"
	"github.com/flowmesh/flowmesh/handoff"
	"github.com/flowmesh/flowmesh/policy"
	"github.com/flowmesh/flowmesh/runtime/execution"
	"github.com/flowmesh/flowmesh/service/dao"
	rmemory "github.com/flowmesh/flowmesh/service/dao/run/memory"
	"github.com/flowmesh/flowmesh/service/event"
	"github.com/flowmesh/flowmesh/service/messaging"
	"github.com/flowmesh/flowmesh/service/messaging/fs"
	"github.com/flowmesh/flowmesh/tracing"
)

// Service is the engine façade wiring the runtime, the handoff registry,
// lifecycle events, run records and extension types together.
type Service struct {
	config         *Config
	runtime        *Runtime
	handoffs       *handoff.Coordinator
	eventService   *event.Service
	runDAO         dao.Service[string, execution.RunRecord]
	defaultPolicy  *policy.Policy
	types          *extension.Types
	extensionTypes []*x.Type
}

// New creates a fully wired service; missing collaborators get in-memory
// defaults.
func New(options ...Option) *Service {
	ret := &Service{runtime: &Runtime{}}
	ret.init(options)
	return ret
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()

	s.runtime.runDAO = s.runDAO
	s.runtime.eventService = s.eventService
	s.runtime.defaultPolicy = s.defaultPolicy
	s.runtime.types = s.types
	s.runtime.defaultTimeout = s.config.Runtime.DefaultTimeout.Std()
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.defaultPolicy == nil && s.config.Policy != nil {
		s.defaultPolicy = policy.FromConfig(s.config.Policy)
	}
	if s.config.Tracing.Enabled {
		if err := tracing.Init(s.config.Tracing.ServiceName, s.config.Tracing.Version, s.config.Tracing.OutputFile); err != nil {
			log.Printf("[flowmesh] tracing init failed: %v", err)
		}
	}
	if s.eventService == nil {
		vendor := messaging.Vendor(s.config.Events.Vendor)
		if vendor == "" {
			vendor = messaging.VendorMemory
		}
		var opts []event.Option
		if vendor == messaging.VendorFS {
			baseURL := s.config.Events.FSBaseURL
			opts = append(opts, event.WithFSQueueConfig(func(name string) fs.Config {
				return fs.Config{BaseURL: baseURL + "/" + name, MaxRetries: 3}
			}))
		}
		eventService, err := event.New(vendor, opts...)
		if err != nil {
			log.Printf("[flowmesh] event service init failed, falling back to memory: %v", err)
			eventService, _ = event.New(messaging.VendorMemory)
		}
		s.eventService = eventService
	}
	if s.runDAO == nil {
		s.runDAO = rmemory.New()
	}
	if s.handoffs == nil {
		s.handoffs = handoff.NewCoordinator()
	}
	if s.types == nil {
		s.types = extension.NewTypes()
	}
	for _, aType := range s.extensionTypes {
		s.types.Register(aType)
	}
}

// RegisterExtensionTypes adds host Go types to the shared registry.
func (s *Service) RegisterExtensionTypes(types ...*x.Type) {
	for i := range types {
		s.types.Register(types[i])
	}
}

// Runtime returns the run executor.
func (s *Service) Runtime() *Runtime { return s.runtime }

// Handoffs returns the transfer registry.
func (s *Service) Handoffs() *handoff.Coordinator { return s.handoffs }

// Events returns the lifecycle event service.
func (s *Service) Events() *event.Service { return s.eventService }

// Types returns the extension type registry.
func (s *Service) Types() *extension.Types { return s.types }

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// Shutdown stops background collaborators.
func (s *Service) Shutdown() {
	if s.eventService != nil {
		s.eventService.Shutdown()
	}
}
