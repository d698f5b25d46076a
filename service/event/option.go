package event

import (
	"github.com/flowmesh/flowmesh/service/messaging/fs"
	"github.com/flowmesh/flowmesh/service/messaging/memory"
)

// Option customises the event service.
type Option func(s *Service)

// WithFSQueueConfig sets the filesystem queue configuration factory; the
// name argument is the stream name the queue serves.
func WithFSQueueConfig(factory func(name string) fs.Config) Option {
	return func(s *Service) { s.fsQueueConfig = factory }
}

// WithMemoryQueueConfig sets the memory queue configuration factory.
func WithMemoryQueueConfig(factory func(name string) memory.Config) Option {
	return func(s *Service) { s.memoryQueueConfig = factory }
}
