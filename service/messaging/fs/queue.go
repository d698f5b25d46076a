// Package fs provides a filesystem-backed durable queue; messages survive
// process restarts, which makes it suitable for audit-grade lifecycle event
// streams.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"

	"github.com/flowmesh/flowmesh/service/messaging"
)

// Config holds the filesystem queue configuration.
type Config struct {
	// BaseURL is the root location; pending, inflight, done and dead
	// subdirectories are created under it.
	BaseURL string

	// MaxRetries bounds redeliveries before a message is dead-lettered.
	MaxRetries int
}

// DefaultConfig returns a default configuration rooted under /tmp.
func DefaultConfig() Config {
	return Config{BaseURL: "/tmp/flowmesh/queue", MaxRetries: 3}
}

// Message is one durable delivery.
type Message[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	Retries   int       `json:"retries"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	queue     *Queue[T]
	mu        sync.Mutex
	processed bool
}

// T returns the message payload.
func (m *Message[T]) T() *T { return &m.Data }

// Ack moves the message from inflight to done.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.UpdatedAt = time.Now()
	return m.queue.settle(context.Background(), m, m.queue.doneDir)
}

// Nack returns the message to pending for redelivery, or dead-letters it
// once retries are exhausted.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.Retries++
	if err != nil {
		m.Error = err.Error()
	}
	m.UpdatedAt = time.Now()

	dest := m.queue.pendingDir
	if m.Retries > m.queue.config.MaxRetries {
		dest = m.queue.deadDir
	}
	return m.queue.settle(context.Background(), m, dest)
}

// Queue implements a filesystem-based messaging.Queue.
type Queue[T any] struct {
	fs     afs.Service
	config Config

	pendingDir  string
	inflightDir string
	doneDir     string
	deadDir     string

	mu sync.Mutex
}

// NewQueue creates a filesystem queue rooted at the configured base URL.
func NewQueue[T any](fsService afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	q := &Queue[T]{
		fs:          fsService,
		config:      config,
		pendingDir:  path.Join(config.BaseURL, "pending"),
		inflightDir: path.Join(config.BaseURL, "inflight"),
		doneDir:     path.Join(config.BaseURL, "done"),
		deadDir:     path.Join(config.BaseURL, "dead"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.inflightDir, q.doneDir, q.deadDir} {
		if exists, _ := fsService.Exists(ctx, dir); !exists {
			if err := fsService.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
				return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return q, nil
}

// Publish writes a new message into the pending directory.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	message := &Message[T]{
		ID:        uuid.New().String(),
		Data:      *t,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.upload(ctx, path.Join(q.pendingDir, message.ID+".json"), data)
}

// Consume claims the oldest pending message, moving it to inflight.  A nil
// message with nil error means the queue is currently empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.fs.List(ctx, q.pendingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	var pending []storage.Object
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			pending = append(pending, obj)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	obj := pending[0]
	message, err := q.read(ctx, obj.URL())
	if err != nil {
		// Unreadable payloads go straight to the dead directory.
		_ = q.fs.Move(ctx, obj.URL(), path.Join(q.deadDir, "invalid-"+obj.Name()))
		return nil, err
	}
	message.queue = q
	message.UpdatedAt = time.Now()

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claimed message: %w", err)
	}
	if err := q.upload(ctx, path.Join(q.inflightDir, obj.Name()), data); err != nil {
		return nil, fmt.Errorf("failed to claim message: %w", err)
	}
	if err := q.fs.Delete(ctx, obj.URL()); err != nil {
		return nil, fmt.Errorf("failed to remove claimed message from pending: %w", err)
	}
	return message, nil
}

// settle rewrites the message under dest and removes it from inflight.
func (q *Queue[T]) settle(ctx context.Context, m *Message[T], dest string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	name := m.ID + ".json"
	if err := q.upload(ctx, path.Join(dest, name), data); err != nil {
		return fmt.Errorf("failed to settle message: %w", err)
	}
	inflight := path.Join(q.inflightDir, name)
	if exists, _ := q.fs.Exists(ctx, inflight); exists {
		if err := q.fs.Delete(ctx, inflight); err != nil {
			return fmt.Errorf("failed to remove inflight message: %w", err)
		}
	}
	return nil
}

func (q *Queue[T]) upload(ctx context.Context, dest string, data []byte) error {
	return q.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewBuffer(data))
}

func (q *Queue[T]) read(ctx context.Context, url string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", url, err)
	}
	var message Message[T]
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", url, err)
	}
	return &message, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
