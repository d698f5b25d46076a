// Package memory provides an in-memory run record store.  All operations
// are thread-safe and operate on copies so callers can never race the store
// through returned instances.
package memory

import (
	"context"
	"sync"

	"github.com/flowmesh/flowmesh/runtime/execution"
	"github.com/flowmesh/flowmesh/service/dao"
)

// Service implements in-memory run record storage.
type Service struct {
	records map[string]*execution.RunRecord
	mux     sync.RWMutex
}

var _ dao.Service[string, execution.RunRecord] = (*Service)(nil)

// New creates an empty store.
func New() *Service {
	return &Service{records: map[string]*execution.RunRecord{}}
}

// Save persists a clone of the supplied record.
func (s *Service) Save(_ context.Context, record *execution.RunRecord) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.ID == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.records[record.ID] = record.Clone()
	return nil
}

// Load retrieves a copy of the record or dao.ErrNotFound.
func (s *Service) Load(_ context.Context, id string) (*execution.RunRecord, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mux.RLock()
	record, ok := s.records[id]
	s.mux.RUnlock()
	if !ok {
		return nil, dao.ErrNotFound
	}
	return record.Clone(), nil
}

// Delete removes a record.
func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.records[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// List returns copies of all records matching the optional State filter.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*execution.RunRecord, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	out := make([]*execution.RunRecord, 0, len(s.records))
	for _, record := range s.records {
		if !matches(record, parameters) {
			continue
		}
		out = append(out, record.Clone())
	}
	return out, nil
}

func matches(record *execution.RunRecord, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != "State" {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if string(record.State) != actual {
				return false
			}
		case execution.RunState:
			if record.State != actual {
				return false
			}
		case []string:
			found := false
			for _, state := range actual {
				if string(record.State) == state {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}
