package mock

import (
	"context"
	"sync"

	"github.com/mkmemoportal/auth-gateway/internal/params"
)

type Source struct {
	mu     sync.Mutex
	values map[string]string
	err    error
	calls  int
}

var _ params.Source = (*Source)(nil)

type SourceOption func(*Source)

func WithParameter(name, value string) SourceOption {
	return func(s *Source) {
		s.values[name] = value
	}
}

func WithError(err error) SourceOption {
	return func(s *Source) {
		s.err = err
	}
}

func NewInMemSource(opts ...SourceOption) *Source {
	s := &Source{values: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Source) GetParameters(_ context.Context, names []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return nil, s.err
	}

	out := make(map[string]string, len(names))
	for _, name := range names {
		if v, ok := s.values[name]; ok {
			out[name] = v
		}
	}

	return out, nil
}

// SetError changes the error returned by subsequent lookups.
func (s *Source) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls reports how many lookups were made.
func (s *Source) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
