// Package inference serves routine recommendations from a persisted bundle.
// It never fits anything; every failure crosses its boundary as an
// *InferenceError.
package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/bundle"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/logging"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/metrics"
)

// Loader yields a complete bundle, e.g. *store.Store.
type Loader interface {
	Load(ctx context.Context) (*bundle.Bundle, error)
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records prediction and bundle load metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// Service owns one cached, read-only bundle.
type Service struct {
	loader  Loader
	metrics *metrics.Metrics
	log     zerolog.Logger

	mu     sync.Mutex
	bundle *bundle.Bundle
}

// NewService returns a service that loads its bundle from loader on Init or
// on the first Predict.
func NewService(loader Loader, opts ...Option) *Service {
	s := &Service{loader: loader, log: logging.With().Str("component", "inference").Logger()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewServiceWithBundle serves an already trained bundle.
func NewServiceWithBundle(b *bundle.Bundle, opts ...Option) (*Service, error) {
	if err := b.Validate(); err != nil {
		return nil, classify(err)
	}
	s := NewService(nil, opts...)
	s.bundle = b
	return s, nil
}

// Init loads the bundle if it is not cached yet. A failed load is not cached.
func (s *Service) Init(ctx context.Context) error {
	_, err := s.current(ctx)
	return err
}

func (s *Service) current(ctx context.Context) (*bundle.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bundle != nil {
		return s.bundle, nil
	}
	if s.loader == nil {
		return nil, &InferenceError{Kind: KindBundleNotFound, Err: errors.New("no bundle loader configured")}
	}

	b, err := s.loader.Load(ctx)
	if err == nil {
		err = b.Validate()
	}
	s.metrics.ObserveBundleLoad(err)
	if err != nil {
		ie := classify(err)
		s.log.Error().Err(err).Str("kind", string(ie.Kind)).Msg("model bundle load failed")
		return nil, ie
	}
	s.bundle = b
	s.log.Info().Str("bundle_id", b.ID).Time("created_at", b.CreatedAt).Msg("model bundle ready")
	return b, nil
}

// BundleID returns the ID of the cached bundle, or "" before Init.
func (s *Service) BundleID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bundle == nil {
		return ""
	}
	return s.bundle.ID
}

// Predict returns the recommended routine for in.
func (s *Service) Predict(ctx context.Context, in Input) (label string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			label = ""
			err = &InferenceError{Kind: KindInternal, Err: fmt.Errorf("panic: %v", r)}
		}
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
			s.log.Debug().Err(err).Str("kind", string(KindOf(err))).Msg("prediction rejected")
		}
		s.metrics.ObservePrediction(outcome, time.Since(start))
	}()

	if err := in.Validate(); err != nil {
		return "", err
	}
	b, err := s.current(ctx)
	if err != nil {
		return "", err
	}
	label, err = b.Predict(in.Features())
	if err != nil {
		return "", classify(err)
	}
	return label, nil
}

// Choices returns the fitted categories of a categorical column, in code order.
func (s *Service) Choices(ctx context.Context, column string) ([]string, error) {
	b, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	choices, err := b.Choices(column)
	if err != nil {
		return nil, &InferenceError{Kind: KindInvalidInput, Field: column, Err: err}
	}
	return choices, nil
}
