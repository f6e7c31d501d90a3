// Package marketplace holds the transactional core of the marketplace:
// cart maintenance, checkout, the auction lifecycle and catalog management.
// It talks only to store.Store; notifications and AI calls stay in the
// handlers layer.
package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

var tracer = otel.Tracer("github.com/01moynul/artisansloom-golang/internal/marketplace")

// Service runs marketplace operations against a store.
type Service struct {
	store store.Store
	now   func() time.Time
	newID func() string
	log   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests around auction end times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID generator used for new documents.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New creates a Service on top of st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   time.Now,
		newID: uuid.NewString,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// classify turns a store failure into a client-facing error. Typed errors
// raised inside a transaction pass through untouched.
func classify(op string, err error, notFound string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, store.ErrNotFound) && notFound != "" {
		return apperrors.NotFound(op, "%s", notFound)
	}
	return apperrors.Internal(op, err)
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}
