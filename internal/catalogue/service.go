package catalogue

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spheraeng/catalogue-client/internal/jsonval"
	"github.com/spheraeng/catalogue-client/internal/query"
)

const instrumentationName = "github.com/spheraeng/catalogue-client/internal/catalogue"

// Fetcher executes a read request and returns the unwrapped response.
type Fetcher interface {
	Execute(ctx context.Context, r query.Request) (any, error)
}

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures a Service.
type Option func(*options)

// WithTracerProvider sets the tracer provider used for fetch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider used for fetch metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// Service runs the catalogue queries. Every call is an independent
// fetch-and-reshape cycle; a Service holds no mutable state.
type Service struct {
	fetcher  Fetcher
	statuses StatusSet

	tracer   trace.Tracer
	fetches  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewService creates a Service. statuses is the set of availability
// statuses that count as "available" in country reports.
func NewService(f Fetcher, statuses StatusSet, opts ...Option) (*Service, error) {
	o := options{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	fetches, err := meter.Int64Counter("catalogue.fetch.count",
		metric.WithDescription("Number of catalogue fetches"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create fetch counter")
	}
	duration, err := meter.Float64Histogram("catalogue.fetch.duration",
		metric.WithDescription("Duration of catalogue fetches"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create fetch duration histogram")
	}

	return &Service{
		fetcher:  f,
		statuses: statuses,
		tracer:   o.tracerProvider.Tracer(instrumentationName),
		fetches:  fetches,
		duration: duration,
	}, nil
}

func (s *Service) fetch(ctx context.Context, r query.Request) (_ []jsonval.Object, rerr error) {
	ctx, span := s.tracer.Start(ctx, "catalogue.fetch",
		trace.WithAttributes(attribute.String("catalogue.collection", r.Collection)),
	)
	start := time.Now()
	defer func() {
		outcome := "ok"
		if rerr != nil {
			outcome = "error"
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		attrs := metric.WithAttributes(
			attribute.String("collection", r.Collection),
			attribute.String("outcome", outcome),
		)
		s.fetches.Add(ctx, 1, attrs)
		s.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		span.End()
	}()

	v, err := s.fetcher.Execute(ctx, r)
	if err != nil {
		return nil, err
	}
	records := Records(v)

	zctx.From(ctx).Debug("Fetched",
		zap.String("collection", r.Collection),
		zap.Int("records", len(records)),
		zap.Duration("took", time.Since(start)),
	)
	return records, nil
}

// GlobalCatalogue returns every catalogue item with its test references.
func (s *Service) GlobalCatalogue(ctx context.Context) ([]jsonval.Object, error) {
	return s.fetch(ctx, query.Request{
		Collection: GlobalCatalogue,
		Fields:     []query.Field{query.All, query.Nested("tests", query.All)},
	})
}

// Tests returns catalogue items that have test references, with each
// reference's collection and payload.
func (s *Service) Tests(ctx context.Context) ([]jsonval.Object, error) {
	return s.fetch(ctx, query.Request{
		Collection: GlobalCatalogue,
		Fields: []query.Field{
			query.All,
			query.Nested("tests", query.Path("item.*"), query.Path("collection")),
		},
		Filter: query.Filter{"tests": query.NotNull()},
	})
}

// TestsByCollection returns catalogue items restricted to the test
// references of one collection, e.g. CollectionEN14651.
func (s *Service) TestsByCollection(ctx context.Context, discriminator string) ([]jsonval.Object, error) {
	items, err := s.Tests(ctx)
	if err != nil {
		return nil, err
	}
	return FilterTestsByCollection(items, discriminator), nil
}

// AvailableTestsByCountry returns the availability entries of a country
// with their tests and products.
func (s *Service) AvailableTestsByCountry(ctx context.Context, country string) ([]jsonval.Object, error) {
	return s.fetch(ctx, query.Request{
		Collection: AvailabilityByCountry,
		Fields:     []query.Field{query.All, query.Path("tests.*"), query.Path("product.*")},
		Filter:     query.Filter{"country_id": query.Eq(country)},
	})
}

// TestsByCountry returns the products available in country together with
// the payloads of their tests stored under relation, e.g. RelationASTMC1609.
func (s *Service) TestsByCountry(ctx context.Context, country, relation string) ([]jsonval.Object, error) {
	records, err := s.fetch(ctx, query.Request{
		Collection: AvailabilityByCountry,
		Fields: []query.Field{
			query.Path("country_id"),
			query.Path("availability"),
			query.Nested("product",
				query.All,
				query.Nested("tests", query.All, query.Nested(relation)),
			),
		},
		Filter: query.Filter{
			"country_id":               query.Eq(country),
			"availability":             query.In(s.statuses.Values()...),
			"product.tests.collection": query.Eq(relation),
		},
	})
	if err != nil {
		return nil, err
	}
	return ProjectAvailableProducts(records, country, s.statuses), nil
}

// ProductsAndTestsByCountry returns the products available in country with
// their EN 14651 and ASTM C1609 test data.
func (s *Service) ProductsAndTestsByCountry(ctx context.Context, country string) ([]jsonval.Object, error) {
	return s.fetch(ctx, query.Request{
		Collection: AvailabilityByCountry,
		Fields: []query.Field{
			query.Nested("product",
				query.Path("id"),
				query.Path("name"),
				query.Nested("tests",
					query.Path("id"),
					query.Nested(RelationASTMC1609),
					query.Nested(RelationEN14651),
				),
			),
		},
		Filter: query.Filter{
			"country_id":   query.Eq(country),
			"availability": query.In(s.statuses.Values()...),
		},
	})
}

// BasicProducts returns product identifiers and names of every
// availability entry.
func (s *Service) BasicProducts(ctx context.Context) ([]jsonval.Object, error) {
	return s.fetch(ctx, query.Request{
		Collection: AvailabilityByCountry,
		Fields:     []query.Field{query.Path("product.id"), query.Path("product.name")},
	})
}

// DetailedProducts returns products that are not marked unavailable, with
// their full test data.
func (s *Service) DetailedProducts(ctx context.Context) ([]jsonval.Object, error) {
	return s.fetch(ctx, query.Request{
		Collection: AvailabilityByCountry,
		Fields: []query.Field{
			query.Nested("product",
				query.Path("id"),
				query.Path("name"),
				query.Path("material"),
				query.Nested("tests",
					query.Path("id"),
					query.Path("collection"),
					query.Path("item"),
					query.Path("item.*"),
				),
			),
		},
		Filter: query.Filter{"availability": query.Neq(StatusNotAvailable)},
	})
}

// ProductTests returns, for country, the names of products not marked
// unavailable with their test collections and payloads.
func (s *Service) ProductTests(ctx context.Context, country string) ([]jsonval.Object, error) {
	return s.fetch(ctx, query.Request{
		Collection: AvailabilityByCountry,
		Fields: []query.Field{
			query.Path("product.name"),
			query.Path("product.tests.collection"),
			query.Path("product.tests.item.*"),
		},
		Filter: query.Filter{
			"availability": query.Neq(StatusNotAvailable),
			"country_id":   query.Eq(country),
		},
	})
}
