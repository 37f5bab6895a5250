package catalogue

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spheraeng/catalogue-client/internal/directus"
	"github.com/spheraeng/catalogue-client/internal/jsonval"
)

// ErrUnknownReport is returned when a report name is not registered.
var ErrUnknownReport = errors.New("unknown report")

// Report is a named fetch-and-reshape cycle.
type Report struct {
	Name string
	// Op describes the operation in failure logs, e.g. "fetching EN tests".
	Op  string
	Run func(ctx context.Context) ([]jsonval.Object, error)
}

// Result is the outcome of one report: either Data or Err is meaningful.
// A successful report may legitimately return no data.
type Result struct {
	Report string
	Data   []jsonval.Object
	Err    error
}

// OK reports whether the report succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Reports lists the catalogue reports. Country-scoped reports use country.
func (s *Service) Reports(country string) []Report {
	return []Report{
		{
			Name: "global",
			Op:   "fetching global_catalogue",
			Run:  s.GlobalCatalogue,
		},
		{
			Name: "tests",
			Op:   "fetching tests",
			Run:  s.Tests,
		},
		{
			Name: "en",
			Op:   "fetching EN tests",
			Run: func(ctx context.Context) ([]jsonval.Object, error) {
				return s.TestsByCollection(ctx, CollectionEN14651)
			},
		},
		{
			Name: "astm",
			Op:   "fetching ASTM tests",
			Run: func(ctx context.Context) ([]jsonval.Object, error) {
				return s.TestsByCollection(ctx, CollectionASTMC1609)
			},
		},
		{
			Name: "available-tests",
			Op:   "fetching available tests",
			Run: func(ctx context.Context) ([]jsonval.Object, error) {
				return s.AvailableTestsByCountry(ctx, country)
			},
		},
		{
			Name: "astm-by-country",
			Op:   "fetching ASTM C1609 tests by country",
			Run: func(ctx context.Context) ([]jsonval.Object, error) {
				return s.TestsByCountry(ctx, country, RelationASTMC1609)
			},
		},
		{
			Name: "products-by-country",
			Op:   "fetching products and tests",
			Run: func(ctx context.Context) ([]jsonval.Object, error) {
				return s.ProductsAndTestsByCountry(ctx, country)
			},
		},
		{
			Name: "basic",
			Op:   "during basic fetch",
			Run:  s.BasicProducts,
		},
		{
			Name: "detailed",
			Op:   "fetching products with tests",
			Run:  s.DetailedProducts,
		},
		{
			Name: "product-tests",
			Op:   "fetching product tests",
			Run: func(ctx context.Context) ([]jsonval.Object, error) {
				return s.ProductTests(ctx, country)
			},
		},
	}
}

// FindReport returns the report called name.
func FindReport(reports []Report, name string) (Report, error) {
	for _, r := range reports {
		if r.Name == name {
			return r, nil
		}
	}
	return Report{}, errors.Wrap(ErrUnknownReport, name)
}

// Runner executes reports inside an error boundary: a failing or panicking
// report is logged and turned into a failed Result.
type Runner struct {
	limit int
}

// NewRunner returns a Runner executing at most limit reports at a time in
// RunAll. A non-positive limit means no limit.
func NewRunner(limit int) *Runner {
	return &Runner{limit: limit}
}

// Run executes one report.
func (r *Runner) Run(ctx context.Context, rep Report) (res Result) {
	res.Report = rep.Name
	defer func() {
		if rec := recover(); rec != nil {
			res.Data = nil
			res.Err = errors.Errorf("panic: %v", rec)
			zctx.From(ctx).Error("Panic recovered",
				zap.String("report", rep.Name),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
		}
	}()

	data, err := rep.Run(ctx)
	if err != nil {
		logFailure(ctx, rep, err)
		res.Err = err
		return res
	}
	if data == nil {
		data = []jsonval.Object{}
	}
	res.Data = data
	return res
}

// RunAll executes reports concurrently and returns their results in the
// order of reports. Reports share no state, so one failure does not affect
// the others.
func (r *Runner) RunAll(ctx context.Context, reports []Report) []Result {
	results := make([]Result, len(reports))

	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for i, rep := range reports {
		g.Go(func() error {
			results[i] = r.Run(ctx, rep)
			return nil
		})
	}
	// Failures are carried in results; the goroutines always return nil.
	_ = g.Wait()

	return results
}

func logFailure(ctx context.Context, rep Report, err error) {
	fields := []zap.Field{
		zap.String("report", rep.Name),
		zap.Error(err),
	}
	if te, ok := directus.AsTransportError(err); ok {
		if te.Status != 0 {
			fields = append(fields, zap.Int("status", te.Status))
		}
		if len(te.Body) > 0 {
			fields = append(fields, zap.ByteString("body", te.Body))
		}
	}
	zctx.From(ctx).Error("Error "+rep.Op, fields...)
}
