// Package app wires the catalogue client together and writes report
// results.
package app

import (
	"context"
	"io"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/spheraeng/catalogue-client/internal/catalogue"
	"github.com/spheraeng/catalogue-client/internal/directus"
	"github.com/spheraeng/catalogue-client/internal/jsonval"
)

// ErrReportFailed is returned when a report could not produce a result. The
// cause has already been logged.
var ErrReportFailed = errors.New("report failed")

// App runs catalogue reports and prints their results as indented JSON.
type App struct {
	cfg     *Config
	client  *directus.Client
	service *catalogue.Service
	runner  *catalogue.Runner
	out     io.Writer
}

// New creates all dependencies. It is the single wiring point of the client.
func New(cfg *Config, tp trace.TracerProvider, mp metric.MeterProvider, out io.Writer) (*App, error) {
	client, err := directus.NewClient(directus.Config{
		BaseURL:   cfg.BaseURL,
		Token:     cfg.Token,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	},
		directus.WithTracerProvider(tp),
		directus.WithMeterProvider(mp),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create client")
	}

	svc, err := catalogue.NewService(client, catalogue.NewStatusSet(cfg.Statuses...),
		catalogue.WithTracerProvider(tp),
		catalogue.WithMeterProvider(mp),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create service")
	}

	return &App{
		cfg:     cfg,
		client:  client,
		service: svc,
		runner:  catalogue.NewRunner(cfg.Concurrency),
		out:     out,
	}, nil
}

// DefaultCountry returns the configured country for country reports.
func (a *App) DefaultCountry() string {
	return a.cfg.Country
}

// Run executes the report called name and prints its data.
func (a *App) Run(ctx context.Context, name, country string) error {
	rep, err := catalogue.FindReport(a.service.Reports(a.country(country)), name)
	if err != nil {
		return err
	}

	res := a.runner.Run(ctx, rep)
	if !res.OK() {
		return ErrReportFailed
	}
	return writeJSON(a.out, res.Data)
}

// RunAll executes every report concurrently and prints the successful ones
// in report order as [{"report": name, "data": [...]}, ...].
func (a *App) RunAll(ctx context.Context, country string) error {
	results := a.runner.RunAll(ctx, a.service.Reports(a.country(country)))

	out := jsonval.Array{}
	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
			continue
		}
		out = append(out, jsonval.Object{
			"report": res.Report,
			"data":   res.Data,
		})
	}
	if err := writeJSON(a.out, out); err != nil {
		return err
	}
	if failed > 0 {
		return errors.Wrapf(ErrReportFailed, "%d of %d reports", failed, len(results))
	}
	return nil
}

// Ping checks connectivity with the catalogue service.
func (a *App) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		return errors.Wrap(err, "ping")
	}
	_, err := io.WriteString(a.out, "pong\n")
	return err
}

func (a *App) country(c string) string {
	if c == "" {
		return a.cfg.Country
	}
	return c
}

// writeJSON prints v as JSON indented by two spaces.
func writeJSON(w io.Writer, v any) error {
	data, err := jsonval.MarshalIndent(v, 2)
	if err != nil {
		return errors.Wrap(err, "encode result")
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "write result")
	}
	return nil
}
