package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	appkg "github.com/spheraeng/catalogue-client/internal/app"
)

func newTestRoot(t *testing.T, h http.Handler) (*bytes.Buffer, func(args ...string) error) {
	out, _, run := newTestApp(t, h)
	return out, run
}

func newTestApp(t *testing.T, h http.Handler) (*bytes.Buffer, *appkg.App, func(args ...string) error) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	a, err := appkg.New(&appkg.Config{
		BaseURL:  srv.URL,
		Timeout:  5 * time.Second,
		Country:  "Italy",
		Statuses: []string{"Available", "Available Upon Request"},
	}, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider(), &out)
	require.NoError(t, err)

	return &out, a, func(args ...string) error {
		root := newRootCommand(a)
		if args == nil {
			args = []string{}
		}
		root.SetArgs(args)
		root.SetOut(&bytes.Buffer{})
		return root.ExecuteContext(context.Background())
	}
}

func TestRootCommand_ReportCommands(t *testing.T) {
	_, a, run := newTestApp(t, http.NotFoundHandler())
	root := newRootCommand(a)

	for _, rc := range reportCommands {
		cmd, _, err := root.Find([]string{rc.name})
		require.NoError(t, err, rc.name)
		assert.Equal(t, rc.name, cmd.Name())
	}

	require.Error(t, run("global", "extra"), "non-country reports take no arguments")
}

func TestRootCommand_CountryArgument(t *testing.T) {
	var filter string
	out, run := newTestRoot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter = r.URL.Query().Get("filter")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	require.NoError(t, run("available-tests", "United Kingdom"))
	assert.JSONEq(t, `{"country_id":{"_eq":"United Kingdom"}}`, filter)
	assert.Equal(t, "[]\n", out.String())

	require.NoError(t, run("available-tests"))
	assert.JSONEq(t, `{"country_id":{"_eq":"Italy"}}`, filter)
}

func TestRootCommand_Ping(t *testing.T) {
	out, run := newTestRoot(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))

	require.NoError(t, run("ping"))
	assert.Equal(t, "pong\n", out.String())
}

func TestRootCommand_DefaultReport(t *testing.T) {
	var path, filter string
	_, run := newTestRoot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		filter = r.URL.Query().Get("filter")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	require.NoError(t, run())
	assert.Equal(t, "/items/availability_by_country", path)
	assert.JSONEq(t, `{"availability":{"_neq":"Not Available"},"country_id":{"_eq":"Italy"}}`, filter)

	require.Error(t, run("no-such-report"))
}
