package app

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

	"github.com/spheraeng/catalogue-client/internal/catalogue"
	"github.com/spheraeng/catalogue-client/internal/jsonval"
)

const catalogueBody = `{"data":[
	{"id":1,"name":"Fiber 54","tests":[
		{"collection":"EN_14651_test","item":{"fl":4.1}},
		{"collection":"ASTM_C1609_test","item":{"fr":2.3}}
	]},
	{"id":2,"name":"Fiber 60","tests":[{"collection":"ASTM_C1609_test","item":{"fr":1.9}}]},
	{"id":3,"name":"Mesh","tests":null}
]}`

func newTestApp(t *testing.T, h http.Handler) (*App, *bytes.Buffer) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	a, err := New(&Config{
		BaseURL:     srv.URL,
		Timeout:     5 * time.Second,
		Country:     "Italy",
		Statuses:    []string{catalogue.StatusAvailable, catalogue.StatusAvailableUponRequest},
		Concurrency: 2,
	}, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider(), &out)
	require.NoError(t, err)
	return a, &out
}

func decodeOutput(t *testing.T, out *bytes.Buffer) any {
	t.Helper()
	v, err := jsonval.DecodeBytes(out.Bytes())
	require.NoError(t, err)
	return v
}

func TestApp_Run_FilterByCollection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/items/global_catalogue", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(catalogueBody))
	})
	a, out := newTestApp(t, mux)

	require.NoError(t, a.Run(context.Background(), "en", ""))

	assert.Contains(t, out.String(), "\n  ", "output is indented")
	items := catalogue.Records(decodeOutput(t, out))
	require.Len(t, items, 1)
	assert.Equal(t, "Fiber 54", items[0]["name"])

	refs := catalogue.Tests(items[0])
	require.Len(t, refs, 1)
	assert.Equal(t, catalogue.CollectionEN14651, refs[0].Collection())
}

func TestApp_Run_CountryOverride(t *testing.T) {
	var filter string
	mux := http.NewServeMux()
	mux.HandleFunc("/items/availability_by_country", func(w http.ResponseWriter, r *http.Request) {
		filter = r.URL.Query().Get("filter")
		_, _ = w.Write([]byte(`[]`))
	})
	a, out := newTestApp(t, mux)

	require.NoError(t, a.Run(context.Background(), "product-tests", "United Kingdom"))
	assert.JSONEq(t, `{"availability":{"_neq":"Not Available"},"country_id":{"_eq":"United Kingdom"}}`, filter)
	assert.Equal(t, jsonval.Array{}, decodeOutput(t, out))

	out.Reset()
	require.NoError(t, a.Run(context.Background(), "product-tests", ""))
	assert.Contains(t, filter, `"Italy"`)
}

func TestApp_Run_Failure(t *testing.T) {
	a, out := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errors":[{"message":"boom"}]}`, http.StatusInternalServerError)
	}))

	err := a.Run(context.Background(), "global", "")
	require.ErrorIs(t, err, ErrReportFailed)
	assert.Empty(t, out.String())
}

func TestApp_Run_UnknownReport(t *testing.T) {
	a, _ := newTestApp(t, http.NotFoundHandler())

	err := a.Run(context.Background(), "nope", "")
	require.ErrorIs(t, err, catalogue.ErrUnknownReport)
}

func TestApp_RunAll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/items/global_catalogue", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(catalogueBody))
	})
	mux.HandleFunc("/items/availability_by_country", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	a, out := newTestApp(t, mux)

	err := a.RunAll(context.Background(), "")
	require.ErrorIs(t, err, ErrReportFailed)

	results, ok := jsonval.AsArray(decodeOutput(t, out))
	require.True(t, ok)

	var names []string
	for _, r := range results {
		obj, ok := jsonval.AsObject(r)
		require.True(t, ok)
		names = append(names, obj["report"].(string))
	}
	assert.Equal(t, []string{"global", "tests", "en", "astm"}, names)
}

func TestApp_Ping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/server/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	a, out := newTestApp(t, mux)

	require.NoError(t, a.Ping(context.Background()))
	assert.Equal(t, "pong\n", out.String())
}
