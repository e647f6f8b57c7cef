package main

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_table_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_table_similarity/internal/config"
	"github.com/baditaflorin/go_table_similarity/pkg/teds"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	log := logger.NewNopLogger()
	full, err := teds.New(teds.WithPortsLogger(log))
	require.NoError(t, err)
	structure, err := teds.NewStructure(teds.WithPortsLogger(log))
	require.NoError(t, err)
	return newServer(full, structure, log, prometheus.NewRegistry(), 2)
}

func do(s *server, method, path, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	ctx.Request.SetBodyString(body)
	s.requestHandler(&ctx)
	return &ctx
}

func TestHealth(t *testing.T) {
	ctx := do(newTestServer(t), fasthttp.MethodGet, "/health", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"status":"ok"`)
}

func TestScoreEndpoints(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"predicted": "<table><tr><td>a</td><td>b</td></tr></table>",
		"groundtruth": "<table><tr><td>a</td><td>c</td></tr></table>",
		"table_edit": {"success": true}
	}`

	var full Response
	ctx := do(s, fasthttp.MethodPost, "/teds", body)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &full))
	assert.Equal(t, "teds", full.Name)
	assert.InDelta(t, 0.75, full.Score, 1e-9)

	var structure Response
	ctx = do(s, fasthttp.MethodPost, "/s-teds", body)
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &structure))
	assert.Equal(t, "s_teds", structure.Name)
	assert.Equal(t, 1.0, structure.Score)
}

func TestScoreAcceptsRowsAndReportsPrerequisiteFailure(t *testing.T) {
	s := newTestServer(t)

	var rows Response
	ctx := do(s, fasthttp.MethodPost, "/teds", `{"predicted": [["a","b"]], "groundtruth": "<table><tr><td>a</td><td>b</td></tr></table>"}`)
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &rows))
	assert.Equal(t, 1.0, rows.Score)

	var failed Response
	ctx = do(s, fasthttp.MethodPost, "/teds", `{"predicted": "x", "groundtruth": "x", "table_edit": {"success": false, "error": "bad"}}`)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &failed))
	assert.False(t, failed.Success)
	assert.Equal(t, "skipped due to table_edit failure: bad", failed.Error)
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, do(s, fasthttp.MethodGet, "/teds", "").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusBadRequest, do(s, fasthttp.MethodPost, "/teds", "{").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusNotFound, do(s, fasthttp.MethodGet, "/nope", "").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusBadRequest, do(s, fasthttp.MethodPost, "/batch", `{"metric":"bleu","pairs":[]}`).Response.StatusCode())
}

func TestBatch(t *testing.T) {
	s := newTestServer(t)
	ctx := do(s, fasthttp.MethodPost, "/batch", `{
		"metric": "s_teds",
		"pairs": [
			{"id": "one", "predicted": "<table><tr><td>a</td></tr></table>", "groundtruth": "<table><tr><td>b</td></tr></table>"},
			{"predicted": "", "groundtruth": "<table><tr><td>b</td></tr></table>"},
			{"predicted": "a", "groundtruth": "a", "table_edit": {"success": false}}
		]
	}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "one", resp.Items[0].ID)
	assert.Equal(t, 1.0, resp.Items[0].Result.Score)
	assert.Equal(t, 0.0, resp.Items[1].Result.Score)
	assert.False(t, resp.Items[2].Result.Success)
	assert.Equal(t, 3, resp.Summary.Count)
	assert.Equal(t, 1, resp.Summary.Errors)
	assert.InDelta(t, 0.5, resp.Summary.Mean, 1e-9)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(s, fasthttp.MethodPost, "/teds", `{"predicted": "a", "groundtruth": "a"}`)

	ctx := do(s, fasthttp.MethodGet, "/metrics", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	body := string(ctx.Response.Body())
	assert.Contains(t, body, "teds_pairs_total")
	assert.Contains(t, body, "teds_http_requests_total")
}

func TestRequestMetricsUseBoundedPathLabels(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 200; i++ {
		do(s, fasthttp.MethodGet, "/scan/"+strconv.Itoa(i), "")
	}
	do(s, fasthttp.MethodGet, "/health", "")

	assert.Equal(t, 2, testutil.CollectAndCount(s.metrics.HTTPRequestsTotal))
	assert.Equal(t, 200.0, testutil.ToFloat64(s.metrics.HTTPRequestsTotal.WithLabelValues("other", "404")))
	assert.Equal(t, "other", routeLabel("/teds/extra"))
	assert.Equal(t, "/s-teds", routeLabel("/s-teds"))
}

func TestDefaultNodeLimitRejectsOversizeTable(t *testing.T) {
	cfg, err := config.LoadServer("")
	require.NoError(t, err)
	require.Equal(t, config.DefaultServerMaxNodes, cfg.MaxNodes)

	log := logger.NewNopLogger()
	full, structure, err := initMetrics(log, "", cfg.Algorithm, cfg.MaxNodes, false)
	require.NoError(t, err)
	s := newServer(full, structure, log, prometheus.NewRegistry(), 2)

	// 1 + 700 rows * (tr + 2 td) = 2101 nodes
	var sb strings.Builder
	sb.WriteString("<table>")
	for i := 0; i < 700; i++ {
		sb.WriteString("<tr><td>a</td><td>b</td></tr>")
	}
	sb.WriteString("</table>")
	body, err := json.Marshal(Request{Predicted: sb.String(), GroundTruth: sb.String()})
	require.NoError(t, err)

	var resp Response
	ctx := do(s, fasthttp.MethodPost, "/teds", string(body))
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "exceeds node limit")
}
