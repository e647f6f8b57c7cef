package main

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/baditaflorin/go_table_similarity/internal/batch"
	"github.com/baditaflorin/go_table_similarity/internal/core/domain"
	"github.com/baditaflorin/go_table_similarity/internal/metrics"
	"github.com/baditaflorin/go_table_similarity/internal/ports"
	"github.com/baditaflorin/go_table_similarity/pkg/teds"
)

// requestTimeout bounds the scoring of one request.
const requestTimeout = 60 * time.Second

// Request represents a table similarity request. A missing table_edit is
// treated as a successful normalization stage.
type Request struct {
	Predicted   interface{}          `json:"predicted"`
	GroundTruth interface{}          `json:"groundtruth"`
	TableEdit   *domain.Prerequisite `json:"table_edit,omitempty"`
}

// Response represents a table similarity response.
type Response struct {
	domain.Result
	ProcessingTime string `json:"processing_time"`
}

// BatchRequest scores a list of pairs with one metric ("teds" or "s_teds").
type BatchRequest struct {
	Metric      string       `json:"metric,omitempty"`
	Concurrency int          `json:"concurrency,omitempty"`
	Pairs       []batch.Pair `json:"pairs"`
}

// BatchResponse holds per-pair results in request order plus a summary.
type BatchResponse struct {
	Items          []batch.Item  `json:"items"`
	Summary        batch.Summary `json:"summary"`
	ProcessingTime string        `json:"processing_time"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// server routes requests to the TEDS and S-TEDS metrics.
type server struct {
	full             *teds.TEDS
	structure        *teds.TEDS
	logger           ports.Logger
	metrics          *metrics.Collectors
	metricsHandler   fasthttp.RequestHandler
	batchConcurrency int
}

func newServer(full, structure *teds.TEDS, logger ports.Logger, reg *prometheus.Registry, batchConcurrency int) *server {
	return &server{
		full:             full,
		structure:        structure,
		logger:           logger,
		metrics:          metrics.New(reg),
		metricsHandler:   fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		batchConcurrency: batchConcurrency,
	}
}

// requestHandler is the main fasthttp request handler
func (s *server) requestHandler(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()
	path := string(ctx.Path())

	if path == "/metrics" {
		s.metricsHandler(ctx)
		s.logRequest(ctx, path, startTime)
		return
	}

	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.Response.Header.Set("Server", "TableSimilarityServer")

	switch path {
	case "/health":
		s.handleHealthCheck(ctx)
	case "/teds":
		s.handleScore(ctx, s.full)
	case "/s-teds":
		s.handleScore(ctx, s.structure)
	case "/batch":
		s.handleBatch(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		s.writeJSONError(ctx, "Not found")
	}

	s.logRequest(ctx, path, startTime)
}

func (s *server) logRequest(ctx *fasthttp.RequestCtx, path string, startTime time.Time) {
	status := ctx.Response.StatusCode()
	s.metrics.HTTPRequestsTotal.WithLabelValues(routeLabel(path), strconv.Itoa(status)).Inc()
	s.logger.Info("Request processed",
		"method", string(ctx.Method()),
		"path", path,
		"status", status,
		"ip", ctx.RemoteIP().String(),
		"duration", time.Since(startTime),
	)
}

// routeLabel maps a request path to a metric label. Unknown paths share one
// label so arbitrary URLs cannot create new series.
func routeLabel(path string) string {
	switch path {
	case "/health", "/teds", "/s-teds", "/batch", "/metrics":
		return path
	}
	return "other"
}

// handleHealthCheck responds to health check requests
func (s *server) handleHealthCheck(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, map[string]interface{}{
		"status":  "ok",
		"time":    time.Now().Format(time.RFC3339),
		"metrics": []string{s.full.Name(), s.structure.Name()},
	})
}

// handleScore scores one pair. Scoring failures are reported in the body
// with status 200; only malformed requests get 4xx.
func (s *server) handleScore(ctx *fasthttp.RequestCtx, metric *teds.TEDS) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}

	var req Request
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Invalid request: "+err.Error())
		return
	}
	prereq := req.TableEdit
	if prereq == nil {
		prereq = &domain.Prerequisite{Success: true}
	}

	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	start := time.Now()
	result := metric.Calculate(c, req.Predicted, req.GroundTruth, prereq)
	elapsed := time.Since(start)
	s.metrics.Observe(result, elapsed)

	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, Response{Result: result, ProcessingTime: elapsed.String()})
}

// handleBatch scores a list of pairs concurrently.
func (s *server) handleBatch(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}

	var req BatchRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Invalid request: "+err.Error())
		return
	}

	metric := s.full
	switch req.Metric {
	case "", s.full.Name():
	case s.structure.Name():
		metric = s.structure
	default:
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Unknown metric: "+req.Metric)
		return
	}
	concurrency := req.Concurrency
	if concurrency <= 0 || concurrency > s.batchConcurrency {
		concurrency = s.batchConcurrency
	}

	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	start := time.Now()
	items := batch.Evaluate(c, metric.Calculator(), req.Pairs, concurrency)
	perPair := time.Since(start)
	if len(items) > 0 {
		perPair /= time.Duration(len(items))
	}
	for _, it := range items {
		s.metrics.Observe(it.Result, perPair)
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, BatchResponse{
		Items:          items,
		Summary:        batch.Summarize(items),
		ProcessingTime: time.Since(start).String(),
	})
}

// writeJSONResponse writes a JSON response to the context
func (s *server) writeJSONResponse(ctx *fasthttp.RequestCtx, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.logger.Error("Error marshaling JSON response", "error", err)
		s.writeJSONError(ctx, "Internal server error")
		return
	}
	ctx.SetBody(response)
}

// writeJSONError writes a JSON error response to the context
func (s *server) writeJSONError(ctx *fasthttp.RequestCtx, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.logger.Error("Error marshaling JSON error response", "error", err)
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}
	ctx.SetBody(response)
}
