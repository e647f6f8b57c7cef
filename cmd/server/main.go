package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_table_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_table_similarity/internal/config"
	"github.com/baditaflorin/go_table_similarity/internal/ports"
	"github.com/baditaflorin/go_table_similarity/pkg/teds"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file with TEDS_* settings")
	port := flag.Int("port", 0, "HTTP server port (default TEDS_PORT or 8080)")
	readTimeout := flag.Duration("read-timeout", 0, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 0, "HTTP write timeout")
	maxRequestSize := flag.Int("max-request-size", 0, "Maximum request size in bytes")
	concurrency := flag.Int("concurrency", 0, "Maximum number of concurrent connections")
	maxNodes := flag.Int("max-nodes", 0, "Reject tables with more nodes (default TEDS_MAX_NODES or 2000, 0 = unlimited)")
	algorithm := flag.String("algorithm", "", "Distance algorithm: dp or generic")
	metricConfig := flag.String("metric-config", "", "YAML metric configuration file")
	warmUp := flag.Bool("warm-up", true, "Perform system warm-up on startup")
	logFile := flag.String("log-file", "", "Log file path (empty = stdout)")
	flag.Parse()

	cfg, err := config.LoadServer(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	// Flags given on the command line override the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "read-timeout":
			cfg.ReadTimeout = *readTimeout
		case "write-timeout":
			cfg.WriteTimeout = *writeTimeout
		case "max-request-size":
			cfg.MaxRequestSize = *maxRequestSize
		case "concurrency":
			cfg.Concurrency = *concurrency
		case "max-nodes":
			cfg.MaxNodes = *maxNodes
		case "algorithm":
			cfg.Algorithm = *algorithm
		case "metric-config":
			cfg.MetricConfig = *metricConfig
		case "warm-up":
			cfg.WarmUp = *warmUp
		case "log-file":
			cfg.LogFile = *logFile
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{File: cfg.LogFile, JSON: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting table similarity HTTP server",
		"port", cfg.Port,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"concurrency", cfg.Concurrency,
		"algorithm", cfg.Algorithm,
		"max_nodes", cfg.MaxNodes,
	)

	full, structure, err := initMetrics(log, cfg.MetricConfig, cfg.Algorithm, cfg.MaxNodes, cfg.WarmUp)
	if err != nil {
		log.Error("Failed to initialize TEDS metrics", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv := newServer(full, structure, log, reg, runtime.NumCPU())

	server := &fasthttp.Server{
		Handler:               srv.requestHandler,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		MaxRequestBodySize:    cfg.MaxRequestSize,
		Concurrency:           cfg.Concurrency,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxIdleWorkerDuration: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down server...")
		if err := server.Shutdown(); err != nil {
			log.Error("Error during server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info("Server listening", "address", addr)
	if err := server.ListenAndServe(addr); err != nil {
		log.Error("Server error", "error", err)
	}

	<-idleConnsClosed
	log.Info("Server stopped")
}

// initMetrics builds the TEDS and S-TEDS metrics. A metric configuration
// file takes precedence over the algorithm setting; a positive maxNodes
// overrides the file's limit.
func initMetrics(log ports.Logger, metricConfig, algorithm string, maxNodes int, warmUp bool) (*teds.TEDS, *teds.TEDS, error) {
	opts := []teds.Option{teds.WithPortsLogger(log), teds.WithWarmUp(warmUp)}
	if metricConfig != "" {
		m, err := config.LoadMetric(metricConfig)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, teds.WithMetricConfig(m))
	} else {
		opts = append(opts, teds.WithAlgorithm(algorithm))
	}
	if maxNodes > 0 {
		opts = append(opts, teds.WithMaxNodes(maxNodes))
	}

	full, err := teds.New(append(opts, teds.WithStructureOnly(false))...)
	if err != nil {
		return nil, nil, err
	}
	structure, err := teds.NewStructure(opts...)
	if err != nil {
		return nil, nil, err
	}

	log.Info("TEDS metrics initialized",
		"warm_up", warmUp,
		"cpus", runtime.NumCPU(),
	)
	return full, structure, nil
}
