package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/internal/metrics"
	"github.com/GoSim-25-26J-441/promise-core/internal/pipeline"
	"github.com/GoSim-25-26J-441/promise-core/internal/promised"
	"github.com/GoSim-25-26J-441/promise-core/internal/recommend"
	"github.com/GoSim-25-26J-441/promise-core/internal/story"
	"github.com/GoSim-25-26J-441/promise-core/pkg/config"
	"github.com/GoSim-25-26J-441/promise-core/pkg/logger"
	"google.golang.org/grpc"
)

// maxMetricPoints bounds each collector series
const maxMetricPoints = 10000

func main() {
	var configPath string
	var grpcAddr string
	var httpAddr string
	var logLevel string

	flag.StringVar(&configPath, "config", "", "path to daemon config YAML (optional)")
	flag.StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (overrides config)")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Error("failed to load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if grpcAddr != "" {
		cfg.GRPCAddr = grpcAddr
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger.SetDefault(logger.NewText(cfg.LogLevel, os.Stdout))

	baseDir := ""
	if configPath != "" {
		baseDir = filepath.Dir(configPath)
	}

	network, err := config.LoadNetwork(resolve(baseDir, cfg.NetworkPath))
	if err != nil {
		logger.Error("failed to load network", "error", err)
		os.Exit(1)
	}
	rules, err := recommend.LoadRules(resolve(baseDir, cfg.RulesPath))
	if err != nil {
		logger.Error("failed to load rules", "error", err)
		os.Exit(1)
	}
	initial, err := config.LoadScenario(resolve(baseDir, cfg.ScenarioPath))
	if err != nil {
		logger.Error("failed to load scenario", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rules.SetLogger(logger.With("component", "recommend"))

	evaluator := pipeline.NewEvaluator(network, rules)
	session := promised.NewSession(evaluator, initial, metrics.NewCollector(maxMetricPoints))
	logger.Info("session ready",
		"nodes", len(network.Nodes),
		"carriers", len(network.Carriers),
		"rules", len(rules.Rules()),
		"on_time_rate", session.Current().KPI.OnTimeRate)

	var player *story.Player
	if cfg.Story != nil {
		script, err := config.LoadStory(resolve(baseDir, cfg.Story.Path))
		if err != nil {
			logger.Error("failed to load story", "error", err)
			stop()
			os.Exit(1)
		}
		player, err = story.NewPlayer(script, cfg.Story.Speed)
		if err != nil {
			logger.Error("invalid story", "error", err)
			stop()
			os.Exit(1)
		}
		player.SetLogger(logger.With("component", "story"))
	}

	var feed *story.Feed
	if cfg.Activity != nil && cfg.Activity.Enabled {
		interval, err := cfg.Activity.GetInterval()
		if err != nil {
			logger.Error("invalid activity interval", "error", err)
			stop()
			os.Exit(1)
		}
		feed = story.NewFeed(interval, cfg.Activity.Seed, cfg.Activity.History)
		go feed.Run(ctx)
	}

	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		// TODO: Configure gRPC server security (TLS, authentication) before
		// exposing this service outside a trusted network.
		grpcServer = grpc.NewServer()
		promised.RegisterPromiseServiceServer(grpcServer, promised.NewGRPCServer(ctx, session))

		grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen for gRPC", "addr", cfg.GRPCAddr, "error", err)
			stop()
			os.Exit(1)
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(grpcLis); err != nil {
				logger.Error("gRPC server error", "error", err)
				stop()
			}
		}()
	}

	var httpSrv *http.Server
	if cfg.HTTPAddr != "" {
		httpSrv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           promised.NewHTTPServer(ctx, session, player, feed).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil && !promised.StopGRPCServer(shutdownCtx, grpcServer) {
		logger.Warn("gRPC server stopped forcefully")
	}
	if httpSrv != nil {
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown error", "error", err)
		}
	}
	// stories run under ctx, so playback is already winding down
	if player != nil {
		player.Wait()
		logger.Info("story playback finished")
	}
}

// resolve makes a relative path from the config file relative to its directory
func resolve(baseDir, path string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
