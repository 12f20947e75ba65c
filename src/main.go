package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"curlwise-server-go/src/analyze"
	"curlwise-server-go/src/configs"
	"curlwise-server-go/src/core/curl"
	"curlwise-server-go/src/core/httpx"
	"curlwise-server-go/src/core/providers/llm"
	"curlwise-server-go/src/core/utils"
	"curlwise-server-go/src/health"

	// Register providers through their init functions
	_ "curlwise-server-go/src/core/providers/llm/ollama"
	_ "curlwise-server-go/src/core/providers/llm/openai"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func LoadConfigAndLogger() (*configs.Config, *utils.Logger, error) {
	config, configPath, err := configs.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := utils.NewLogger(config)
	if err != nil {
		return nil, nil, err
	}
	if configPath == "" {
		logger.Info("no config file found, using built-in defaults")
	} else {
		logger.Info("config loaded", map[string]interface{}{"path": configPath})
	}

	return config, logger, nil
}

// BuildPipeline creates the selected vision and routine providers. The
// returned cleanup releases both.
func BuildPipeline(config *configs.Config, logger *utils.Logger) (*curl.Pipeline, func(), error) {
	var httpClient *http.Client
	if config.Server.UpstreamTimeout > 0 {
		httpClient = &http.Client{Timeout: config.Server.UpstreamTimeout}
	}

	var created []llm.Provider
	cleanup := func() {
		for _, p := range created {
			if err := p.Cleanup(); err != nil {
				logger.Warn("provider cleanup failed", err)
			}
		}
	}

	build := func(section string) (llm.Provider, int, error) {
		entry, err := config.Selected(section)
		if err != nil {
			return nil, 0, err
		}
		if entry.Type == "openai" && entry.APIKey == "" {
			logger.Warn("OPENAI_API_KEY is not set, /analyze will fail until it is", map[string]interface{}{
				"section": section,
			})
		}

		provider, err := llm.Create(entry.Type, llm.ConfigFrom(entry, httpClient))
		if err != nil {
			return nil, 0, fmt.Errorf("%s provider: %w", section, err)
		}
		created = append(created, provider)

		logger.Info("provider ready", map[string]interface{}{
			"section":    section,
			"type":       entry.Type,
			"model":      entry.ModelName,
			"max_tokens": entry.MaxTokens,
		})
		return provider, entry.MaxTokens, nil
	}

	vision, visionTokens, err := build("VLLLM")
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	routine, routineTokens, err := build("LLM")
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	budgets := curl.Budgets{Vision: visionTokens, Routine: routineTokens}
	return curl.NewPipeline(vision, routine, budgets, logger), cleanup, nil
}

// NewRouter builds the gin engine with the health and analyze services.
func NewRouter(ctx context.Context, logger *utils.Logger, analyzer analyze.Analyzer) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), httpx.RequestID(), httpx.AccessLog(logger), httpx.CORS())
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	rootGroup := router.Group("/")

	healthService := health.NewDefaultHealthService()
	if err := healthService.Start(ctx, router, rootGroup); err != nil {
		return nil, fmt.Errorf("health service: %w", err)
	}

	analyzeService := analyze.NewDefaultAnalyzeService(analyzer, logger)
	if err := analyzeService.Start(ctx, router, rootGroup); err != nil {
		return nil, fmt.Errorf("analyze service: %w", err)
	}

	return router, nil
}

func StartHttpServer(config *configs.Config, logger *utils.Logger, analyzer analyze.Analyzer, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	if config.Log.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := NewRouter(groupCtx, logger, analyzer)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Server.IP, strconv.Itoa(config.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info(fmt.Sprintf("HTTP server listening on http://%s", httpServer.Addr))

		go func() {
			<-groupCtx.Done()
			logger.Info("shutting down HTTP server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown failed", err)
			} else {
				logger.Info("HTTP server stopped")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func GracefulShutdown(cancel context.CancelFunc, logger *utils.Logger, g *errgroup.Group) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case sig := <-sigChan:
		logger.Info(fmt.Sprintf("received %v, shutting down", sig))
	case err := <-done:
		// The server stopped on its own, most likely a listen error.
		if err != nil {
			logger.Error("server exited", err)
			os.Exit(1)
		}
		return
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("error during shutdown", err)
			os.Exit(1)
		}
		logger.Info("all services stopped")
	case <-time.After(15 * time.Second):
		logger.Error("shutdown timed out, forcing exit")
		os.Exit(1)
	}
}

func main() {
	imagesDir := flag.String("images", "", "analyze every image below this directory and print JSON lines instead of serving HTTP")
	flag.Parse()

	// .env must be loaded before anything reads the environment
	envLoaded, envErr := configs.LoadEnvFile()

	config, logger, err := LoadConfigAndLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading config or logger failed:", err)
		os.Exit(1)
	}
	defer logger.Close()

	if envErr != nil {
		logger.Warn("reading .env failed", envErr)
	} else if envLoaded {
		logger.Info(".env loaded")
	}

	pipeline, cleanup, err := BuildPipeline(config, logger)
	if err != nil {
		logger.Error("creating providers failed", err)
		os.Exit(1)
	}
	defer cleanup()

	if *imagesDir != "" {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		failed, err := RunBatch(ctx, pipeline, *imagesDir, os.Stdout, os.Stderr)
		stop()
		if err != nil {
			logger.Error("batch failed", err)
			os.Exit(1)
		}
		if failed > 0 {
			logger.Warn(fmt.Sprintf("%d images failed", failed))
			os.Exit(2)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, groupCtx := errgroup.WithContext(ctx)

	if _, err := StartHttpServer(config, logger, pipeline, g, groupCtx); err != nil {
		logger.Error("starting HTTP server failed", err)
		cancel()
		os.Exit(1)
	}

	GracefulShutdown(cancel, logger, g)

	logger.Info("exited")
}
