package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/app"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	envFile      = flag.String("env", ".env", "Environment file holding API keys")
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("%s version %s\n", common.AppName, common.GetFullVersion())
		return
	}

	port := *serverPort
	if *serverPortP != 0 {
		port = *serverPortP
	}

	// .env first so provider keys and STOCKSTORY_* overrides reach the config loader
	if err := loadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	paths := resolveConfigFiles(configFiles)
	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", paths).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, port, *serverHost)

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", paths).
		Str("address", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Msg("Configuration loaded")

	if err := run(config, logger); err != nil {
		logger.Fatal().Err(err).Msg("StockStory stopped with error")
	}
}

// run serves HTTP until SIGINT or SIGTERM, then drains for up to ten seconds
func run(config *common.Config, logger arbor.ILogger) error {
	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer application.Close()

	srv := server.New(application)
	serveErr := make(chan error, 1)
	common.SafeGo(logger, "httpServer", func() {
		serveErr <- srv.Start()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		logger.Info().Msg("Interrupt signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}

// resolveConfigFiles falls back to stockstory.toml in the working directory
func resolveConfigFiles(flagged []string) []string {
	if len(flagged) > 0 {
		return flagged
	}
	for _, candidate := range []string{"stockstory.toml", "deployments/local/stockstory.toml"} {
		if _, err := os.Stat(candidate); err == nil {
			return []string{candidate}
		}
	}
	return nil
}

// loadEnvFile loads path if it exists. Variables already set in the environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}
