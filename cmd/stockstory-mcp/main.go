package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/stockstory/internal/app"
	"github.com/ternarybob/stockstory/internal/common"
)

const instructions = "Explain a company's stock moves over a period. Resolve the ticker, find the weeks with " +
	"significant moves, summarize those weeks' news, then generate the story. Pass the same session_id " +
	"to every call of one analysis."

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
			os.Exit(1)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to stat .env: %v\n", err)
	}

	configPath := os.Getenv("STOCKSTORY_CONFIG")
	if configPath == "" {
		configPath = "stockstory.toml"
	}
	var paths []string
	if _, err := os.Stat(configPath); err == nil {
		paths = append(paths, configPath)
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := common.GetLogger().WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"stockstory",
		common.GetVersion(),
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
	)

	for _, tool := range application.Toolset.ListTools() {
		def, err := toMCPTool(tool)
		if err != nil {
			logger.Fatal().Err(err).Str("tool", tool.Name).Msg("Failed to build tool schema")
		}
		mcpServer.AddTool(def, handleTool(application.Toolset, tool.Name, logger))
	}

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
