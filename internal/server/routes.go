package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Weekly summaries stream here while a story run is in progress
	mux.HandleFunc(summaryStreamPath, s.app.SummaryHub.HandleWebSocket)

	// Conversational driver
	mux.HandleFunc("/process_message", s.app.ChatHandler.ProcessMessageHandler)

	// Story pipeline without the agent
	mux.HandleFunc("/api/weeks", s.app.StoryHandler.WeeksHandler)
	mux.HandleFunc("/api/summaries", s.app.StoryHandler.SummariesHandler)
	mux.HandleFunc("/api/story", s.app.StoryHandler.StoryHandler)

	// Operator usage reporting
	mux.HandleFunc("/api/usage", s.app.UsageHandler.GetUsageHandler)
	mux.HandleFunc("/api/usage/reset", s.app.UsageHandler.ResetUsageHandler)
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)

	// System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
