package models

// WeeklySummary is the per-range pipeline output.
// Summary includes the provenance block listing source URLs.
type WeeklySummary struct {
	DateRange string `json:"date_range"`
	Summary   string `json:"summary"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
}

// PipelineState is the per-range orchestration state
type PipelineState string

const (
	StatePending     PipelineState = "PENDING"
	StateQuerying    PipelineState = "QUERYING"
	StateScraping    PipelineState = "SCRAPING"
	StateRanking     PipelineState = "RANKING"
	StateSummarizing PipelineState = "SUMMARIZING"
	StatePublished   PipelineState = "PUBLISHED"
)
