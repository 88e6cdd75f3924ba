package common

import (
	"github.com/ternarybob/banner"
)

// AppName is the display name used in the banner and MCP server metadata
const AppName = "StockStory"

// PrintBanner displays the application banner
func PrintBanner(version string) {
	banner.PrintSimple(AppName, version)
}
