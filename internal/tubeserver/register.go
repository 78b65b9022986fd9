// Package tubeserver exposes the video library over MCP. Every tool is a
// thin wrapper around the library service; no business logic lives here.
package tubeserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/assist"
	"github.com/anatolykoptev/go_tube/internal/library"
	"github.com/anatolykoptev/go_tube/internal/youtube"
)

// Deps are the collaborators the tool handlers need. Service and YouTube are
// required; Assist and Reports are nil when no LLM is configured, and the
// tools depending on them report that instead of registering conditionally —
// a connected client always sees the same tool list.
type Deps struct {
	Service *library.Service
	YouTube *youtube.Client
	Assist  *assist.Client
	Reports *assist.ReportBuilder
}

var deps Deps

// Init stores the tool dependencies. Call once before RegisterTools.
func Init(d Deps) {
	deps = d
}

// RegisterTools registers all video library tools on the given MCP server.
func RegisterTools(server *mcp.Server) {
	registerAddVideo(server)
	registerListVideos(server)
	registerGetVideoInfo(server)
	registerRemoveVideo(server)

	registerSearchLibrary(server)
	registerSearchYouTube(server)

	registerGetFrame(server)
	registerGetFrameByQuery(server)
	registerGetFrameData(server)

	registerGenerateReport(server)
	registerGenerateReportFromQuery(server)
	registerSynthesize(server)

	registerDiscoverVideos(server)
	registerClassifyVideo(server)
}
