package endpoints

import (
	"github.com/jackzampolin/samp/internal/api"
)

// All returns all endpoint instances in route registration order.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Source endpoints
		&ListSourcesEndpoint{},
		&GetSourceEndpoint{},
		&CreateSourceEndpoint{},
		&DeleteSourceEndpoint{},

		// Extraction
		&ExtractEndpoint{},

		// Record endpoints
		&ListRecordsEndpoint{},
		&GetRecordEndpoint{},
		&StatsEndpoint{},

		// Export endpoints
		&ExportCSVEndpoint{},
		&ExportXLSXEndpoint{},

		// Job endpoints
		&ListJobsEndpoint{},
		&GetJobEndpoint{},
		&CancelJobEndpoint{},

		// Run history endpoints
		&ListRunsEndpoint{},
		&LatestRunEndpoint{},
	}
}
