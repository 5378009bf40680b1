package templates

import (
	"github.com/radstash/radstash/pkg/domain"
)

// SummaryWithStatus decorates a container summary with the membership
// enabled flag of the listing's project.
type SummaryWithStatus struct {
	domain.TemplateSummary
	Enabled bool `json:"enabled"`
}

// Count is the response of `?format=count` template queries.
type Count struct {
	Count int `json:"count"`
}
