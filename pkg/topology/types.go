package topology

import (
	"time"

	"github.com/jhwagner/mapping-fixtures/pkg/fixture"
)

// Run statuses
const (
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Metadata stores what a run loaded into a mapping service. A failed run
// keeps the results of the fixtures it got through and the error that
// stopped it.
type Metadata struct {
	Name      string            `json:"name"`
	RunID     string            `json:"runID"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Service   Service           `json:"service"`
	CreatedAt time.Time         `json:"createdAt"`
	Fixtures  []*fixture.Result `json:"fixtures"`
}

// Service identifies the mapping service a run talked to. Credentials other
// than the username are never stored.
type Service struct {
	URL      string `json:"url"`
	Prefix   string `json:"prefix"`
	Username string `json:"username"`
}
