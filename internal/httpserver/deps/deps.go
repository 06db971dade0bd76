package deps

import (
	"time"

	"techtrack/internal/domain"
	"techtrack/internal/identity"
	"techtrack/internal/logger"
	"techtrack/internal/tracker"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Tracker *tracker.Tracker    // the per-user working set service
	User    identity.User       // session owner
	Catalog []domain.Technology // browseable catalog (read-only)
}
